// Package magiclink implements the expiring bearer-capability tokens that
// gate the anonymous client portal. A link's scope is the fixed set of open
// item ids captured at creation; it is never widened, never consumed, and a
// link stays usable for unlimited requests until its absolute expiry.
package magiclink

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/domain/shared"
)

// tokenBytes is the entropy of a portal token before encoding
const tokenBytes = 32

// MagicLink is a scoped, expiring access token over a set of open items
type MagicLink struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	DealID         uuid.UUID   `json:"deal_id"`
	Token          string      `json:"token"`
	Scope          []uuid.UUID `json:"scope"` // immutable after creation
	ClientEmail    *string     `json:"client_email,omitempty"`
	ExpiresAt      time.Time   `json:"expires_at"` // absolute, not sliding
	CreatedBy      uuid.UUID   `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewMagicLink creates a link over the given open item ids. The token is
// always generated server-side; caller input never influences it.
func NewMagicLink(orgID, dealID uuid.UUID, scope []uuid.UUID, expiresInDays int, clientEmail *string, createdBy uuid.UUID) (*MagicLink, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewValidationError("deal id is required")
	}
	if len(scope) == 0 {
		return nil, shared.NewValidationError("at least one open item id is required")
	}
	if expiresInDays <= 0 {
		return nil, shared.NewValidationError("expiry window must be at least one day")
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate portal token: %w", err)
	}

	now := time.Now()
	scopeCopy := make([]uuid.UUID, len(scope))
	copy(scopeCopy, scope)

	return &MagicLink{
		ID:             uuid.New(),
		OrganizationID: orgID,
		DealID:         dealID,
		Token:          token,
		Scope:          scopeCopy,
		ClientEmail:    clientEmail,
		ExpiresAt:      now.Add(time.Duration(expiresInDays) * 24 * time.Hour),
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}, nil
}

// GenerateToken returns an unguessable URL-safe token
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Expired reports whether the link is past its window at the given instant
func (l *MagicLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// InScope reports whether the item id is inside the link's scope
func (l *MagicLink) InScope(itemID uuid.UUID) bool {
	for _, id := range l.Scope {
		if id == itemID {
			return true
		}
	}
	return false
}
