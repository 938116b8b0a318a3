package magiclink

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines magic link persistence operations.
//
// GetByToken runs with no tenant filter: the anonymous caller has no session,
// so the token itself is the authorization. This is the single deliberate
// exception to organization-scoped reads in the codebase.
type Repository interface {
	Create(ctx context.Context, link *MagicLink) error
	GetByToken(ctx context.Context, token string) (*MagicLink, error)
	ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*MagicLink, error)
}

// ErrLinkNotFound indicates an unknown token
type ErrLinkNotFound struct{}

func (e ErrLinkNotFound) Error() string {
	return "magic link not found"
}

// ErrLinkExpired indicates a token past its expiry window. Kept distinct
// from ErrLinkNotFound so the portal can prompt for a fresh link.
type ErrLinkExpired struct{}

func (e ErrLinkExpired) Error() string {
	return "magic link expired"
}

// ErrItemNotInScope indicates a portal request for an item outside the
// link's authorized scope.
type ErrItemNotInScope struct {
	ItemID uuid.UUID
}

func (e ErrItemNotInScope) Error() string {
	return "open item not in link scope: " + e.ItemID.String()
}

// Is implements the errors.Is interface for ErrItemNotInScope
func (e ErrItemNotInScope) Is(target error) bool {
	t, ok := target.(ErrItemNotInScope)
	if !ok {
		return false
	}
	if t.ItemID == uuid.Nil {
		return true
	}
	return e.ItemID == t.ItemID
}
