package magiclink

import (
	"time"

	"github.com/google/uuid"
)

// PortalSession is the proof of a successful token validation. It is the
// only value the portal acts on, a distinct type from the staff tenant
// context so an anonymous capability can never stand in for authenticated
// staff access. Scope membership is re-evaluated on every request.
type PortalSession struct {
	link        *MagicLink
	validatedAt time.Time
}

// NewPortalSession wraps a validated link. Callers must have already checked
// expiry; Validate in the service layer is the only production entry point.
func NewPortalSession(link *MagicLink, validatedAt time.Time) *PortalSession {
	return &PortalSession{link: link, validatedAt: validatedAt}
}

// OrganizationID returns the owning organization of the underlying link
func (s *PortalSession) OrganizationID() uuid.UUID {
	return s.link.OrganizationID
}

// DealID returns the deal the underlying link was issued for
func (s *PortalSession) DealID() uuid.UUID {
	return s.link.DealID
}

// Scope returns a copy of the authorized open item ids
func (s *PortalSession) Scope() []uuid.UUID {
	scope := make([]uuid.UUID, len(s.link.Scope))
	copy(scope, s.link.Scope)
	return scope
}

// ExpiresAt returns the link's absolute expiry
func (s *PortalSession) ExpiresAt() time.Time {
	return s.link.ExpiresAt
}

// AuthorizeItem is the membership test every portal read or write on a
// specific open item must pass first.
func (s *PortalSession) AuthorizeItem(itemID uuid.UUID) bool {
	return s.link.InScope(itemID)
}
