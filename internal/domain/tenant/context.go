// Package tenant carries the resolved identity of an authenticated staff
// request: the owning organization and the acting user. Every repository
// read and write on staff paths is filtered by the organization id; the
// anonymous portal deliberately does not carry a tenant context and is
// authorized by magic-link scope instead.
package tenant

import (
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthenticated indicates missing or unresolvable credentials
var ErrUnauthenticated = errors.New("unauthenticated")

// Context identifies the organization and actor behind a staff request
type Context struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
}

// Valid reports whether both identities are present
func (c Context) Valid() bool {
	return c.OrganizationID != uuid.Nil && c.ActorID != uuid.Nil
}
