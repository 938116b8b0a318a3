package mapping

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines mapping persistence operations. Every method takes the
// caller's organization id and treats a tenant mismatch exactly like an
// absent row, so existence never leaks across organizations.
type Repository interface {
	// Upsert writes the proposal keyed on client_account_id: one mapping row
	// per client account, insert-or-overwrite. The stored row is returned.
	Upsert(ctx context.Context, m *AccountMapping) (*AccountMapping, error)

	GetByID(ctx context.Context, orgID, id uuid.UUID) (*AccountMapping, error)
	GetByClientAccountID(ctx context.Context, orgID, clientAccountID uuid.UUID) (*AccountMapping, error)
	ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*AccountMapping, error)

	// UpdateStatus persists a lattice transition as a single-row update
	UpdateStatus(ctx context.Context, m *AccountMapping) error

	// ListBulkApprovable returns ids of mappings in the deal with
	// confidence >= threshold and status not already green.
	ListBulkApprovable(ctx context.Context, orgID, dealID uuid.UUID, threshold int) ([]uuid.UUID, error)

	// ApproveIfEligible approves one mapping with a conditional UPDATE that
	// re-checks threshold and status in the WHERE clause. Returns false when
	// the row no longer qualifies (raced with a manual edit) without error.
	ApproveIfEligible(ctx context.Context, orgID, id uuid.UUID, threshold int, approvedBy uuid.UUID) (bool, error)

	WithTx(tx pgx.Tx) Repository
}

// ClientAccountRepository reads client accounts for reconciliation views
type ClientAccountRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*ClientAccount, error)
	ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*ClientAccount, error)
}

// MasterAccountRepository reads the organization's chart of accounts
type MasterAccountRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*MasterAccount, error)
	ListActive(ctx context.Context, orgID uuid.UUID) ([]*MasterAccount, error)
}

// ErrMappingNotFound indicates a missing mapping row, or one owned by a
// different organization (deliberately indistinguishable).
type ErrMappingNotFound struct {
	MappingID uuid.UUID
}

func (e ErrMappingNotFound) Error() string {
	return "account mapping not found: " + e.MappingID.String()
}

// Is implements the errors.Is interface for ErrMappingNotFound
func (e ErrMappingNotFound) Is(target error) bool {
	t, ok := target.(ErrMappingNotFound)
	if !ok {
		return false
	}
	if t.MappingID == uuid.Nil {
		return true
	}
	return e.MappingID == t.MappingID
}

// ErrClientAccountNotFound indicates a missing client account row
type ErrClientAccountNotFound struct {
	ClientAccountID uuid.UUID
}

func (e ErrClientAccountNotFound) Error() string {
	return "client account not found: " + e.ClientAccountID.String()
}

// Is implements the errors.Is interface for ErrClientAccountNotFound
func (e ErrClientAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrClientAccountNotFound)
	if !ok {
		return false
	}
	if t.ClientAccountID == uuid.Nil {
		return true
	}
	return e.ClientAccountID == t.ClientAccountID
}

// ErrMasterAccountNotFound indicates a missing master account row
type ErrMasterAccountNotFound struct {
	MasterAccountID uuid.UUID
}

func (e ErrMasterAccountNotFound) Error() string {
	return "master account not found: " + e.MasterAccountID.String()
}

// Is implements the errors.Is interface for ErrMasterAccountNotFound
func (e ErrMasterAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrMasterAccountNotFound)
	if !ok {
		return false
	}
	if t.MasterAccountID == uuid.Nil {
		return true
	}
	return e.MasterAccountID == t.MasterAccountID
}
