// Package postgres provides PostgreSQL implementations of the domain
// repositories. Every query on staff paths filters by organization id in
// application SQL; row ownership is never delegated to database-level
// security alone.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/acecpas/workbench/internal/domain/mapping"
	"github.com/acecpas/workbench/internal/platform/persistence"
)

// MappingRepository implements the mapping.Repository interface for PostgreSQL
type MappingRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewMappingRepository creates a new PostgreSQL mapping repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewMappingRepository(logger *slog.Logger, db *persistence.PostgresDB) mapping.Repository {
	return &MappingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *MappingRepository) WithTx(tx pgx.Tx) mapping.Repository {
	return &MappingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const mappingColumns = `id, organization_id, deal_id, client_account_id, master_account_id,
		confidence_score, approval_status, ai_reasoning, approved_by, approved_at, created_at, updated_at`

// Upsert writes the proposal keyed on the client_account_id unique
// constraint. A conflicting row is overwritten in place: new target, new
// confidence, status forced back to review, approval stamp cleared. The
// organization guard on the conflict branch keeps a cross-tenant id
// collision from ever updating another organization's row.
func (r *MappingRepository) Upsert(ctx context.Context, m *mapping.AccountMapping) (*mapping.AccountMapping, error) {
	query := `
		INSERT INTO account_mappings (id, organization_id, deal_id, client_account_id, master_account_id,
			confidence_score, approval_status, ai_reasoning, approved_by, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, NULL, $9, $10)
		ON CONFLICT (client_account_id) DO UPDATE SET
			master_account_id = EXCLUDED.master_account_id,
			confidence_score = EXCLUDED.confidence_score,
			approval_status = EXCLUDED.approval_status,
			ai_reasoning = EXCLUDED.ai_reasoning,
			approved_by = NULL,
			approved_at = NULL,
			updated_at = EXCLUDED.updated_at
		WHERE account_mappings.organization_id = EXCLUDED.organization_id
		RETURNING ` + mappingColumns

	row := r.querier.QueryRow(ctx, query,
		m.ID,
		m.OrganizationID,
		m.DealID,
		m.ClientAccountID,
		m.MasterAccountID,
		m.ConfidenceScore,
		m.ApprovalStatus,
		m.AIReasoning,
		m.CreatedAt,
		m.UpdatedAt,
	)

	stored, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict row belongs to another organization
			return nil, mapping.ErrClientAccountNotFound{ClientAccountID: m.ClientAccountID}
		}
		r.logger.Error("Failed to upsert account mapping", "client_account_id", m.ClientAccountID.String(), "error", err)
		return nil, fmt.Errorf("failed to upsert account mapping: %w", err)
	}

	return stored, nil
}

// GetByID retrieves a mapping scoped to the caller's organization
func (r *MappingRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*mapping.AccountMapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM account_mappings
		WHERE id = $1 AND organization_id = $2
	`

	m, err := scanMapping(r.querier.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mapping.ErrMappingNotFound{MappingID: id}
		}
		r.logger.Error("Failed to get account mapping", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account mapping: %w", err)
	}

	return m, nil
}

// GetByClientAccountID retrieves the mapping for a client account, or nil
// when the account has no mapping yet.
func (r *MappingRepository) GetByClientAccountID(ctx context.Context, orgID, clientAccountID uuid.UUID) (*mapping.AccountMapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM account_mappings
		WHERE client_account_id = $1 AND organization_id = $2
	`

	m, err := scanMapping(r.querier.QueryRow(ctx, query, clientAccountID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Unmapped account, not an error
		}
		r.logger.Error("Failed to get mapping by client account", "client_account_id", clientAccountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get mapping by client account: %w", err)
	}

	return m, nil
}

// ListByDeal retrieves every mapping row in the deal
func (r *MappingRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*mapping.AccountMapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM account_mappings
		WHERE organization_id = $1 AND deal_id = $2
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, orgID, dealID)
	if err != nil {
		r.logger.Error("Failed to list mappings", "deal_id", dealID.String(), "error", err)
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*mapping.AccountMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping rows: %w", err)
	}

	return mappings, nil
}

// UpdateStatus persists a lattice transition as a single-row update.
// Returns ErrMappingNotFound when the row is absent or tenant-mismatched.
func (r *MappingRepository) UpdateStatus(ctx context.Context, m *mapping.AccountMapping) error {
	query := `
		UPDATE account_mappings
		SET approval_status = $1, approved_by = $2, approved_at = $3, updated_at = $4
		WHERE id = $5 AND organization_id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		m.ApprovalStatus,
		m.ApprovedBy,
		m.ApprovedAt,
		m.UpdatedAt,
		m.ID,
		m.OrganizationID,
	)
	if err != nil {
		r.logger.Error("Failed to update mapping status", "id", m.ID.String(), "error", err)
		return fmt.Errorf("failed to update mapping status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return mapping.ErrMappingNotFound{MappingID: m.ID}
	}

	return nil
}

// ListBulkApprovable selects ids of mappings qualifying for bulk approval:
// confidence at or above the threshold and not already green.
func (r *MappingRepository) ListBulkApprovable(ctx context.Context, orgID, dealID uuid.UUID, threshold int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM account_mappings
		WHERE organization_id = $1 AND deal_id = $2
			AND confidence_score >= $3 AND approval_status <> 'green'
	`

	rows, err := r.querier.Query(ctx, query, orgID, dealID, threshold)
	if err != nil {
		r.logger.Error("Failed to list bulk-approvable mappings", "deal_id", dealID.String(), "error", err)
		return nil, fmt.Errorf("failed to list bulk-approvable mappings: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan mapping id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping ids: %w", err)
	}

	return ids, nil
}

// ApproveIfEligible approves one mapping with the eligibility conditions
// re-checked in the WHERE clause, so the read and write are a single
// statement. A row that raced with a manual edit simply no longer matches
// and is reported as not approved, without error.
func (r *MappingRepository) ApproveIfEligible(ctx context.Context, orgID, id uuid.UUID, threshold int, approvedBy uuid.UUID) (bool, error) {
	query := `
		UPDATE account_mappings
		SET approval_status = 'green', approved_by = $1, approved_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND organization_id = $3
			AND confidence_score >= $4 AND approval_status <> 'green'
	`

	result, err := r.querier.Exec(ctx, query, approvedBy, id, orgID, threshold)
	if err != nil {
		r.logger.Error("Failed to bulk-approve mapping", "id", id.String(), "error", err)
		return false, fmt.Errorf("failed to bulk-approve mapping: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// scanMapping reads one mapping row from a pgx.Row or pgx.Rows
func scanMapping(row pgx.Row) (*mapping.AccountMapping, error) {
	var m mapping.AccountMapping
	err := row.Scan(
		&m.ID,
		&m.OrganizationID,
		&m.DealID,
		&m.ClientAccountID,
		&m.MasterAccountID,
		&m.ConfidenceScore,
		&m.ApprovalStatus,
		&m.AIReasoning,
		&m.ApprovedBy,
		&m.ApprovedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
