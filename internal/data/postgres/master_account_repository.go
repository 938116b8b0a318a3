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

// MasterAccountRepository implements mapping.MasterAccountRepository for PostgreSQL
type MasterAccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMasterAccountRepository creates a new PostgreSQL master account repository
func NewMasterAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) mapping.MasterAccountRepository {
	return &MasterAccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const masterAccountColumns = `id, organization_id, code, name, type, category, subcategory, is_active, display_order`

// GetByID retrieves a master account scoped to the caller's organization
func (r *MasterAccountRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*mapping.MasterAccount, error) {
	query := `
		SELECT ` + masterAccountColumns + `
		FROM master_accounts
		WHERE id = $1 AND organization_id = $2
	`

	acc, err := scanMasterAccount(r.querier.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mapping.ErrMasterAccountNotFound{MasterAccountID: id}
		}
		r.logger.Error("Failed to get master account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get master account: %w", err)
	}

	return acc, nil
}

// ListActive retrieves the organization's active chart of accounts in display order
func (r *MasterAccountRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]*mapping.MasterAccount, error) {
	query := `
		SELECT ` + masterAccountColumns + `
		FROM master_accounts
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY display_order, code
	`

	rows, err := r.querier.Query(ctx, query, orgID)
	if err != nil {
		r.logger.Error("Failed to list master accounts", "organization_id", orgID.String(), "error", err)
		return nil, fmt.Errorf("failed to list master accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*mapping.MasterAccount
	for rows.Next() {
		acc, err := scanMasterAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan master account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read master account rows: %w", err)
	}

	return accounts, nil
}

func scanMasterAccount(row pgx.Row) (*mapping.MasterAccount, error) {
	var acc mapping.MasterAccount
	err := row.Scan(
		&acc.ID,
		&acc.OrganizationID,
		&acc.Code,
		&acc.Name,
		&acc.Type,
		&acc.Category,
		&acc.Subcategory,
		&acc.IsActive,
		&acc.DisplayOrder,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
