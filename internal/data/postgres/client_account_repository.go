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

// ClientAccountRepository implements mapping.ClientAccountRepository for PostgreSQL
type ClientAccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewClientAccountRepository creates a new PostgreSQL client account repository
func NewClientAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) mapping.ClientAccountRepository {
	return &ClientAccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const clientAccountColumns = `id, organization_id, deal_id, original_text, account_number, account_name,
		vendor_name, description, transaction_count, total_amount, created_at`

// GetByID retrieves a client account scoped to the caller's organization
func (r *ClientAccountRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*mapping.ClientAccount, error) {
	query := `
		SELECT ` + clientAccountColumns + `
		FROM client_accounts
		WHERE id = $1 AND organization_id = $2
	`

	acc, err := scanClientAccount(r.querier.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mapping.ErrClientAccountNotFound{ClientAccountID: id}
		}
		r.logger.Error("Failed to get client account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get client account: %w", err)
	}

	return acc, nil
}

// ListByDeal retrieves every client account in the deal, in ingestion order
func (r *ClientAccountRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*mapping.ClientAccount, error) {
	query := `
		SELECT ` + clientAccountColumns + `
		FROM client_accounts
		WHERE organization_id = $1 AND deal_id = $2
		ORDER BY created_at
	`

	rows, err := r.querier.Query(ctx, query, orgID, dealID)
	if err != nil {
		r.logger.Error("Failed to list client accounts", "deal_id", dealID.String(), "error", err)
		return nil, fmt.Errorf("failed to list client accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*mapping.ClientAccount
	for rows.Next() {
		acc, err := scanClientAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read client account rows: %w", err)
	}

	return accounts, nil
}

func scanClientAccount(row pgx.Row) (*mapping.ClientAccount, error) {
	var acc mapping.ClientAccount
	err := row.Scan(
		&acc.ID,
		&acc.OrganizationID,
		&acc.DealID,
		&acc.OriginalText,
		&acc.AccountNumber,
		&acc.AccountName,
		&acc.VendorName,
		&acc.Description,
		&acc.TransactionCount,
		&acc.TotalAmount,
		&acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
