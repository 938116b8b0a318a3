package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/platform/persistence"
)

// OpenItemRepository implements the openitem.Repository interface for PostgreSQL
type OpenItemRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOpenItemRepository creates a new PostgreSQL open item repository
func NewOpenItemRepository(logger *slog.Logger, db *persistence.PostgresDB) openitem.Repository {
	return &OpenItemRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const openItemColumns = `id, organization_id, deal_id, anomaly_id, question, context, priority, status,
		is_resolved, resolved_by, resolved_at, client_response, responded_at, created_by, created_at, updated_at`

// Create stores a new open item
func (r *OpenItemRepository) Create(ctx context.Context, item *openitem.OpenItem) error {
	query := `
		INSERT INTO open_items (id, organization_id, deal_id, anomaly_id, question, context, priority, status,
			is_resolved, resolved_by, resolved_at, client_response, responded_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.querier.Exec(ctx, query,
		item.ID,
		item.OrganizationID,
		item.DealID,
		item.AnomalyID,
		item.Question,
		item.Context,
		item.Priority,
		item.Status,
		item.IsResolved,
		item.ResolvedBy,
		item.ResolvedAt,
		item.ClientResponse,
		item.RespondedAt,
		item.CreatedBy,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create open item", "error", err)
		return fmt.Errorf("failed to create open item: %w", err)
	}

	return nil
}

// GetByID retrieves an open item scoped to the caller's organization
func (r *OpenItemRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*openitem.OpenItem, error) {
	query := `
		SELECT ` + openItemColumns + `
		FROM open_items
		WHERE id = $1 AND organization_id = $2
	`

	item, err := scanOpenItem(r.querier.QueryRow(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, openitem.ErrOpenItemNotFound{OpenItemID: id}
		}
		r.logger.Error("Failed to get open item", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get open item: %w", err)
	}

	return item, nil
}

// ListByDeal retrieves the deal's open items, highest priority first
func (r *OpenItemRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*openitem.OpenItem, error) {
	query := `
		SELECT ` + openItemColumns + `
		FROM open_items
		WHERE organization_id = $1 AND deal_id = $2
		ORDER BY priority DESC, created_at
	`

	rows, err := r.querier.Query(ctx, query, orgID, dealID)
	if err != nil {
		r.logger.Error("Failed to list open items", "deal_id", dealID.String(), "error", err)
		return nil, fmt.Errorf("failed to list open items: %w", err)
	}
	defer rows.Close()

	return collectOpenItems(rows)
}

// ListByIDs returns the items from ids that still resolve within the
// organization. Ids that no longer resolve are skipped, so a link scope
// referencing a deleted item degrades gracefully.
func (r *OpenItemRepository) ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*openitem.OpenItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + openItemColumns + `
		FROM open_items
		WHERE organization_id = $1 AND id = ANY($2)
		ORDER BY priority DESC, created_at
	`

	rows, err := r.querier.Query(ctx, query, orgID, ids)
	if err != nil {
		r.logger.Error("Failed to list open items by ids", "error", err)
		return nil, fmt.Errorf("failed to list open items by ids: %w", err)
	}
	defer rows.Close()

	return collectOpenItems(rows)
}

// Update persists staff edits and resolve/unresolve transitions.
// Returns ErrOpenItemNotFound when the row is absent or tenant-mismatched.
func (r *OpenItemRepository) Update(ctx context.Context, item *openitem.OpenItem) error {
	query := `
		UPDATE open_items
		SET question = $1, context = $2, priority = $3, status = $4,
			is_resolved = $5, resolved_by = $6, resolved_at = $7, updated_at = $8
		WHERE id = $9 AND organization_id = $10
	`

	result, err := r.querier.Exec(ctx, query,
		item.Question,
		item.Context,
		item.Priority,
		item.Status,
		item.IsResolved,
		item.ResolvedBy,
		item.ResolvedAt,
		item.UpdatedAt,
		item.ID,
		item.OrganizationID,
	)
	if err != nil {
		r.logger.Error("Failed to update open item", "id", item.ID.String(), "error", err)
		return fmt.Errorf("failed to update open item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return openitem.ErrOpenItemNotFound{OpenItemID: item.ID}
	}

	return nil
}

// UpdateResponse stores the client answer as a single-row update. Response
// text, responded status, and the response timestamp change together so no
// partial submission state is ever observable.
func (r *OpenItemRepository) UpdateResponse(ctx context.Context, orgID, id uuid.UUID, text string, respondedAt time.Time) (*openitem.OpenItem, error) {
	query := `
		UPDATE open_items
		SET client_response = $1, status = 'responded', responded_at = $2, updated_at = $2
		WHERE id = $3 AND organization_id = $4
		RETURNING ` + openItemColumns

	item, err := scanOpenItem(r.querier.QueryRow(ctx, query, text, respondedAt, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, openitem.ErrOpenItemNotFound{OpenItemID: id}
		}
		r.logger.Error("Failed to record client response", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to record client response: %w", err)
	}

	return item, nil
}

// MarkSent advances any pending items among ids to sent
func (r *OpenItemRepository) MarkSent(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE open_items
		SET status = 'sent', updated_at = $1
		WHERE organization_id = $2 AND id = ANY($3) AND status = 'pending'
	`

	_, err := r.querier.Exec(ctx, query, now, orgID, ids)
	if err != nil {
		r.logger.Error("Failed to mark open items sent", "error", err)
		return fmt.Errorf("failed to mark open items sent: %w", err)
	}

	return nil
}

func collectOpenItems(rows pgx.Rows) ([]*openitem.OpenItem, error) {
	var items []*openitem.OpenItem
	for rows.Next() {
		item, err := scanOpenItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan open item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read open item rows: %w", err)
	}
	return items, nil
}

func scanOpenItem(row pgx.Row) (*openitem.OpenItem, error) {
	var item openitem.OpenItem
	err := row.Scan(
		&item.ID,
		&item.OrganizationID,
		&item.DealID,
		&item.AnomalyID,
		&item.Question,
		&item.Context,
		&item.Priority,
		&item.Status,
		&item.IsResolved,
		&item.ResolvedBy,
		&item.ResolvedAt,
		&item.ClientResponse,
		&item.RespondedAt,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
