package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/platform/persistence"
)

// MagicLinkRepository implements the magiclink.Repository interface for PostgreSQL
type MagicLinkRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMagicLinkRepository creates a new PostgreSQL magic link repository
func NewMagicLinkRepository(logger *slog.Logger, db *persistence.PostgresDB) magiclink.Repository {
	return &MagicLinkRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const magicLinkColumns = `id, organization_id, deal_id, token, scope, client_email, expires_at, created_by, created_at`

// Create stores a new magic link. The scope array is written once here and
// no update statement for it exists anywhere in this repository.
func (r *MagicLinkRepository) Create(ctx context.Context, link *magiclink.MagicLink) error {
	query := `
		INSERT INTO magic_links (id, organization_id, deal_id, token, scope, client_email, expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		link.ID,
		link.OrganizationID,
		link.DealID,
		link.Token,
		link.Scope,
		link.ClientEmail,
		link.ExpiresAt,
		link.CreatedBy,
		link.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create magic link", "id", link.ID.String(), "error", err)
		return fmt.Errorf("failed to create magic link: %w", err)
	}

	return nil
}

// GetByToken looks a link up by its token value with no tenant filter: the
// anonymous portal caller has no organization, the token is the credential.
// Expiry is not evaluated here; the read stays side-effect free.
func (r *MagicLinkRepository) GetByToken(ctx context.Context, token string) (*magiclink.MagicLink, error) {
	query := `
		SELECT ` + magicLinkColumns + `
		FROM magic_links
		WHERE token = $1
	`

	link, err := scanMagicLink(r.querier.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, magiclink.ErrLinkNotFound{}
		}
		r.logger.Error("Failed to get magic link by token", "error", err)
		return nil, fmt.Errorf("failed to get magic link by token: %w", err)
	}

	return link, nil
}

// ListByDeal retrieves the deal's links, newest first
func (r *MagicLinkRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*magiclink.MagicLink, error) {
	query := `
		SELECT ` + magicLinkColumns + `
		FROM magic_links
		WHERE organization_id = $1 AND deal_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, orgID, dealID)
	if err != nil {
		r.logger.Error("Failed to list magic links", "deal_id", dealID.String(), "error", err)
		return nil, fmt.Errorf("failed to list magic links: %w", err)
	}
	defer rows.Close()

	var links []*magiclink.MagicLink
	for rows.Next() {
		link, err := scanMagicLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan magic link row: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read magic link rows: %w", err)
	}

	return links, nil
}

func scanMagicLink(row pgx.Row) (*magiclink.MagicLink, error) {
	var link magiclink.MagicLink
	err := row.Scan(
		&link.ID,
		&link.OrganizationID,
		&link.DealID,
		&link.Token,
		&link.Scope,
		&link.ClientEmail,
		&link.ExpiresAt,
		&link.CreatedBy,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}
