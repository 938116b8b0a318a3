package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/platform/persistence"
)

// FileRecordRepository implements the openitem.FileRepository interface for PostgreSQL
type FileRecordRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFileRecordRepository creates a new PostgreSQL file record repository
func NewFileRecordRepository(logger *slog.Logger, db *persistence.PostgresDB) openitem.FileRepository {
	return &FileRecordRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores an attachment record after the object store write succeeded
func (r *FileRecordRepository) Create(ctx context.Context, record *openitem.FileRecord) error {
	query := `
		INSERT INTO open_item_files (id, organization_id, deal_id, open_item_id, file_name, content_type,
			size_bytes, storage_path, url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		record.ID,
		record.OrganizationID,
		record.DealID,
		record.OpenItemID,
		record.FileName,
		record.ContentType,
		record.SizeBytes,
		record.StoragePath,
		record.URL,
		record.UploadedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create file record", "open_item_id", record.OpenItemID.String(), "error", err)
		return fmt.Errorf("failed to create file record: %w", err)
	}

	return nil
}

// ListByOpenItem retrieves an item's attachments in upload order
func (r *FileRecordRepository) ListByOpenItem(ctx context.Context, orgID, openItemID uuid.UUID) ([]*openitem.FileRecord, error) {
	query := `
		SELECT id, organization_id, deal_id, open_item_id, file_name, content_type, size_bytes, storage_path, url, uploaded_at
		FROM open_item_files
		WHERE organization_id = $1 AND open_item_id = $2
		ORDER BY uploaded_at
	`

	rows, err := r.querier.Query(ctx, query, orgID, openItemID)
	if err != nil {
		r.logger.Error("Failed to list file records", "open_item_id", openItemID.String(), "error", err)
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}
	defer rows.Close()

	var records []*openitem.FileRecord
	for rows.Next() {
		var rec openitem.FileRecord
		err := rows.Scan(
			&rec.ID,
			&rec.OrganizationID,
			&rec.DealID,
			&rec.OpenItemID,
			&rec.FileName,
			&rec.ContentType,
			&rec.SizeBytes,
			&rec.StoragePath,
			&rec.URL,
			&rec.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file record row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file record rows: %w", err)
	}

	return records, nil
}
