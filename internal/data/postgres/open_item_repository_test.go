package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acecpas/workbench/internal/domain/openitem"
)

var openItemRowColumns = []string{
	"id", "organization_id", "deal_id", "anomaly_id", "question", "context", "priority", "status",
	"is_resolved", "resolved_by", "resolved_at", "client_response", "responded_at", "created_by", "created_at", "updated_at",
}

func testOpenItem() *openitem.OpenItem {
	now := time.Now()
	return &openitem.OpenItem{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		DealID:         uuid.New(),
		Question:       "Please confirm the March rent amount",
		Priority:       2,
		Status:         openitem.StatusPending,
		CreatedBy:      uuid.New(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func openItemRow(item *openitem.OpenItem) *pgxmock.Rows {
	return pgxmock.NewRows(openItemRowColumns).
		AddRow(item.ID, item.OrganizationID, item.DealID, item.AnomalyID, item.Question, item.Context,
			item.Priority, item.Status, item.IsResolved, item.ResolvedBy, item.ResolvedAt,
			item.ClientResponse, item.RespondedAt, item.CreatedBy, item.CreatedAt, item.UpdatedAt)
}

func TestOpenItemRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OpenItemRepository{querier: mock, logger: logger}

	item := testOpenItem()
	mock.ExpectExec(`INSERT INTO open_items`).
		WithArgs(item.ID, item.OrganizationID, item.DealID, item.AnomalyID, item.Question, item.Context,
			item.Priority, item.Status, item.IsResolved, item.ResolvedBy, item.ResolvedAt,
			item.ClientResponse, item.RespondedAt, item.CreatedBy, item.CreatedAt, item.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(ctx, item)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenItemRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OpenItemRepository{querier: mock, logger: logger}

	query := `SELECT .+ FROM open_items WHERE id = \$1 AND organization_id = \$2`

	t.Run("success", func(t *testing.T) {
		item := testOpenItem()
		mock.ExpectQuery(query).
			WithArgs(item.ID, item.OrganizationID).
			WillReturnRows(openItemRow(item))

		found, err := repo.GetByID(ctx, item.OrganizationID, item.ID)
		assert.NoError(t, err)
		assert.Equal(t, item.Question, found.Question)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tenant mismatch reads as not found", func(t *testing.T) {
		id := uuid.New()
		otherOrg := uuid.New()
		mock.ExpectQuery(query).
			WithArgs(id, otherOrg).
			WillReturnRows(pgxmock.NewRows(openItemRowColumns))

		_, err := repo.GetByID(ctx, otherOrg, id)
		assert.ErrorIs(t, err, openitem.ErrOpenItemNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOpenItemRepository_UpdateResponse(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OpenItemRepository{querier: mock, logger: logger}

	query := `UPDATE open_items SET client_response = \$1, status = 'responded', responded_at = \$2, updated_at = \$2`

	t.Run("success", func(t *testing.T) {
		item := testOpenItem()
		respondedAt := time.Now()
		text := "It was a deposit refund"

		item.Status = openitem.StatusResponded
		item.ClientResponse = &text
		item.RespondedAt = &respondedAt

		mock.ExpectQuery(query).
			WithArgs(text, respondedAt, item.ID, item.OrganizationID).
			WillReturnRows(openItemRow(item))

		updated, err := repo.UpdateResponse(ctx, item.OrganizationID, item.ID, text, respondedAt)
		assert.NoError(t, err)
		assert.Equal(t, openitem.StatusResponded, updated.Status)
		assert.Equal(t, &text, updated.ClientResponse)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New()
		orgID := uuid.New()
		respondedAt := time.Now()

		mock.ExpectQuery(query).
			WithArgs("answer", respondedAt, id, orgID).
			WillReturnRows(pgxmock.NewRows(openItemRowColumns))

		_, err := repo.UpdateResponse(ctx, orgID, id, "answer", respondedAt)
		assert.ErrorIs(t, err, openitem.ErrOpenItemNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOpenItemRepository_MarkSent(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OpenItemRepository{querier: mock, logger: logger}

	t.Run("only pending rows advance", func(t *testing.T) {
		orgID := uuid.New()
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		now := time.Now()

		mock.ExpectExec(`UPDATE open_items SET status = 'sent'`).
			WithArgs(now, orgID, ids).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkSent(ctx, orgID, ids, now)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty id list is a no-op", func(t *testing.T) {
		err := repo.MarkSent(ctx, uuid.New(), nil, time.Now())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
