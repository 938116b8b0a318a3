package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/shared"
)

func newOpenItemService(t *testing.T) (OpenItemService, *MockOpenItemRepository, *MockFileRepository) {
	t.Helper()
	itemRepo := &MockOpenItemRepository{}
	fileRepo := &MockFileRepository{}
	svc := NewOpenItemService(slog.Default(), itemRepo, fileRepo)
	return svc, itemRepo, fileRepo
}

func TestOpenItemService_Create(t *testing.T) {
	tc := testTenant()
	dealID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		itemRepo.On("Create", mock.Anything, mock.MatchedBy(func(item *openitem.OpenItem) bool {
			return item.OrganizationID == tc.OrganizationID &&
				item.CreatedBy == tc.ActorID &&
				item.Status == openitem.StatusPending
		})).Return(nil)

		item, err := svc.Create(context.Background(), tc, CreateOpenItemInput{
			DealID:   dealID,
			Question: "Please confirm the March rent amount",
			Priority: 2,
		})

		assert.NoError(t, err)
		assert.Equal(t, openitem.StatusPending, item.Status)
		itemRepo.AssertExpectations(t)
	})

	t.Run("MissingQuestion", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		_, err := svc.Create(context.Background(), tc, CreateOpenItemInput{DealID: dealID})

		assert.ErrorIs(t, err, shared.ValidationError{})
		itemRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOpenItemService_Update(t *testing.T) {
	tc := testTenant()
	itemID := uuid.New()

	t.Run("EditsProvidedFields", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, OrganizationID: tc.OrganizationID, Question: "Old question?", Priority: 1}, nil)
		itemRepo.On("Update", mock.Anything, mock.AnythingOfType("*openitem.OpenItem")).Return(nil)

		question := "Reworded question?"
		priority := 4
		item, err := svc.Update(context.Background(), tc, itemID, UpdateOpenItemInput{
			Question: &question,
			Priority: &priority,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Reworded question?", item.Question)
		assert.Equal(t, 4, item.Priority)
		itemRepo.AssertExpectations(t)
	})

	t.Run("BlankQuestionWritesNothing", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, Question: "Old question?"}, nil)

		blank := ""
		_, err := svc.Update(context.Background(), tc, itemID, UpdateOpenItemInput{Question: &blank})

		assert.ErrorIs(t, err, shared.ValidationError{})
		itemRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(nil, openitem.ErrOpenItemNotFound{OpenItemID: itemID})

		_, err := svc.Update(context.Background(), tc, itemID, UpdateOpenItemInput{})

		assert.ErrorIs(t, err, openitem.ErrOpenItemNotFound{})
		itemRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestOpenItemService_ResolveUnresolve(t *testing.T) {
	tc := testTenant()
	itemID := uuid.New()

	t.Run("Resolve", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, OrganizationID: tc.OrganizationID}, nil)
		itemRepo.On("Update", mock.Anything, mock.AnythingOfType("*openitem.OpenItem")).Return(nil)

		item, err := svc.Resolve(context.Background(), tc, itemID)

		assert.NoError(t, err)
		assert.True(t, item.IsResolved)
		assert.Equal(t, &tc.ActorID, item.ResolvedBy)
	})

	t.Run("Unresolve", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		resolver := uuid.New()
		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, IsResolved: true, ResolvedBy: &resolver}, nil)
		itemRepo.On("Update", mock.Anything, mock.AnythingOfType("*openitem.OpenItem")).Return(nil)

		item, err := svc.Unresolve(context.Background(), tc, itemID)

		assert.NoError(t, err)
		assert.False(t, item.IsResolved)
		assert.Nil(t, item.ResolvedBy)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, itemRepo, _ := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(nil, openitem.ErrOpenItemNotFound{OpenItemID: itemID})

		_, err := svc.Resolve(context.Background(), tc, itemID)

		assert.ErrorIs(t, err, openitem.ErrOpenItemNotFound{})
		itemRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestOpenItemService_ListFiles(t *testing.T) {
	tc := testTenant()
	itemID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, itemRepo, fileRepo := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID}, nil)
		fileRepo.On("ListByOpenItem", mock.Anything, tc.OrganizationID, itemID).
			Return([]*openitem.FileRecord{{ID: uuid.New(), OpenItemID: itemID, FileName: "receipt.pdf"}}, nil)

		files, err := svc.ListFiles(context.Background(), tc, itemID)

		assert.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("UnknownItemReadsAsNotFound", func(t *testing.T) {
		svc, itemRepo, fileRepo := newOpenItemService(t)

		itemRepo.On("GetByID", mock.Anything, tc.OrganizationID, itemID).
			Return(nil, openitem.ErrOpenItemNotFound{OpenItemID: itemID})

		_, err := svc.ListFiles(context.Background(), tc, itemID)

		assert.ErrorIs(t, err, openitem.ErrOpenItemNotFound{})
		fileRepo.AssertNotCalled(t, "ListByOpenItem", mock.Anything, mock.Anything, mock.Anything)
	})
}
