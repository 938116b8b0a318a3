package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/acecpas/workbench/internal/config"
	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/platform/storage"
)

// MockMagicLinkRepository is a mock implementation of magiclink.Repository
type MockMagicLinkRepository struct {
	mock.Mock
}

var _ magiclink.Repository = (*MockMagicLinkRepository)(nil)

func (m *MockMagicLinkRepository) Create(ctx context.Context, link *magiclink.MagicLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockMagicLinkRepository) GetByToken(ctx context.Context, token string) (*magiclink.MagicLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*magiclink.MagicLink), args.Error(1)
}

func (m *MockMagicLinkRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*magiclink.MagicLink, error) {
	args := m.Called(ctx, orgID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*magiclink.MagicLink), args.Error(1)
}

// MockOpenItemRepository is a mock implementation of openitem.Repository
type MockOpenItemRepository struct {
	mock.Mock
}

var _ openitem.Repository = (*MockOpenItemRepository)(nil)

func (m *MockOpenItemRepository) Create(ctx context.Context, item *openitem.OpenItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockOpenItemRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*openitem.OpenItem, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openitem.OpenItem), args.Error(1)
}

func (m *MockOpenItemRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*openitem.OpenItem, error) {
	args := m.Called(ctx, orgID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*openitem.OpenItem), args.Error(1)
}

func (m *MockOpenItemRepository) ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*openitem.OpenItem, error) {
	args := m.Called(ctx, orgID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*openitem.OpenItem), args.Error(1)
}

func (m *MockOpenItemRepository) Update(ctx context.Context, item *openitem.OpenItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockOpenItemRepository) UpdateResponse(ctx context.Context, orgID, id uuid.UUID, text string, respondedAt time.Time) (*openitem.OpenItem, error) {
	args := m.Called(ctx, orgID, id, text, respondedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openitem.OpenItem), args.Error(1)
}

func (m *MockOpenItemRepository) MarkSent(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, now time.Time) error {
	args := m.Called(ctx, orgID, ids, now)
	return args.Error(0)
}

// MockFileRepository is a mock implementation of openitem.FileRepository
type MockFileRepository struct {
	mock.Mock
}

var _ openitem.FileRepository = (*MockFileRepository)(nil)

func (m *MockFileRepository) Create(ctx context.Context, record *openitem.FileRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFileRepository) ListByOpenItem(ctx context.Context, orgID, openItemID uuid.UUID) ([]*openitem.FileRecord, error) {
	args := m.Called(ctx, orgID, openItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*openitem.FileRecord), args.Error(1)
}

// MockObjectStore is a mock implementation of storage.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

var _ storage.ObjectStore = (*MockObjectStore)(nil)

func (m *MockObjectStore) Put(ctx context.Context, objectKey, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, objectKey, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, objectKey string) error {
	args := m.Called(ctx, objectKey)
	return args.Error(0)
}

func (m *MockObjectStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testPortalConfig() *config.PortalConfig {
	return &config.PortalConfig{
		BaseURL:              "https://portal.example.com",
		LinkExpiryDays:       7,
		BulkApproveThreshold: 90,
		MaxUploadBytes:       1024,
		AllowedContentTypes:  []string{"application/pdf", "image/png", "image/jpeg"},
		UploadTimeout:        30 * time.Second,
	}
}

func newPortalService(t *testing.T) (PortalService, *MockMagicLinkRepository, *MockOpenItemRepository, *MockFileRepository, *MockObjectStore) {
	t.Helper()
	linkRepo := &MockMagicLinkRepository{}
	itemRepo := &MockOpenItemRepository{}
	fileRepo := &MockFileRepository{}
	store := &MockObjectStore{}
	svc := NewPortalService(slog.Default(), linkRepo, itemRepo, fileRepo, store, testPortalConfig())
	return svc, linkRepo, itemRepo, fileRepo, store
}

func testLink(scope []uuid.UUID, expiresAt time.Time) *magiclink.MagicLink {
	return &magiclink.MagicLink{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		DealID:         uuid.New(),
		Token:          "dGVzdC10b2tlbi1vcGFxdWUtYW5kLXVuZ3Vlc3NhYmxl",
		Scope:          scope,
		ExpiresAt:      expiresAt,
		CreatedBy:      uuid.New(),
		CreatedAt:      time.Now().Add(-time.Hour),
	}
}

func TestPortalService_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, linkRepo, _, _, _ := newPortalService(t)

		link := testLink([]uuid.UUID{uuid.New()}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		sess, err := svc.Validate(context.Background(), link.Token)

		assert.NoError(t, err)
		assert.Equal(t, link.DealID, sess.DealID())
	})

	t.Run("EmptyToken", func(t *testing.T) {
		svc, linkRepo, _, _, _ := newPortalService(t)

		_, err := svc.Validate(context.Background(), "")

		assert.ErrorIs(t, err, magiclink.ErrLinkNotFound{})
		linkRepo.AssertNotCalled(t, "GetByToken", mock.Anything, mock.Anything)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		svc, linkRepo, _, _, _ := newPortalService(t)

		linkRepo.On("GetByToken", mock.Anything, "no-such-token").Return(nil, magiclink.ErrLinkNotFound{})

		_, err := svc.Validate(context.Background(), "no-such-token")

		assert.ErrorIs(t, err, magiclink.ErrLinkNotFound{})
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		svc, linkRepo, _, _, _ := newPortalService(t)

		link := testLink([]uuid.UUID{uuid.New()}, time.Now().Add(-time.Minute))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		_, err := svc.Validate(context.Background(), link.Token)

		assert.ErrorIs(t, err, magiclink.ErrLinkExpired{})
	})
}

func TestPortalService_View(t *testing.T) {
	t.Run("ReturnsInScopeItems", func(t *testing.T) {
		svc, linkRepo, itemRepo, _, _ := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		response := "already answered"
		itemRepo.On("ListByIDs", mock.Anything, link.OrganizationID, link.Scope).
			Return([]*openitem.OpenItem{{
				ID:             itemID,
				OrganizationID: link.OrganizationID,
				DealID:         link.DealID,
				Question:       "What is this payment for?",
				Status:         openitem.StatusResponded,
				ClientResponse: &response,
			}}, nil)

		view, err := svc.View(context.Background(), link.Token)

		assert.NoError(t, err)
		assert.Equal(t, link.DealID, view.DealID)
		assert.Len(t, view.Items, 1)
		assert.Equal(t, "What is this payment for?", view.Items[0].Question)
		assert.Equal(t, &response, view.Items[0].ClientResponse)
	})

	t.Run("DeletedItemsDropOut", func(t *testing.T) {
		svc, linkRepo, itemRepo, _, _ := newPortalService(t)

		link := testLink([]uuid.UUID{uuid.New(), uuid.New()}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)
		itemRepo.On("ListByIDs", mock.Anything, link.OrganizationID, link.Scope).
			Return([]*openitem.OpenItem{}, nil)

		view, err := svc.View(context.Background(), link.Token)

		assert.NoError(t, err)
		assert.Empty(t, view.Items)
	})
}

func TestPortalService_SubmitResponse(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, linkRepo, itemRepo, _, _ := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		text := "It was a security deposit refund"
		itemRepo.On("UpdateResponse", mock.Anything, link.OrganizationID, itemID, text, mock.AnythingOfType("time.Time")).
			Return(&openitem.OpenItem{
				ID:             itemID,
				Status:         openitem.StatusResponded,
				ClientResponse: &text,
			}, nil)

		result, err := svc.SubmitResponse(context.Background(), link.Token, itemID, text)

		assert.NoError(t, err)
		assert.Equal(t, openitem.StatusResponded, result.Status)
		assert.Equal(t, &text, result.ClientResponse)
	})

	t.Run("ItemOutsideScope", func(t *testing.T) {
		svc, linkRepo, itemRepo, _, _ := newPortalService(t)

		link := testLink([]uuid.UUID{uuid.New()}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		foreignItem := uuid.New()
		_, err := svc.SubmitResponse(context.Background(), link.Token, foreignItem, "answer")

		assert.ErrorIs(t, err, magiclink.ErrItemNotInScope{})
		itemRepo.AssertNotCalled(t, "UpdateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ExpiredLinkWritesNothing", func(t *testing.T) {
		svc, linkRepo, itemRepo, _, _ := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(-time.Minute))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		_, err := svc.SubmitResponse(context.Background(), link.Token, itemID, "answer")

		assert.ErrorIs(t, err, magiclink.ErrLinkExpired{})
		itemRepo.AssertNotCalled(t, "UpdateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BlankResponse", func(t *testing.T) {
		svc, linkRepo, itemRepo, _, _ := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		_, err := svc.SubmitResponse(context.Background(), link.Token, itemID, "   ")

		assert.ErrorIs(t, err, shared.ValidationError{})
		itemRepo.AssertNotCalled(t, "UpdateResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPortalService_AttachFile(t *testing.T) {
	newInput := func(itemID uuid.UUID) AttachFileInput {
		return AttachFileInput{
			OpenItemID:  itemID,
			FileName:    "receipt.pdf",
			ContentType: "application/pdf",
			SizeBytes:   512,
			Body:        strings.NewReader("pdf bytes"),
		}
	}

	t.Run("Success", func(t *testing.T) {
		svc, linkRepo, itemRepo, fileRepo, store := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)
		itemRepo.On("GetByID", mock.Anything, link.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, OrganizationID: link.OrganizationID, DealID: link.DealID}, nil)
		store.On("Put", mock.Anything, mock.AnythingOfType("string"), "application/pdf", mock.Anything).
			Return("https://storage.googleapis.com/bucket/key", nil)
		fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*openitem.FileRecord")).Return(nil)

		record, err := svc.AttachFile(context.Background(), link.Token, newInput(itemID))

		assert.NoError(t, err)
		assert.Equal(t, "receipt.pdf", record.FileName)
		assert.Equal(t, "https://storage.googleapis.com/bucket/key", record.URL)
		assert.Contains(t, record.StoragePath, itemID.String())
		fileRepo.AssertExpectations(t)
	})

	t.Run("OversizedFileNeverReachesStore", func(t *testing.T) {
		svc, linkRepo, _, _, store := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		in := newInput(itemID)
		in.SizeBytes = 2048 // over the 1024-byte cap

		_, err := svc.AttachFile(context.Background(), link.Token, in)

		assert.ErrorIs(t, err, ErrFileTooLarge)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DisallowedContentType", func(t *testing.T) {
		svc, linkRepo, _, _, store := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		in := newInput(itemID)
		in.ContentType = "application/x-msdownload"

		_, err := svc.AttachFile(context.Background(), link.Token, in)

		assert.ErrorIs(t, err, ErrContentTypeNotAllowed)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ContentTypeParametersAreIgnored", func(t *testing.T) {
		svc, linkRepo, itemRepo, fileRepo, store := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)
		itemRepo.On("GetByID", mock.Anything, link.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, OrganizationID: link.OrganizationID, DealID: link.DealID}, nil)
		store.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).
			Return("https://storage.googleapis.com/bucket/key", nil)
		fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*openitem.FileRecord")).Return(nil)

		in := newInput(itemID)
		in.ContentType = "application/pdf; charset=binary"

		_, err := svc.AttachFile(context.Background(), link.Token, in)

		assert.NoError(t, err)
	})

	t.Run("ItemOutsideScope", func(t *testing.T) {
		svc, linkRepo, _, _, store := newPortalService(t)

		link := testLink([]uuid.UUID{uuid.New()}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)

		_, err := svc.AttachFile(context.Background(), link.Token, newInput(uuid.New()))

		assert.ErrorIs(t, err, magiclink.ErrItemNotInScope{})
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("OrphanedObjectIsCleanedUp", func(t *testing.T) {
		svc, linkRepo, itemRepo, fileRepo, store := newPortalService(t)

		itemID := uuid.New()
		link := testLink([]uuid.UUID{itemID}, time.Now().Add(24*time.Hour))
		linkRepo.On("GetByToken", mock.Anything, link.Token).Return(link, nil)
		itemRepo.On("GetByID", mock.Anything, link.OrganizationID, itemID).
			Return(&openitem.OpenItem{ID: itemID, OrganizationID: link.OrganizationID, DealID: link.DealID}, nil)
		store.On("Put", mock.Anything, mock.AnythingOfType("string"), "application/pdf", mock.Anything).
			Return("https://storage.googleapis.com/bucket/key", nil)
		fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*openitem.FileRecord")).
			Return(assert.AnError)
		store.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

		_, err := svc.AttachFile(context.Background(), link.Token, newInput(itemID))

		assert.Error(t, err)
		store.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("string"))
	})
}
