package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/config"
	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/platform/storage"
)

// ErrFileTooLarge indicates an upload over the configured size cap
var ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")

// ErrContentTypeNotAllowed indicates an upload with a disallowed MIME type
var ErrContentTypeNotAllowed = errors.New("file content type is not allowed")

// PortalServiceImpl implements the PortalService interface. Every operation
// starts from the raw token; nothing is cached between requests, so expiry
// and scope are re-checked every time.
type PortalServiceImpl struct {
	logger   *slog.Logger
	linkRepo magiclink.Repository
	itemRepo openitem.Repository
	fileRepo openitem.FileRepository
	store    storage.ObjectStore
	cfg      *config.PortalConfig
}

// NewPortalService creates a new portal service
func NewPortalService(
	logger *slog.Logger,
	linkRepo magiclink.Repository,
	itemRepo openitem.Repository,
	fileRepo openitem.FileRepository,
	store storage.ObjectStore,
	cfg *config.PortalConfig,
) PortalService {
	return &PortalServiceImpl{
		logger:   logger,
		linkRepo: linkRepo,
		itemRepo: itemRepo,
		fileRepo: fileRepo,
		store:    store,
		cfg:      cfg,
	}
}

// Validate resolves a token into a session. An unknown token and an expired
// one are distinct failures: the first is a dead end, the second means the
// client should ask for a fresh link.
func (s *PortalServiceImpl) Validate(ctx context.Context, token string) (*magiclink.PortalSession, error) {
	if token == "" {
		return nil, magiclink.ErrLinkNotFound{}
	}

	link, err := s.linkRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if link.Expired(now) {
		return nil, magiclink.ErrLinkExpired{}
	}

	return magiclink.NewPortalSession(link, now), nil
}

// View validates the token and loads the in-scope open items. Items deleted
// since issuance silently drop out of the view.
func (s *PortalServiceImpl) View(ctx context.Context, token string) (*PortalView, error) {
	sess, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.ListByIDs(ctx, sess.OrganizationID(), sess.Scope())
	if err != nil {
		return nil, err
	}

	view := &PortalView{
		DealID:    sess.DealID(),
		ExpiresAt: sess.ExpiresAt(),
		Items:     make([]PortalItem, len(items)),
	}
	for i, item := range items {
		view.Items[i] = toPortalItem(item)
	}

	return view, nil
}

// SubmitResponse validates the token and scope, then stores the answer.
// Re-submitting overwrites the previous answer, so client retries are safe.
func (s *PortalServiceImpl) SubmitResponse(ctx context.Context, token string, itemID uuid.UUID, text string) (*PortalItem, error) {
	sess, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !sess.AuthorizeItem(itemID) {
		return nil, magiclink.ErrItemNotInScope{ItemID: itemID}
	}
	if strings.TrimSpace(text) == "" {
		return nil, shared.NewValidationError("response text is required")
	}

	item, err := s.itemRepo.UpdateResponse(ctx, sess.OrganizationID(), itemID, text, time.Now())
	if err != nil {
		return nil, err
	}

	result := toPortalItem(item)
	return &result, nil
}

// AttachFile validates the token and scope, checks the upload against the
// configured size and MIME limits, then writes the object and its metadata
// record. Limits are enforced before any byte reaches the object store.
func (s *PortalServiceImpl) AttachFile(ctx context.Context, token string, in AttachFileInput) (*openitem.FileRecord, error) {
	sess, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !sess.AuthorizeItem(in.OpenItemID) {
		return nil, magiclink.ErrItemNotInScope{ItemID: in.OpenItemID}
	}

	if in.FileName == "" {
		return nil, shared.NewValidationError("file name is required")
	}
	if in.SizeBytes <= 0 {
		return nil, shared.NewValidationError("file is empty")
	}
	if in.SizeBytes > s.cfg.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if !s.contentTypeAllowed(in.ContentType) {
		return nil, ErrContentTypeNotAllowed
	}

	item, err := s.itemRepo.GetByID(ctx, sess.OrganizationID(), in.OpenItemID)
	if err != nil {
		return nil, err
	}

	record := &openitem.FileRecord{
		ID:             uuid.New(),
		OrganizationID: item.OrganizationID,
		DealID:         item.DealID,
		OpenItemID:     item.ID,
		FileName:       path.Base(in.FileName),
		ContentType:    in.ContentType,
		SizeBytes:      in.SizeBytes,
		UploadedAt:     time.Now(),
	}
	record.StoragePath = fmt.Sprintf("%s/%s/%s_%s", item.DealID, item.ID, record.ID, record.FileName)

	uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	url, err := s.store.Put(uploadCtx, record.StoragePath, record.ContentType, in.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}
	record.URL = url

	if err := s.fileRepo.Create(ctx, record); err != nil {
		// The object is orphaned without its record; best effort to remove it
		if delErr := s.store.Delete(ctx, record.StoragePath); delErr != nil {
			s.logger.Warn("Failed to clean up orphaned attachment object",
				"storage_path", record.StoragePath,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.logger.Info("Portal attachment stored",
		"open_item_id", item.ID.String(),
		"file_name", record.FileName,
		"size_bytes", record.SizeBytes,
	)

	return record, nil
}

func (s *PortalServiceImpl) contentTypeAllowed(contentType string) bool {
	// Strip parameters such as "; charset=utf-8" before matching
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(strings.ToLower(base))

	for _, allowed := range s.cfg.AllowedContentTypes {
		if base == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func toPortalItem(item *openitem.OpenItem) PortalItem {
	return PortalItem{
		ID:             item.ID,
		Question:       item.Question,
		Context:        item.Context,
		Priority:       item.Priority,
		Status:         item.Status,
		ClientResponse: item.ClientResponse,
		RespondedAt:    item.RespondedAt,
	}
}
