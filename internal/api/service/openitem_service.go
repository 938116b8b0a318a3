package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/tenant"
)

// OpenItemServiceImpl implements the OpenItemService interface
type OpenItemServiceImpl struct {
	logger   *slog.Logger
	itemRepo openitem.Repository
	fileRepo openitem.FileRepository
}

// NewOpenItemService creates a new open item service
func NewOpenItemService(logger *slog.Logger, itemRepo openitem.Repository, fileRepo openitem.FileRepository) OpenItemService {
	return &OpenItemServiceImpl{
		logger:   logger,
		itemRepo: itemRepo,
		fileRepo: fileRepo,
	}
}

// Create records a new pending open item authored by the acting staff user
func (s *OpenItemServiceImpl) Create(ctx context.Context, tc tenant.Context, in CreateOpenItemInput) (*openitem.OpenItem, error) {
	item, err := openitem.NewOpenItem(tc.OrganizationID, in.DealID, tc.ActorID, in.Question, in.Context, in.Priority, in.AnomalyID)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// GetByID retrieves an open item within the caller's organization
func (s *OpenItemServiceImpl) GetByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error) {
	return s.itemRepo.GetByID(ctx, tc.OrganizationID, id)
}

// ListByDeal lists the deal's open items
func (s *OpenItemServiceImpl) ListByDeal(ctx context.Context, tc tenant.Context, dealID uuid.UUID) ([]*openitem.OpenItem, error) {
	return s.itemRepo.ListByDeal(ctx, tc.OrganizationID, dealID)
}

// Update applies a staff edit to the item's question, context, or priority
func (s *OpenItemServiceImpl) Update(ctx context.Context, tc tenant.Context, id uuid.UUID, in UpdateOpenItemInput) (*openitem.OpenItem, error) {
	item, err := s.itemRepo.GetByID(ctx, tc.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	if err := item.Edit(in.Question, in.Context, in.Priority, time.Now()); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// Resolve marks the item resolved by the acting staff user
func (s *OpenItemServiceImpl) Resolve(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error) {
	item, err := s.itemRepo.GetByID(ctx, tc.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	item.Resolve(tc.ActorID, time.Now())
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// Unresolve reopens the item
func (s *OpenItemServiceImpl) Unresolve(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error) {
	item, err := s.itemRepo.GetByID(ctx, tc.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	item.Unresolve(time.Now())
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// ListFiles returns portal attachments uploaded against the item. The item
// is loaded first so an unknown or foreign id reads as not found instead of
// an empty list.
func (s *OpenItemServiceImpl) ListFiles(ctx context.Context, tc tenant.Context, id uuid.UUID) ([]*openitem.FileRecord, error) {
	if _, err := s.itemRepo.GetByID(ctx, tc.OrganizationID, id); err != nil {
		return nil, err
	}
	return s.fileRepo.ListByOpenItem(ctx, tc.OrganizationID, id)
}
