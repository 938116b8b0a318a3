package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/api/middleware"
	"github.com/acecpas/workbench/internal/api/service"
	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/domain/tenant"
)

// OpenItemHandler handles HTTP requests for staff-side open item operations
type OpenItemHandler struct {
	itemService service.OpenItemService
	logger      *slog.Logger
}

// NewOpenItemHandler creates a new open item handler
func NewOpenItemHandler(logger *slog.Logger, itemService service.OpenItemService) *OpenItemHandler {
	return &OpenItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// Create records a new open item for a deal
func (h *OpenItemHandler) Create(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	var req CreateOpenItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in := service.CreateOpenItemInput{
		DealID:   uuid.MustParse(req.DealID),
		Question: req.Question,
		Context:  req.Context,
		Priority: req.Priority,
	}
	if req.AnomalyID != nil {
		anomalyID := uuid.MustParse(*req.AnomalyID)
		in.AnomalyID = &anomalyID
	}

	item, err := h.itemService.Create(c.Request.Context(), tc, in)
	if err != nil {
		h.respondItemError(c, err)
		return
	}

	RespondCreated(c, mapOpenItemToResponse(item))
}

// GetByID retrieves an open item by its ID, returning 404 if not found
func (h *OpenItemHandler) GetByID(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	item, err := h.itemService.GetByID(c.Request.Context(), tc, id)
	if err != nil {
		h.respondItemError(c, err)
		return
	}

	RespondOK(c, mapOpenItemToResponse(item))
}

// ListByDeal lists a deal's open items
func (h *OpenItemHandler) ListByDeal(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	dealIDParam := c.Param("dealId")
	dealID, err := uuid.Parse(dealIDParam)
	if err != nil {
		h.logger.Error("Invalid deal ID", "deal_id", dealIDParam, "error", err)
		RespondBadRequest(c, "Invalid deal ID")
		return
	}

	items, err := h.itemService.ListByDeal(c.Request.Context(), tc, dealID)
	if err != nil {
		h.respondItemError(c, err)
		return
	}

	responses := make([]OpenItemResponse, len(items))
	for i, item := range items {
		responses[i] = mapOpenItemToResponse(item)
	}
	RespondOK(c, responses)
}

// Update edits an open item's question, context, or priority
func (h *OpenItemHandler) Update(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateOpenItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), tc, id, service.UpdateOpenItemInput{
		Question: req.Question,
		Context:  req.Context,
		Priority: req.Priority,
	})
	if err != nil {
		h.respondItemError(c, err)
		return
	}

	RespondOK(c, mapOpenItemToResponse(item))
}

// Resolve marks an open item resolved
func (h *OpenItemHandler) Resolve(c *gin.Context) {
	h.toggleResolution(c, h.itemService.Resolve)
}

// Unresolve reopens a resolved open item
func (h *OpenItemHandler) Unresolve(c *gin.Context) {
	h.toggleResolution(c, h.itemService.Unresolve)
}

func (h *OpenItemHandler) toggleResolution(c *gin.Context, op func(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error)) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	item, err := op(c.Request.Context(), tc, id)
	if err != nil {
		h.respondItemError(c, err)
		return
	}

	RespondOK(c, mapOpenItemToResponse(item))
}

// ListFiles lists portal attachments uploaded against an open item
func (h *OpenItemHandler) ListFiles(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	records, err := h.itemService.ListFiles(c.Request.Context(), tc, id)
	if err != nil {
		h.respondItemError(c, err)
		return
	}

	responses := make([]FileRecordResponse, len(records))
	for i, record := range records {
		responses[i] = mapFileRecordToResponse(record)
	}
	RespondOK(c, responses)
}

func (h *OpenItemHandler) tenant(c *gin.Context) (tenant.Context, bool) {
	tc, err := middleware.GetTenant(c)
	if err != nil {
		RespondUnauthorized(c, "")
		return tenant.Context{}, false
	}
	return tc, true
}

func (h *OpenItemHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid open item ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid open item ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OpenItemHandler) respondItemError(c *gin.Context, err error) {
	var validationErr shared.ValidationError
	if errors.As(err, &validationErr) {
		RespondBadRequest(c, validationErr.Message)
		return
	}
	if errors.Is(err, openitem.ErrOpenItemNotFound{}) {
		RespondNotFound(c, "Open item not found")
		return
	}

	h.logger.Error("Open item operation failed", "error", err)
	RespondInternalError(c)
}

// mapOpenItemToResponse maps an open item entity to its staff response DTO
func mapOpenItemToResponse(item *openitem.OpenItem) OpenItemResponse {
	resp := OpenItemResponse{
		ID:             item.ID.String(),
		DealID:         item.DealID.String(),
		Question:       item.Question,
		Context:        item.Context,
		Priority:       item.Priority,
		Status:         string(item.Status),
		IsResolved:     item.IsResolved,
		ClientResponse: item.ClientResponse,
		CreatedBy:      item.CreatedBy.String(),
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.Format(time.RFC3339),
	}
	if item.AnomalyID != nil {
		s := item.AnomalyID.String()
		resp.AnomalyID = &s
	}
	if item.ResolvedBy != nil {
		s := item.ResolvedBy.String()
		resp.ResolvedBy = &s
	}
	if item.ResolvedAt != nil {
		s := item.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &s
	}
	if item.RespondedAt != nil {
		s := item.RespondedAt.Format(time.RFC3339)
		resp.RespondedAt = &s
	}
	return resp
}

// mapFileRecordToResponse maps a file record to its response DTO
func mapFileRecordToResponse(record *openitem.FileRecord) FileRecordResponse {
	return FileRecordResponse{
		ID:          record.ID.String(),
		OpenItemID:  record.OpenItemID.String(),
		FileName:    record.FileName,
		ContentType: record.ContentType,
		SizeBytes:   record.SizeBytes,
		URL:         record.URL,
		UploadedAt:  record.UploadedAt.Format(time.RFC3339),
	}
}
