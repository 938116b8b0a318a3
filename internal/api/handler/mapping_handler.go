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
	"github.com/acecpas/workbench/internal/domain/mapping"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/domain/tenant"
)

// MappingHandler handles HTTP requests for reconciliation operations
type MappingHandler struct {
	mappingService   service.MappingService
	defaultThreshold int
	logger           *slog.Logger
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(logger *slog.Logger, mappingService service.MappingService, defaultThreshold int) *MappingHandler {
	return &MappingHandler{
		mappingService:   mappingService,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// Propose handles creation or overwrite of a mapping proposal
func (h *MappingHandler) Propose(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	var req ProposeMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in := service.ProposeMappingInput{
		DealID:          uuid.MustParse(req.DealID),
		ClientAccountID: uuid.MustParse(req.ClientAccountID),
		MasterAccountID: uuid.MustParse(req.MasterAccountID),
		Confidence:      req.Confidence,
		Reasoning:       req.Reasoning,
	}

	m, err := h.mappingService.ProposeOrUpdate(c.Request.Context(), tc, in)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondCreated(c, mapMappingToResponse(m))
}

// GetByID retrieves a mapping by its ID, returning 404 if not found
func (h *MappingHandler) GetByID(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	m, err := h.mappingService.GetByID(c.Request.Context(), tc, id)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, mapMappingToResponse(m))
}

// Approve moves a mapping to approved
func (h *MappingHandler) Approve(c *gin.Context) {
	h.transition(c, h.mappingService.Approve)
}

// Reject moves a mapping to rejected
func (h *MappingHandler) Reject(c *gin.Context) {
	h.transition(c, h.mappingService.Reject)
}

// RequestReview moves a mapping back to needs-review
func (h *MappingHandler) RequestReview(c *gin.Context) {
	h.transition(c, h.mappingService.RequestReview)
}

func (h *MappingHandler) transition(c *gin.Context, op func(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error)) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	m, err := op(c.Request.Context(), tc, id)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, mapMappingToResponse(m))
}

// BulkApprove approves every eligible mapping in a deal
func (h *MappingHandler) BulkApprove(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	threshold := h.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	result, err := h.mappingService.BulkApprove(c.Request.Context(), tc, uuid.MustParse(req.DealID), threshold)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, result)
}

// Reconciliation returns the per-deal reconciliation view with summary counts
func (h *MappingHandler) Reconciliation(c *gin.Context) {
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

	view, err := h.mappingService.Reconciliation(c.Request.Context(), tc, dealID)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, view)
}

// ListClientAccounts lists the deal's extracted trial-balance accounts
func (h *MappingHandler) ListClientAccounts(c *gin.Context) {
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

	accounts, err := h.mappingService.ListClientAccounts(c.Request.Context(), tc, dealID)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, accounts)
}

// ListMasterAccounts lists the organization's active chart of accounts
func (h *MappingHandler) ListMasterAccounts(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	accounts, err := h.mappingService.ListMasterAccounts(c.Request.Context(), tc)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, accounts)
}

// AuditTrail returns recorded approval transitions for a mapping, newest first
func (h *MappingHandler) AuditTrail(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	events, err := h.mappingService.AuditTrail(c.Request.Context(), tc, id, params.PerPage, (params.Page-1)*params.PerPage)
	if err != nil {
		h.respondMappingError(c, err)
		return
	}

	RespondOK(c, events)
}

func (h *MappingHandler) tenant(c *gin.Context) (tenant.Context, bool) {
	tc, err := middleware.GetTenant(c)
	if err != nil {
		RespondUnauthorized(c, "")
		return tenant.Context{}, false
	}
	return tc, true
}

func (h *MappingHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid mapping ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid mapping ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *MappingHandler) respondMappingError(c *gin.Context, err error) {
	var validationErr shared.ValidationError
	if errors.As(err, &validationErr) {
		RespondBadRequest(c, validationErr.Message)
		return
	}
	if errors.Is(err, mapping.ErrMappingNotFound{}) {
		RespondNotFound(c, "Mapping not found")
		return
	}
	if errors.Is(err, mapping.ErrClientAccountNotFound{}) {
		RespondNotFound(c, "Client account not found")
		return
	}
	if errors.Is(err, mapping.ErrMasterAccountNotFound{}) {
		RespondNotFound(c, "Master account not found")
		return
	}

	h.logger.Error("Mapping operation failed", "error", err)
	RespondInternalError(c)
}

// mapMappingToResponse maps a mapping entity to its response DTO, deriving
// the classification from the stored approval status
func mapMappingToResponse(m *mapping.AccountMapping) MappingResponse {
	resp := MappingResponse{
		ID:              m.ID.String(),
		DealID:          m.DealID.String(),
		ClientAccountID: m.ClientAccountID.String(),
		MasterAccountID: m.MasterAccountID.String(),
		ConfidenceScore: m.ConfidenceScore,
		ApprovalStatus:  string(m.ApprovalStatus),
		Classification:  string(mapping.Classify(m.ApprovalStatus)),
		AIReasoning:     m.AIReasoning,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       m.UpdatedAt.Format(time.RFC3339),
	}
	if m.ApprovedBy != nil {
		s := m.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if m.ApprovedAt != nil {
		s := m.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}
