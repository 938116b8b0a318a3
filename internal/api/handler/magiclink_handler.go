package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/api/middleware"
	"github.com/acecpas/workbench/internal/api/service"
	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/domain/tenant"
)

// MagicLinkHandler handles HTTP requests for staff-side magic link operations
type MagicLinkHandler struct {
	linkService service.MagicLinkService
	logger      *slog.Logger
}

// NewMagicLinkHandler creates a new magic link handler
func NewMagicLinkHandler(logger *slog.Logger, linkService service.MagicLinkService) *MagicLinkHandler {
	return &MagicLinkHandler{
		linkService: linkService,
		logger:      logger,
	}
}

// Issue creates a new portal link over a set of open items
func (h *MagicLinkHandler) Issue(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}

	var req IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	itemIDs := make([]uuid.UUID, len(req.OpenItemIDs))
	for i, raw := range req.OpenItemIDs {
		itemIDs[i] = uuid.MustParse(raw)
	}

	in := service.IssueLinkInput{
		DealID:      uuid.MustParse(req.DealID),
		OpenItemIDs: itemIDs,
		ExpiresIn:   req.ExpiresInDays,
		ClientEmail: req.ClientEmail,
	}

	issued, err := h.linkService.Issue(c.Request.Context(), tc, in)
	if err != nil {
		h.respondLinkError(c, err)
		return
	}

	RespondCreated(c, mapIssuedLinkToResponse(issued))
}

// ListByDeal lists a deal's issued links
func (h *MagicLinkHandler) ListByDeal(c *gin.Context) {
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

	links, err := h.linkService.ListByDeal(c.Request.Context(), tc, dealID)
	if err != nil {
		h.respondLinkError(c, err)
		return
	}

	responses := make([]MagicLinkResponse, len(links))
	for i, link := range links {
		responses[i] = mapLinkToResponse(link, "")
	}
	RespondOK(c, responses)
}

func (h *MagicLinkHandler) tenant(c *gin.Context) (tenant.Context, bool) {
	tc, err := middleware.GetTenant(c)
	if err != nil {
		RespondUnauthorized(c, "")
		return tenant.Context{}, false
	}
	return tc, true
}

func (h *MagicLinkHandler) respondLinkError(c *gin.Context, err error) {
	var validationErr shared.ValidationError
	if errors.As(err, &validationErr) {
		RespondBadRequest(c, validationErr.Message)
		return
	}

	h.logger.Error("Magic link operation failed", "error", err)
	RespondInternalError(c)
}

// mapIssuedLinkToResponse maps a freshly issued link, including its portal URL
func mapIssuedLinkToResponse(issued *service.IssuedLink) MagicLinkResponse {
	return mapLinkToResponse(issued.Link, issued.PortalURL)
}

// mapLinkToResponse maps a magic link entity to its staff response DTO
func mapLinkToResponse(link *magiclink.MagicLink, portalURL string) MagicLinkResponse {
	scope := make([]string, len(link.Scope))
	for i, id := range link.Scope {
		scope[i] = id.String()
	}

	return MagicLinkResponse{
		ID:          link.ID.String(),
		DealID:      link.DealID.String(),
		Token:       link.Token,
		PortalURL:   portalURL,
		Scope:       scope,
		ClientEmail: link.ClientEmail,
		ExpiresAt:   link.ExpiresAt.Format(time.RFC3339),
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
	}
}
