package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/api/service"
	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/shared"
)

// PortalHandler handles the anonymous client portal. There is no session:
// every request carries the magic link token in the path and is validated
// from scratch.
type PortalHandler struct {
	portalService service.PortalService
	logger        *slog.Logger
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(logger *slog.Logger, portalService service.PortalService) *PortalHandler {
	return &PortalHandler{
		portalService: portalService,
		logger:        logger,
	}
}

// View validates the token and returns the in-scope open items
func (h *PortalHandler) View(c *gin.Context) {
	view, err := h.portalService.View(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondPortalError(c, err)
		return
	}

	RespondOK(c, view)
}

// SubmitResponse stores a client's answer to an in-scope open item
func (h *PortalHandler) SubmitResponse(c *gin.Context) {
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.portalService.SubmitResponse(c.Request.Context(), c.Param("token"), itemID, req.Response)
	if err != nil {
		h.respondPortalError(c, err)
		return
	}

	RespondOK(c, item)
}

// AttachFile stores a multipart file upload against an in-scope open item
func (h *PortalHandler) AttachFile(c *gin.Context) {
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondBadRequest(c, "A file upload is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		RespondInternalError(c)
		return
	}
	defer file.Close()

	in := service.AttachFileInput{
		OpenItemID:  itemID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		Body:        file,
	}

	record, err := h.portalService.AttachFile(c.Request.Context(), c.Param("token"), in)
	if err != nil {
		h.respondPortalError(c, err)
		return
	}

	RespondCreated(c, mapFileRecordToResponse(record))
}

func (h *PortalHandler) itemID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("itemId")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid open item ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *PortalHandler) respondPortalError(c *gin.Context, err error) {
	var validationErr shared.ValidationError
	if errors.As(err, &validationErr) {
		RespondBadRequest(c, validationErr.Message)
		return
	}
	if errors.Is(err, magiclink.ErrLinkNotFound{}) {
		RespondNotFound(c, "This link is not valid")
		return
	}
	if errors.Is(err, magiclink.ErrLinkExpired{}) {
		RespondGone(c, "This link has expired; please request a new one")
		return
	}
	if errors.Is(err, magiclink.ErrItemNotInScope{}) {
		RespondForbidden(c, "This item is not accessible with this link")
		return
	}
	if errors.Is(err, openitem.ErrOpenItemNotFound{}) {
		RespondNotFound(c, "Open item not found")
		return
	}
	if errors.Is(err, service.ErrFileTooLarge) {
		RespondPayloadTooLarge(c, "File exceeds the maximum allowed size")
		return
	}
	if errors.Is(err, service.ErrContentTypeNotAllowed) {
		RespondUnsupportedMediaType(c, "File type is not allowed")
		return
	}

	h.logger.Error("Portal operation failed", "error", err)
	RespondInternalError(c)
}
