package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acecpas/workbench/internal/api/handler"
	"github.com/acecpas/workbench/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application.
// Staff routes sit behind JWT auth; portal routes are anonymous and rely on
// the magic link token in the path.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	jwtSecret string,
	mappingHandler *handler.MappingHandler,
	openItemHandler *handler.OpenItemHandler,
	magicLinkHandler *handler.MagicLinkHandler,
	portalHandler *handler.PortalHandler,
) {
	// CorrelationID runs first so the logger and recovery middleware see the id
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// Staff API v1 endpoints
	v1 := r.Group("/api/v1")
	v1.Use(middleware.StaffAuth(jwtSecret))
	{
		// Reconciliation operations
		mappings := v1.Group("/mappings")
		{
			mappings.POST("", mappingHandler.Propose)
			mappings.POST("/bulk-approve", mappingHandler.BulkApprove)
			mappings.GET("/:id", mappingHandler.GetByID)
			mappings.GET("/:id/audit", mappingHandler.AuditTrail)
			mappings.POST("/:id/approve", mappingHandler.Approve)
			mappings.POST("/:id/reject", mappingHandler.Reject)
			mappings.POST("/:id/request-review", mappingHandler.RequestReview)
		}

		// Deal-scoped read views
		deals := v1.Group("/deals")
		{
			deals.GET("/:dealId/reconciliation", mappingHandler.Reconciliation)
			deals.GET("/:dealId/client-accounts", mappingHandler.ListClientAccounts)
			deals.GET("/:dealId/open-items", openItemHandler.ListByDeal)
			deals.GET("/:dealId/magic-links", magicLinkHandler.ListByDeal)
		}

		// Chart of accounts lookup for mapping proposals
		v1.GET("/master-accounts", mappingHandler.ListMasterAccounts)

		// Open item operations
		items := v1.Group("/open-items")
		{
			items.POST("", openItemHandler.Create)
			items.GET("/:id", openItemHandler.GetByID)
			items.PATCH("/:id", openItemHandler.Update)
			items.GET("/:id/files", openItemHandler.ListFiles)
			items.POST("/:id/resolve", openItemHandler.Resolve)
			items.POST("/:id/unresolve", openItemHandler.Unresolve)
		}

		// Magic link issuance
		v1.POST("/magic-links", magicLinkHandler.Issue)
	}

	// Anonymous client portal; the token in the path is the authorization
	portal := r.Group("/portal")
	{
		portal.GET("/:token", portalHandler.View)
		portal.POST("/:token/items/:itemId/response", portalHandler.SubmitResponse)
		portal.POST("/:token/items/:itemId/files", portalHandler.AttachFile)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
