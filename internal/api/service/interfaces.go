package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/data/mongo"
	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/domain/mapping"
	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/tenant"
)

// ProposeMappingInput carries a mapping proposal from a staff user or the
// classifier. A nil Confidence marks a manual mapping.
type ProposeMappingInput struct {
	DealID          uuid.UUID
	ClientAccountID uuid.UUID
	MasterAccountID uuid.UUID
	Confidence      *int
	Reasoning       *string
}

// ReconciliationRow pairs a client account with its mapping, if any, and the
// classification derived from the pair.
type ReconciliationRow struct {
	Account        *mapping.ClientAccount  `json:"account"`
	Mapping        *mapping.AccountMapping `json:"mapping,omitempty"`
	Classification mapping.Classification  `json:"classification"`
}

// ReconciliationView is the full reconciliation state of a deal: one row per
// client account plus aggregate counts. Both are recomputed on every call.
type ReconciliationView struct {
	Rows    []ReconciliationRow `json:"rows"`
	Summary mapping.Summary     `json:"summary"`
}

// BulkApproveResult reports the outcome of a bulk approval pass
type BulkApproveResult struct {
	Threshold int `json:"threshold"`
	Eligible  int `json:"eligible"`
	Approved  int `json:"approved"`
}

// MappingService defines the reconciliation engine operations
type MappingService interface {
	// ProposeOrUpdate creates a mapping for an unmapped client account or
	// overwrites the existing one. Either way the result is in needs-review
	// state. Returns ErrClientAccountNotFound or ErrMasterAccountNotFound
	// when a referenced account does not resolve within the organization.
	ProposeOrUpdate(ctx context.Context, tc tenant.Context, in ProposeMappingInput) (*mapping.AccountMapping, error)

	// GetByID retrieves a mapping. Returns ErrMappingNotFound when absent
	// or owned by another organization.
	GetByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error)

	// Approve, Reject, and RequestReview move a mapping across the approval
	// lattice. All three are valid from any current state.
	Approve(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error)
	Reject(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error)
	RequestReview(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error)

	// BulkApprove approves every non-green mapping in the deal whose
	// confidence meets the threshold. Individual failures are skipped, not
	// fatal; the result reports how many rows were actually approved.
	BulkApprove(ctx context.Context, tc tenant.Context, dealID uuid.UUID, threshold int) (*BulkApproveResult, error)

	// Reconciliation builds the per-deal reconciliation view
	Reconciliation(ctx context.Context, tc tenant.Context, dealID uuid.UUID) (*ReconciliationView, error)

	// ListClientAccounts lists the deal's extracted trial-balance accounts
	ListClientAccounts(ctx context.Context, tc tenant.Context, dealID uuid.UUID) ([]*mapping.ClientAccount, error)

	// ListMasterAccounts lists the organization's active chart of accounts
	ListMasterAccounts(ctx context.Context, tc tenant.Context) ([]*mapping.MasterAccount, error)

	// AuditTrail lists recorded lattice transitions for one mapping, newest first
	AuditTrail(ctx context.Context, tc tenant.Context, mappingID uuid.UUID, limit, offset int) ([]*mongo.AuditEvent, error)
}

// CreateOpenItemInput carries a new firm-authored question for a client
type CreateOpenItemInput struct {
	DealID    uuid.UUID
	Question  string
	Context   *string
	Priority  int
	AnomalyID *uuid.UUID
}

// UpdateOpenItemInput carries a staff edit; nil fields are left unchanged
type UpdateOpenItemInput struct {
	Question *string
	Context  *string
	Priority *int
}

// OpenItemService defines staff-side open item operations
type OpenItemService interface {
	Create(ctx context.Context, tc tenant.Context, in CreateOpenItemInput) (*openitem.OpenItem, error)
	GetByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error)
	ListByDeal(ctx context.Context, tc tenant.Context, dealID uuid.UUID) ([]*openitem.OpenItem, error)

	// Update edits the question, context, or priority of an existing item
	Update(ctx context.Context, tc tenant.Context, id uuid.UUID, in UpdateOpenItemInput) (*openitem.OpenItem, error)

	// Resolve and Unresolve toggle the resolution flag independently of the
	// delivery lifecycle.
	Resolve(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error)
	Unresolve(ctx context.Context, tc tenant.Context, id uuid.UUID) (*openitem.OpenItem, error)

	// ListFiles returns portal attachments uploaded against the item
	ListFiles(ctx context.Context, tc tenant.Context, id uuid.UUID) ([]*openitem.FileRecord, error)
}

// IssueLinkInput carries a magic link issuance request
type IssueLinkInput struct {
	DealID      uuid.UUID
	OpenItemIDs []uuid.UUID
	ExpiresIn   int // days; 0 means the configured default
	ClientEmail *string
}

// IssuedLink is a freshly created magic link plus its shareable URL
type IssuedLink struct {
	Link      *magiclink.MagicLink `json:"link"`
	PortalURL string               `json:"portal_url"`
}

// MagicLinkService defines staff-side magic link operations
type MagicLinkService interface {
	// Issue creates a link scoped to the given open items, marks pending
	// items as sent, and publishes an invite event when a client email is
	// present. Scope ids that do not resolve within the organization are
	// dropped; issuing fails only when none resolve.
	Issue(ctx context.Context, tc tenant.Context, in IssueLinkInput) (*IssuedLink, error)

	ListByDeal(ctx context.Context, tc tenant.Context, dealID uuid.UUID) ([]*magiclink.MagicLink, error)
}

// PortalItem is one open item as the anonymous client sees it. Internal
// fields (resolver identity, anomaly linkage) are not exposed.
type PortalItem struct {
	ID             uuid.UUID       `json:"id"`
	Question       string          `json:"question"`
	Context        *string         `json:"context,omitempty"`
	Priority       int             `json:"priority"`
	Status         openitem.Status `json:"status"`
	ClientResponse *string         `json:"client_response,omitempty"`
	RespondedAt    *time.Time      `json:"responded_at,omitempty"`
}

// PortalView is what a valid token resolves to: the in-scope items and the
// link's expiry, nothing else about the organization.
type PortalView struct {
	DealID    uuid.UUID    `json:"deal_id"`
	ExpiresAt time.Time    `json:"expires_at"`
	Items     []PortalItem `json:"items"`
}

// AttachFileInput carries a portal file upload
type AttachFileInput struct {
	OpenItemID  uuid.UUID
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// PortalService defines the anonymous portal operations. Every method takes
// the raw token and validates it; there is no session state between calls.
type PortalService interface {
	// Validate resolves a token into a session. Returns ErrLinkNotFound for
	// unknown tokens and ErrLinkExpired for known-but-expired ones.
	Validate(ctx context.Context, token string) (*magiclink.PortalSession, error)

	// View validates the token and loads the in-scope open items
	View(ctx context.Context, token string) (*PortalView, error)

	// SubmitResponse validates the token, checks scope membership, and
	// stores the answer. Re-submitting overwrites the previous answer.
	SubmitResponse(ctx context.Context, token string, itemID uuid.UUID, text string) (*PortalItem, error)

	// AttachFile validates the token and scope, then stores the upload and
	// its metadata record.
	AttachFile(ctx context.Context, token string, in AttachFileInput) (*openitem.FileRecord, error)
}
