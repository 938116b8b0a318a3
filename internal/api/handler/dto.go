package handler

// ProposeMappingRequest represents a request to map a client account to a
// master account. Confidence is omitted for manual mappings.
type ProposeMappingRequest struct {
	DealID          string  `json:"deal_id" binding:"required,uuid"`
	ClientAccountID string  `json:"client_account_id" binding:"required,uuid"`
	MasterAccountID string  `json:"master_account_id" binding:"required,uuid"`
	Confidence      *int    `json:"confidence,omitempty" binding:"omitempty,min=0,max=100"`
	Reasoning       *string `json:"reasoning,omitempty"`
}

// BulkApproveRequest represents a request to approve all sufficiently
// confident mappings in a deal. A missing threshold uses the configured
// default.
type BulkApproveRequest struct {
	DealID    string `json:"deal_id" binding:"required,uuid"`
	Threshold *int   `json:"threshold,omitempty" binding:"omitempty,min=0"`
}

// MappingResponse represents an account mapping in API responses
type MappingResponse struct {
	ID              string  `json:"id"`
	DealID          string  `json:"deal_id"`
	ClientAccountID string  `json:"client_account_id"`
	MasterAccountID string  `json:"master_account_id"`
	ConfidenceScore int     `json:"confidence_score"`
	ApprovalStatus  string  `json:"approval_status"`
	Classification  string  `json:"classification"`
	AIReasoning     *string `json:"ai_reasoning,omitempty"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// CreateOpenItemRequest represents a request to create an open item
type CreateOpenItemRequest struct {
	DealID    string  `json:"deal_id" binding:"required,uuid"`
	Question  string  `json:"question" binding:"required"`
	Context   *string `json:"context,omitempty"`
	Priority  int     `json:"priority" binding:"min=0,max=10"`
	AnomalyID *string `json:"anomaly_id,omitempty" binding:"omitempty,uuid"`
}

// UpdateOpenItemRequest represents a staff edit of an open item. Omitted
// fields are left unchanged.
type UpdateOpenItemRequest struct {
	Question *string `json:"question,omitempty"`
	Context  *string `json:"context,omitempty"`
	Priority *int    `json:"priority,omitempty" binding:"omitempty,min=0,max=10"`
}

// OpenItemResponse represents an open item in staff API responses
type OpenItemResponse struct {
	ID             string  `json:"id"`
	DealID         string  `json:"deal_id"`
	AnomalyID      *string `json:"anomaly_id,omitempty"`
	Question       string  `json:"question"`
	Context        *string `json:"context,omitempty"`
	Priority       int     `json:"priority"`
	Status         string  `json:"status"`
	IsResolved     bool    `json:"is_resolved"`
	ResolvedBy     *string `json:"resolved_by,omitempty"`
	ResolvedAt     *string `json:"resolved_at,omitempty"`
	ClientResponse *string `json:"client_response,omitempty"`
	RespondedAt    *string `json:"responded_at,omitempty"`
	CreatedBy      string  `json:"created_by"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// FileRecordResponse represents a portal attachment in API responses
type FileRecordResponse struct {
	ID          string `json:"id"`
	OpenItemID  string `json:"open_item_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	URL         string `json:"url"`
	UploadedAt  string `json:"uploaded_at"`
}

// IssueLinkRequest represents a request to issue a portal magic link
type IssueLinkRequest struct {
	DealID        string   `json:"deal_id" binding:"required,uuid"`
	OpenItemIDs   []string `json:"open_item_ids" binding:"required,min=1,dive,uuid"`
	ExpiresInDays int      `json:"expires_in_days" binding:"min=0"`
	ClientEmail   *string  `json:"client_email,omitempty" binding:"omitempty,email"`
}

// MagicLinkResponse represents an issued magic link in staff API responses
type MagicLinkResponse struct {
	ID          string   `json:"id"`
	DealID      string   `json:"deal_id"`
	Token       string   `json:"token"`
	PortalURL   string   `json:"portal_url,omitempty"`
	Scope       []string `json:"scope"`
	ClientEmail *string  `json:"client_email,omitempty"`
	ExpiresAt   string   `json:"expires_at"`
	CreatedAt   string   `json:"created_at"`
}

// SubmitResponseRequest represents a portal answer to an open item
type SubmitResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=50" binding:"min=1,max=200"`
}
