package mapping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientAccount is a distinct account string found in a client's uploaded
// ledger, scoped to one deal. Rows are created by file ingestion and are
// immutable here apart from aggregate counters.
type ClientAccount struct {
	ID               uuid.UUID       `json:"id"`
	OrganizationID   uuid.UUID       `json:"organization_id"`
	DealID           uuid.UUID       `json:"deal_id"`
	OriginalText     string          `json:"original_text"`
	AccountNumber    *string         `json:"account_number,omitempty"`
	AccountName      *string         `json:"account_name,omitempty"`
	VendorName       *string         `json:"vendor_name,omitempty"`
	Description      *string         `json:"description,omitempty"`
	TransactionCount int             `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"` // signed
	CreatedAt        time.Time       `json:"created_at"`
}

// MasterAccount is one row of the organization-wide chart of accounts.
// Read-only from the reconciliation engine's perspective.
type MasterAccount struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Category       string    `json:"category"`
	Subcategory    *string   `json:"subcategory,omitempty"`
	IsActive       bool      `json:"is_active"`
	DisplayOrder   int       `json:"display_order"`
}
