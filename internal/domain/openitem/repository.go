package openitem

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines open item persistence operations. All reads and writes
// are organization-scoped; the portal path supplies the organization id from
// the validated magic link, never from the anonymous caller.
type Repository interface {
	Create(ctx context.Context, item *OpenItem) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*OpenItem, error)
	ListByDeal(ctx context.Context, orgID, dealID uuid.UUID) ([]*OpenItem, error)

	// ListByIDs returns the items from ids that still resolve within the
	// organization; missing ids are silently skipped.
	ListByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*OpenItem, error)

	Update(ctx context.Context, item *OpenItem) error

	// UpdateResponse stores the client answer as a single-row update setting
	// response text, responded status, and response timestamp together.
	UpdateResponse(ctx context.Context, orgID, id uuid.UUID, text string, respondedAt time.Time) (*OpenItem, error)

	// MarkSent advances any pending items among ids to sent
	MarkSent(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, now time.Time) error
}

// FileRecord is a stored portal attachment for an open item
type FileRecord struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	DealID         uuid.UUID `json:"deal_id"`
	OpenItemID     uuid.UUID `json:"open_item_id"`
	FileName       string    `json:"file_name"`
	ContentType    string    `json:"content_type"`
	SizeBytes      int64     `json:"size_bytes"`
	StoragePath    string    `json:"storage_path"`
	URL            string    `json:"url"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// FileRepository persists portal attachment records
type FileRepository interface {
	Create(ctx context.Context, record *FileRecord) error
	ListByOpenItem(ctx context.Context, orgID, openItemID uuid.UUID) ([]*FileRecord, error)
}

// ErrOpenItemNotFound indicates a missing open item, or one owned by a
// different organization (deliberately indistinguishable).
type ErrOpenItemNotFound struct {
	OpenItemID uuid.UUID
}

func (e ErrOpenItemNotFound) Error() string {
	return "open item not found: " + e.OpenItemID.String()
}

// Is implements the errors.Is interface for ErrOpenItemNotFound
func (e ErrOpenItemNotFound) Is(target error) bool {
	t, ok := target.(ErrOpenItemNotFound)
	if !ok {
		return false
	}
	if t.OpenItemID == uuid.Nil {
		return true
	}
	return e.OpenItemID == t.OpenItemID
}
