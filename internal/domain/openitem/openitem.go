package openitem

import (
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/domain/shared"
)

// Status is the delivery lifecycle of an open item. Resolution is tracked
// independently: an item can be resolved at any point in the lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusResponded Status = "responded"
)

// OpenItem is a firm-authored question to a client, scoped to a deal and
// optionally linked to a detected anomaly.
type OpenItem struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	DealID         uuid.UUID  `json:"deal_id"`
	AnomalyID      *uuid.UUID `json:"anomaly_id,omitempty"`
	Question       string     `json:"question"`
	Context        *string    `json:"context,omitempty"`
	Priority       int        `json:"priority"`
	Status         Status     `json:"status"`
	IsResolved     bool       `json:"is_resolved"`
	ResolvedBy     *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ClientResponse *string    `json:"client_response,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewOpenItem creates a pending open item
func NewOpenItem(orgID, dealID, createdBy uuid.UUID, question string, contextText *string, priority int, anomalyID *uuid.UUID) (*OpenItem, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewValidationError("deal id is required")
	}
	if question == "" {
		return nil, shared.NewValidationError("question is required")
	}

	now := time.Now()
	return &OpenItem{
		ID:             uuid.New(),
		OrganizationID: orgID,
		DealID:         dealID,
		AnomalyID:      anomalyID,
		Question:       question,
		Context:        contextText,
		Priority:       priority,
		Status:         StatusPending,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Edit updates the staff-authored fields. A nil field keeps its current
// value; a question, once set, cannot be blanked out.
func (i *OpenItem) Edit(question, contextText *string, priority *int, now time.Time) error {
	if question != nil {
		if *question == "" {
			return shared.NewValidationError("question is required")
		}
		i.Question = *question
	}
	if contextText != nil {
		i.Context = contextText
	}
	if priority != nil {
		i.Priority = *priority
	}
	i.UpdatedAt = now
	return nil
}

// Resolve marks the item resolved and stamps the resolver
func (i *OpenItem) Resolve(actorID uuid.UUID, now time.Time) {
	i.IsResolved = true
	i.ResolvedBy = &actorID
	i.ResolvedAt = &now
	i.UpdatedAt = now
}

// Unresolve reopens the item and clears the resolver stamp
func (i *OpenItem) Unresolve(now time.Time) {
	i.IsResolved = false
	i.ResolvedBy = nil
	i.ResolvedAt = nil
	i.UpdatedAt = now
}

// RecordResponse stores the client's answer. Re-submitting overwrites the
// previous answer rather than appending, so retries are idempotent.
func (i *OpenItem) RecordResponse(text string, now time.Time) error {
	if text == "" {
		return shared.NewValidationError("response text is required")
	}
	i.ClientResponse = &text
	i.Status = StatusResponded
	i.RespondedAt = &now
	i.UpdatedAt = now
	return nil
}

// MarkSent advances a pending item to sent. Items already sent or responded
// keep their state.
func (i *OpenItem) MarkSent(now time.Time) {
	if i.Status == StatusPending {
		i.Status = StatusSent
		i.UpdatedAt = now
	}
}
