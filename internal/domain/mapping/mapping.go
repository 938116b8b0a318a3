package mapping

import (
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/domain/shared"
)

// ApprovalStatus is the persisted state of a mapping on the approval lattice.
// The three states are freely reachable from each other; no transition is a
// dead end except by policy at call sites.
type ApprovalStatus string

const (
	StatusRed    ApprovalStatus = "red"    // unmapped / rejected
	StatusYellow ApprovalStatus = "yellow" // needs review
	StatusGreen  ApprovalStatus = "green"  // approved
)

// Classification is the read-side label derived from ApprovalStatus. It is
// never stored; deriving it on every read keeps a single source of truth.
type Classification string

const (
	ClassificationAutoApproved Classification = "auto_approved"
	ClassificationNeedsReview  Classification = "needs_review"
	ClassificationUnmapped     Classification = "unmapped"
)

// ManualConfidence is assigned when a human proposes a mapping without an
// explicit score: full confidence in the match, pending review of the decision.
const ManualConfidence = 100

// AccountMapping links exactly one client account to at most one master
// account. At most one row exists per client account; proposing a mapping for
// an already-mapped account overwrites the existing row.
type AccountMapping struct {
	ID              uuid.UUID      `json:"id"`
	OrganizationID  uuid.UUID      `json:"organization_id"`
	DealID          uuid.UUID      `json:"deal_id"`
	ClientAccountID uuid.UUID      `json:"client_account_id"`
	MasterAccountID uuid.UUID      `json:"master_account_id"`
	ConfidenceScore int            `json:"confidence_score"` // 0-100, advisory only
	ApprovalStatus  ApprovalStatus `json:"approval_status"`
	AIReasoning     *string        `json:"ai_reasoning,omitempty"` // opaque classifier output
	ApprovedBy      *uuid.UUID     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time     `json:"approved_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewProposal creates a mapping proposal in needs-review state. A nil
// confidence means a manual mapping and defaults to ManualConfidence.
func NewProposal(orgID, dealID, clientAccountID, masterAccountID uuid.UUID, confidence *int, reasoning *string) (*AccountMapping, error) {
	if dealID == uuid.Nil {
		return nil, shared.NewValidationError("deal id is required")
	}
	if clientAccountID == uuid.Nil {
		return nil, shared.NewValidationError("client account id is required")
	}
	if masterAccountID == uuid.Nil {
		return nil, shared.NewValidationError("master account id is required")
	}

	score := ManualConfidence
	if confidence != nil {
		score = *confidence
	}
	if score < 0 || score > 100 {
		return nil, shared.NewValidationError("confidence score must be between 0 and 100")
	}

	now := time.Now()
	return &AccountMapping{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		DealID:          dealID,
		ClientAccountID: clientAccountID,
		MasterAccountID: masterAccountID,
		ConfidenceScore: score,
		ApprovalStatus:  StatusYellow,
		AIReasoning:     reasoning,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Approve moves the mapping to green and stamps the approver identity and time
func (m *AccountMapping) Approve(actorID uuid.UUID, now time.Time) {
	m.ApprovalStatus = StatusGreen
	m.ApprovedBy = &actorID
	m.ApprovedAt = &now
	m.UpdatedAt = now
}

// Reject moves the mapping to red and clears any prior approval stamp
func (m *AccountMapping) Reject(now time.Time) {
	m.ApprovalStatus = StatusRed
	m.ApprovedBy = nil
	m.ApprovedAt = nil
	m.UpdatedAt = now
}

// RequestReview moves the mapping back to yellow and clears any prior approval stamp
func (m *AccountMapping) RequestReview(now time.Time) {
	m.ApprovalStatus = StatusYellow
	m.ApprovedBy = nil
	m.ApprovedAt = nil
	m.UpdatedAt = now
}

// Retarget points the mapping at a different master account. Any re-mapping,
// even of an approved row, re-enters review: status is forced to yellow and
// the approval stamp is cleared.
func (m *AccountMapping) Retarget(masterAccountID uuid.UUID, confidence *int, reasoning *string, now time.Time) error {
	if masterAccountID == uuid.Nil {
		return shared.NewValidationError("master account id is required")
	}
	score := ManualConfidence
	if confidence != nil {
		score = *confidence
	}
	if score < 0 || score > 100 {
		return shared.NewValidationError("confidence score must be between 0 and 100")
	}

	m.MasterAccountID = masterAccountID
	m.ConfidenceScore = score
	m.AIReasoning = reasoning
	m.ApprovalStatus = StatusYellow
	m.ApprovedBy = nil
	m.ApprovedAt = nil
	m.UpdatedAt = now
	return nil
}

// Classify derives the read-side label from the persisted approval status.
// Confidence plays no part here: the label reflects what a human decided,
// not what a machine suggested.
func Classify(status ApprovalStatus) Classification {
	switch status {
	case StatusGreen:
		return ClassificationAutoApproved
	case StatusYellow:
		return ClassificationNeedsReview
	default:
		return ClassificationUnmapped
	}
}

// ClassifyMapping classifies a possibly-absent mapping row
func ClassifyMapping(m *AccountMapping) Classification {
	if m == nil {
		return ClassificationUnmapped
	}
	return Classify(m.ApprovalStatus)
}

// Summary holds per-deal reconciliation counts. It is a read-side projection
// recomputed from mapping rows on every request, never a stored counter.
type Summary struct {
	Total        int `json:"total"`
	AutoApproved int `json:"auto_approved"`
	NeedsReview  int `json:"needs_review"`
	Unmapped     int `json:"unmapped"`
}

// Summarize classifies one mapping (or its absence) per client account.
// mappingsByAccount may omit accounts that have no mapping row yet.
func Summarize(accountIDs []uuid.UUID, mappingsByAccount map[uuid.UUID]*AccountMapping) Summary {
	s := Summary{Total: len(accountIDs)}
	for _, id := range accountIDs {
		switch ClassifyMapping(mappingsByAccount[id]) {
		case ClassificationAutoApproved:
			s.AutoApproved++
		case ClassificationNeedsReview:
			s.NeedsReview++
		default:
			s.Unmapped++
		}
	}
	return s
}
