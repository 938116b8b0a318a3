package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/data/mongo"
	"github.com/acecpas/workbench/internal/domain/mapping"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/domain/tenant"
)

// MappingServiceImpl implements the MappingService interface
type MappingServiceImpl struct {
	logger         *slog.Logger
	mappingRepo    mapping.Repository
	clientAccounts mapping.ClientAccountRepository
	masterAccounts mapping.MasterAccountRepository
	auditRepo      mongo.AuditRepository
	approver       *BulkApprover
}

// NewMappingService creates a new mapping service
func NewMappingService(
	logger *slog.Logger,
	mappingRepo mapping.Repository,
	clientAccounts mapping.ClientAccountRepository,
	masterAccounts mapping.MasterAccountRepository,
	auditRepo mongo.AuditRepository,
	approver *BulkApprover,
) MappingService {
	return &MappingServiceImpl{
		logger:         logger,
		mappingRepo:    mappingRepo,
		clientAccounts: clientAccounts,
		masterAccounts: masterAccounts,
		auditRepo:      auditRepo,
		approver:       approver,
	}
}

// ProposeOrUpdate creates or overwrites the mapping for a client account.
// Both referenced accounts must resolve within the caller's organization
// before anything is written.
func (s *MappingServiceImpl) ProposeOrUpdate(ctx context.Context, tc tenant.Context, in ProposeMappingInput) (*mapping.AccountMapping, error) {
	account, err := s.clientAccounts.GetByID(ctx, tc.OrganizationID, in.ClientAccountID)
	if err != nil {
		return nil, err
	}
	if account.DealID != in.DealID {
		return nil, shared.NewValidationError("client account does not belong to the deal")
	}

	if _, err := s.masterAccounts.GetByID(ctx, tc.OrganizationID, in.MasterAccountID); err != nil {
		return nil, err
	}

	proposal, err := mapping.NewProposal(tc.OrganizationID, in.DealID, in.ClientAccountID, in.MasterAccountID, in.Confidence, in.Reasoning)
	if err != nil {
		return nil, err
	}

	stored, err := s.mappingRepo.Upsert(ctx, proposal)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, stored, "propose", "", tc.ActorID, nil)
	return stored, nil
}

// GetByID retrieves a mapping within the caller's organization
func (s *MappingServiceImpl) GetByID(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error) {
	return s.mappingRepo.GetByID(ctx, tc.OrganizationID, id)
}

// Approve moves a mapping to green
func (s *MappingServiceImpl) Approve(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error) {
	return s.transition(ctx, tc, id, "approve", func(m *mapping.AccountMapping, now time.Time) {
		m.Approve(tc.ActorID, now)
	})
}

// Reject moves a mapping to red
func (s *MappingServiceImpl) Reject(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error) {
	return s.transition(ctx, tc, id, "reject", func(m *mapping.AccountMapping, now time.Time) {
		m.Reject(now)
	})
}

// RequestReview moves a mapping back to yellow
func (s *MappingServiceImpl) RequestReview(ctx context.Context, tc tenant.Context, id uuid.UUID) (*mapping.AccountMapping, error) {
	return s.transition(ctx, tc, id, "request_review", func(m *mapping.AccountMapping, now time.Time) {
		m.RequestReview(now)
	})
}

func (s *MappingServiceImpl) transition(ctx context.Context, tc tenant.Context, id uuid.UUID, action string, apply func(*mapping.AccountMapping, time.Time)) (*mapping.AccountMapping, error) {
	m, err := s.mappingRepo.GetByID(ctx, tc.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	from := m.ApprovalStatus
	apply(m, time.Now())

	if err := s.mappingRepo.UpdateStatus(ctx, m); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, m, action, from, tc.ActorID, nil)
	return m, nil
}

// BulkApprove approves every mapping in the deal at or above the threshold
// that is not already green. Each row is approved with a conditional update
// so rows edited mid-pass are skipped rather than clobbered.
func (s *MappingServiceImpl) BulkApprove(ctx context.Context, tc tenant.Context, dealID uuid.UUID, threshold int) (*BulkApproveResult, error) {
	if threshold < 0 {
		return nil, shared.NewValidationError("threshold must not be negative")
	}

	ids, err := s.mappingRepo.ListBulkApprovable(ctx, tc.OrganizationID, dealID, threshold)
	if err != nil {
		return nil, err
	}

	approved := s.approver.Run(ctx, ids, func(ctx context.Context, id uuid.UUID) (bool, error) {
		ok, err := s.mappingRepo.ApproveIfEligible(ctx, tc.OrganizationID, id, threshold, tc.ActorID)
		if err != nil || !ok {
			return ok, err
		}

		t := threshold
		s.recordAudit(ctx, &mapping.AccountMapping{
			ID:             id,
			OrganizationID: tc.OrganizationID,
			DealID:         dealID,
			ApprovalStatus: mapping.StatusGreen,
		}, "bulk_approve", "", tc.ActorID, &t)
		return true, nil
	})

	s.logger.Info("Bulk approval pass finished",
		"deal_id", dealID.String(),
		"threshold", threshold,
		"eligible", len(ids),
		"approved", approved,
	)

	return &BulkApproveResult{
		Threshold: threshold,
		Eligible:  len(ids),
		Approved:  approved,
	}, nil
}

// Reconciliation recomputes the deal's reconciliation view from the current
// client account and mapping rows.
func (s *MappingServiceImpl) Reconciliation(ctx context.Context, tc tenant.Context, dealID uuid.UUID) (*ReconciliationView, error) {
	accounts, err := s.clientAccounts.ListByDeal(ctx, tc.OrganizationID, dealID)
	if err != nil {
		return nil, err
	}

	mappings, err := s.mappingRepo.ListByDeal(ctx, tc.OrganizationID, dealID)
	if err != nil {
		return nil, err
	}

	byAccount := make(map[uuid.UUID]*mapping.AccountMapping, len(mappings))
	for _, m := range mappings {
		byAccount[m.ClientAccountID] = m
	}

	accountIDs := make([]uuid.UUID, len(accounts))
	rows := make([]ReconciliationRow, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
		m := byAccount[a.ID]
		rows[i] = ReconciliationRow{
			Account:        a,
			Mapping:        m,
			Classification: mapping.ClassifyMapping(m),
		}
	}

	return &ReconciliationView{
		Rows:    rows,
		Summary: mapping.Summarize(accountIDs, byAccount),
	}, nil
}

// ListClientAccounts lists the deal's extracted trial-balance accounts
func (s *MappingServiceImpl) ListClientAccounts(ctx context.Context, tc tenant.Context, dealID uuid.UUID) ([]*mapping.ClientAccount, error) {
	return s.clientAccounts.ListByDeal(ctx, tc.OrganizationID, dealID)
}

// ListMasterAccounts lists the organization's active chart of accounts
func (s *MappingServiceImpl) ListMasterAccounts(ctx context.Context, tc tenant.Context) ([]*mapping.MasterAccount, error) {
	return s.masterAccounts.ListActive(ctx, tc.OrganizationID)
}

// AuditTrail lists recorded transitions for one mapping, newest first
func (s *MappingServiceImpl) AuditTrail(ctx context.Context, tc tenant.Context, mappingID uuid.UUID, limit, offset int) ([]*mongo.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.auditRepo.ListByMapping(ctx, tc.OrganizationID, mappingID, limit, offset)
}

// recordAudit appends one trail event. The trail is evidence, not state:
// a failed write is logged and the operation proceeds.
func (s *MappingServiceImpl) recordAudit(ctx context.Context, m *mapping.AccountMapping, action string, from mapping.ApprovalStatus, actorID uuid.UUID, threshold *int) {
	event := &mongo.AuditEvent{
		ID:             uuid.New(),
		OrganizationID: m.OrganizationID,
		DealID:         m.DealID,
		MappingID:      m.ID,
		Action:         action,
		FromStatus:     from,
		ToStatus:       m.ApprovalStatus,
		ActorID:        actorID,
		Threshold:      threshold,
		OccurredAt:     time.Now(),
	}

	if err := s.auditRepo.Record(ctx, event); err != nil {
		s.logger.Warn("Failed to record audit event",
			"mapping_id", m.ID.String(),
			"action", action,
			"error", err,
		)
	}
}
