package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acecpas/workbench/internal/config"
	"github.com/acecpas/workbench/internal/domain/magiclink"
	"github.com/acecpas/workbench/internal/domain/openitem"
	"github.com/acecpas/workbench/internal/domain/shared"
	"github.com/acecpas/workbench/internal/domain/tenant"
	"github.com/acecpas/workbench/internal/platform/messaging/producers"
)

// MagicLinkServiceImpl implements the MagicLinkService interface
type MagicLinkServiceImpl struct {
	logger   *slog.Logger
	linkRepo magiclink.Repository
	itemRepo openitem.Repository
	producer producers.MessagePublisher
	cfg      *config.PortalConfig
}

// NewMagicLinkService creates a new magic link service. producer may be nil
// when invite delivery is disabled.
func NewMagicLinkService(
	logger *slog.Logger,
	linkRepo magiclink.Repository,
	itemRepo openitem.Repository,
	producer producers.MessagePublisher,
	cfg *config.PortalConfig,
) MagicLinkService {
	return &MagicLinkServiceImpl{
		logger:   logger,
		linkRepo: linkRepo,
		itemRepo: itemRepo,
		producer: producer,
		cfg:      cfg,
	}
}

// Issue creates a link over the requested open items. The scope is pinned to
// the ids that actually resolve within the organization and deal; it never
// changes after this point regardless of later item edits.
func (s *MagicLinkServiceImpl) Issue(ctx context.Context, tc tenant.Context, in IssueLinkInput) (*IssuedLink, error) {
	if len(in.OpenItemIDs) == 0 {
		return nil, shared.NewValidationError("at least one open item id is required")
	}

	items, err := s.itemRepo.ListByIDs(ctx, tc.OrganizationID, in.OpenItemIDs)
	if err != nil {
		return nil, err
	}

	scope := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.DealID == in.DealID {
			scope = append(scope, item.ID)
		}
	}
	if len(scope) == 0 {
		return nil, shared.NewValidationError("no open items resolve within the deal")
	}

	expiresIn := in.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.cfg.LinkExpiryDays
	}

	link, err := magiclink.NewMagicLink(tc.OrganizationID, in.DealID, scope, expiresIn, in.ClientEmail, tc.ActorID)
	if err != nil {
		return nil, err
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.itemRepo.MarkSent(ctx, tc.OrganizationID, scope, now); err != nil {
		// The link is already live; delivery state catches up on the next issue
		s.logger.Warn("Failed to mark open items as sent",
			"link_id", link.ID.String(),
			"error", err,
		)
	}

	portalURL := s.portalURL(link.Token)

	if in.ClientEmail != nil && s.producer != nil {
		event := producers.PortalInviteEvent{
			LinkID:    link.ID,
			DealID:    link.DealID,
			Email:     *in.ClientEmail,
			PortalURL: portalURL,
			ExpiresAt: link.ExpiresAt,
			ItemCount: len(scope),
		}
		if err := s.producer.Publish(ctx, link.ID.String(), event); err != nil {
			// Invite delivery is best-effort; the staff user still gets the URL
			s.logger.Warn("Failed to publish portal invite event",
				"link_id", link.ID.String(),
				"error", err,
			)
		}
	}

	s.logger.Info("Issued magic link",
		"link_id", link.ID.String(),
		"deal_id", link.DealID.String(),
		"scope_size", len(scope),
		"expires_at", link.ExpiresAt,
	)

	return &IssuedLink{Link: link, PortalURL: portalURL}, nil
}

// ListByDeal lists the deal's issued links
func (s *MagicLinkServiceImpl) ListByDeal(ctx context.Context, tc tenant.Context, dealID uuid.UUID) ([]*magiclink.MagicLink, error) {
	return s.linkRepo.ListByDeal(ctx, tc.OrganizationID, dealID)
}

func (s *MagicLinkServiceImpl) portalURL(token string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + token
}
