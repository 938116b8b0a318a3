package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/acecpas/workbench/internal/platform/messaging/producers"
)

// InviteEventHandler handles incoming portal invite messages from Kafka
type InviteEventHandler struct {
	sender EmailSender
	logger *slog.Logger
}

// NewInviteEventHandler creates a new handler
func NewInviteEventHandler(logger *slog.Logger, sender EmailSender) *InviteEventHandler {
	return &InviteEventHandler{
		sender: sender,
		logger: logger,
	}
}

// HandleMessage processes one invite event. Malformed messages are dropped
// after logging; a delivery failure is returned so the offset stays
// uncommitted and the message is retried.
func (h *InviteEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event producers.PortalInviteEvent
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to unmarshal portal invite event, dropping message",
			"error", err,
			"message_key", string(key),
		)
		// Unparseable messages never become parseable; commit and move on
		return nil
	}

	if event.Email == "" || event.PortalURL == "" {
		h.logger.Error("Portal invite event missing email or URL, dropping message",
			"link_id", event.LinkID.String(),
		)
		return nil
	}

	if time.Now().After(event.ExpiresAt) {
		// A retried invite can outlive its link; sending it would only confuse
		h.logger.Warn("Portal invite event for an already-expired link, dropping message",
			"link_id", event.LinkID.String(),
			"expires_at", event.ExpiresAt,
		)
		return nil
	}

	h.logger.Info("Delivering portal invite",
		"link_id", event.LinkID.String(),
		"deal_id", event.DealID.String(),
		"item_count", event.ItemCount,
	)

	if err := h.sender.SendInvite(ctx, event.Email, event.PortalURL, event.ExpiresAt, event.ItemCount); err != nil {
		h.logger.Error("Failed to deliver portal invite",
			"link_id", event.LinkID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to deliver invite for link %s: %w", event.LinkID, err)
	}

	return nil
}
