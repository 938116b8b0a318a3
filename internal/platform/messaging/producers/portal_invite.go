package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/acecpas/workbench/internal/config"
)

// PortalInviteEvent is published after a magic link is created for a client
// email. Delivery is best-effort: the link exists and can be shared manually
// whether or not this event is ever consumed.
type PortalInviteEvent struct {
	LinkID    uuid.UUID `json:"link_id"`
	DealID    uuid.UUID `json:"deal_id"`
	Email     string    `json:"email"`
	PortalURL string    `json:"portal_url"`
	ExpiresAt time.Time `json:"expires_at"`
	ItemCount int       `json:"item_count"`
}

// PortalInviteProducer publishes portal invite events to Kafka
type PortalInviteProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewPortalInviteProducer creates the invite producer and ensures the topic exists
func NewPortalInviteProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PortalInviteProducer, error) {
	if cfg.InviteTopic == "" {
		return nil, fmt.Errorf("kafka invite topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for invite producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.InviteTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure invite topic %s exists: %w", cfg.InviteTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.InviteTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Invite delivery is fire-and-forget
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write invite messages asynchronously", "topic", cfg.InviteTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote invite messages asynchronously", "topic", cfg.InviteTopic, "count", len(messages))
			}
		},
	}

	return &PortalInviteProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.InviteTopic,
	}, nil
}

// Publish sends one invite event keyed by the link id
func (p *PortalInviteProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal invite event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish invite event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish invite event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published invite event", "topic", p.topic, "key", key)
	return nil
}

// Close flushes and closes the underlying writer
func (p *PortalInviteProducer) Close() error {
	p.logger.Info("Closing portal invite producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close invite kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
