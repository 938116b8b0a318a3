// Package mongo stores the mapping approval audit trail: one append-only
// document per lattice transition. The trail is evidence for reviewers, not
// an input to any decision, so writes are best-effort at call sites.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acecpas/workbench/internal/domain/mapping"
)

const (
	// AuditCollectionName is the name of the audit trail collection in MongoDB
	AuditCollectionName = "mapping_audit_events"
)

// AuditEvent records one approval-lattice transition
type AuditEvent struct {
	ID             uuid.UUID              `json:"id" bson:"id"`
	OrganizationID uuid.UUID              `json:"organization_id" bson:"organization_id"`
	DealID         uuid.UUID              `json:"deal_id" bson:"deal_id"`
	MappingID      uuid.UUID              `json:"mapping_id" bson:"mapping_id"`
	Action         string                 `json:"action" bson:"action"` // propose | approve | reject | request_review | bulk_approve
	FromStatus     mapping.ApprovalStatus `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus       mapping.ApprovalStatus `json:"to_status" bson:"to_status"`
	ActorID        uuid.UUID              `json:"actor_id" bson:"actor_id"`
	Threshold      *int                   `json:"threshold,omitempty" bson:"threshold,omitempty"` // set on bulk approvals
	OccurredAt     time.Time              `json:"occurred_at" bson:"occurred_at"`
}

// AuditRepository defines audit trail persistence operations
type AuditRepository interface {
	Record(ctx context.Context, event *AuditEvent) error
	ListByMapping(ctx context.Context, orgID, mappingID uuid.UUID, limit, offset int) ([]*AuditEvent, error)
	ListByDeal(ctx context.Context, orgID, dealID uuid.UUID, limit, offset int) ([]*AuditEvent, error)
}

// MongoAuditRepository implements AuditRepository for MongoDB
type MongoAuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit trail repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) AuditRepository {
	return &MongoAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends one audit event. Events are never updated or deleted.
func (r *MongoAuditRepository) Record(ctx context.Context, event *AuditEvent) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to record audit event",
			"mapping_id", event.MappingID.String(),
			"action", event.Action,
			"error", err)
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// ListByMapping retrieves paginated audit events for one mapping, newest first
func (r *MongoAuditRepository) ListByMapping(ctx context.Context, orgID, mappingID uuid.UUID, limit, offset int) ([]*AuditEvent, error) {
	filter := bson.M{"organization_id": orgID, "mapping_id": mappingID}
	return r.find(ctx, filter, limit, offset)
}

// ListByDeal retrieves paginated audit events for a whole deal, newest first
func (r *MongoAuditRepository) ListByDeal(ctx context.Context, orgID, dealID uuid.UUID, limit, offset int) ([]*AuditEvent, error) {
	filter := bson.M{"organization_id": orgID, "deal_id": dealID}
	return r.find(ctx, filter, limit, offset)
}

func (r *MongoAuditRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*AuditEvent, error) {
	collection := r.db.Collection(AuditCollectionName)

	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to query audit events", "error", err)
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events", "error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}
