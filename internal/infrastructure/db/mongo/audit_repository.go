package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clintrack/trial-registry/internal/core/domain"
)

const collectionAudit = "trial_audit"

// AuditRepository persists trial mutation entries to the audit collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type auditDoc struct {
	Action    string    `bson:"action"`
	RecordID  string    `bson:"record_id"`
	TrialID   string    `bson:"trial_id"`
	ActorID   string    `bson:"actor_id"`
	Timestamp time.Time `bson:"timestamp"`
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, auditDoc{
		Action:    string(entry.Action),
		RecordID:  entry.RecordID,
		TrialID:   entry.TrialID,
		ActorID:   entry.ActorID,
		Timestamp: entry.Timestamp,
	})
	return err
}
