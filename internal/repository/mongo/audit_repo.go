package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/repository"
)

const auditCollectionName = "audit_log"

// mongoAuditRepository implements repository.AuditRepository. The collection
// is append-only: this type exposes no update or delete operations.
type mongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository creates a new audit-log repository.
func NewMongoAuditRepository(db *mongo.Database) repository.AuditRepository {
	return &mongoAuditRepository{
		collection: db.Collection(auditCollectionName),
	}
}

// Append inserts one audit entry.
func (r *mongoAuditRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	if entry.ActorID == primitive.NilObjectID || entry.Action == "" {
		return errors.New("audit entry requires actorId and action")
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// ListByActorSince retrieves an actor's entries created on or after `since`,
// newest first.
func (r *mongoAuditRepository) ListByActorSince(ctx context.Context, actorID primitive.ObjectID, since time.Time) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	filter := bson.M{"actorId": actorID, "createdAt": bson.M{"$gte": since}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// HasActionSince reports whether at least one entry of the given action
// exists for the actor since the given instant. Used to rate-limit behavior
// signals to one per rolling window.
func (r *mongoAuditRepository) HasActionSince(ctx context.Context, actorID primitive.ObjectID, action domain.AuditAction, since time.Time) (bool, error) {
	filter := bson.M{
		"actorId":   actorID,
		"action":    action,
		"createdAt": bson.M{"$gte": since},
	}
	err := r.collection.FindOne(ctx, filter).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureAuditIndexes creates necessary indexes. Call during startup.
func EnsureAuditIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "actorId", Value: 1}, {Key: "action", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
