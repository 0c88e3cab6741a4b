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

const proposalCollectionName = "proposals"

// mongoProposalRepository implements repository.ProposalRepository
type mongoProposalRepository struct {
	collection *mongo.Collection
}

// NewMongoProposalRepository creates a new proposal repository.
func NewMongoProposalRepository(db *mongo.Database) repository.ProposalRepository {
	return &mongoProposalRepository{
		collection: db.Collection(proposalCollectionName),
	}
}

// Create inserts a new PENDING proposal.
func (r *mongoProposalRepository) Create(ctx context.Context, proposal *domain.PlanChangeProposal) (primitive.ObjectID, error) {
	if proposal.WorkoutID == primitive.NilObjectID || proposal.CheckInID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("proposal requires workoutId and checkInId")
	}
	proposal.ID = primitive.NewObjectID()
	proposal.Status = domain.ProposalPending
	proposal.CreatedAt = time.Now().UTC()
	proposal.ResolvedAt = nil

	result, err := r.collection.InsertOne(ctx, proposal)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted proposal ID")
	}
	return insertedID, nil
}

// GetByID retrieves a proposal by its ID.
func (r *mongoProposalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanChangeProposal, error) {
	var proposal domain.PlanChangeProposal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&proposal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

// GetPendingByCheckIn finds the open proposal for a check-in, if any.
// Callers use this to avoid creating duplicates for the same check-in.
func (r *mongoProposalRepository) GetPendingByCheckIn(ctx context.Context, checkInID primitive.ObjectID) (*domain.PlanChangeProposal, error) {
	var proposal domain.PlanChangeProposal
	filter := bson.M{"checkInId": checkInID, "status": domain.ProposalPending}
	err := r.collection.FindOne(ctx, filter).Decode(&proposal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

// ListByAthlete retrieves proposals for an athlete, newest first. Status may
// be empty to list all.
func (r *mongoProposalRepository) ListByAthlete(ctx context.Context, athleteID primitive.ObjectID, status domain.ProposalStatus) ([]domain.PlanChangeProposal, error) {
	var proposals []domain.PlanChangeProposal
	filter := bson.M{"athleteId": athleteID}
	if status != "" {
		filter["status"] = status
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

// Resolve transitions a PENDING proposal to a terminal status. The filter
// includes the PENDING precondition so a consumed proposal cannot transition
// twice, regardless of concurrent callers.
func (r *mongoProposalRepository) Resolve(ctx context.Context, id primitive.ObjectID, status domain.ProposalStatus) error {
	if status != domain.ProposalApplied && status != domain.ProposalDeclined {
		return errors.New("proposal can only resolve to APPLIED or DECLINED")
	}

	filter := bson.M{"_id": id, "status": domain.ProposalPending}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":     status,
			"resolvedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish "gone" from "already consumed" for the caller's error.
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrNotPending
	}
	return nil
}

// EnsureProposalIndexes creates necessary indexes. Call during startup.
func EnsureProposalIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "checkInId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
