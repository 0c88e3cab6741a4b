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

const checkInCollectionName = "checkins"

// mongoCheckInRepository implements repository.CheckInRepository
type mongoCheckInRepository struct {
	collection *mongo.Collection
}

// NewMongoCheckInRepository creates a new check-in repository.
func NewMongoCheckInRepository(db *mongo.Database) repository.CheckInRepository {
	return &mongoCheckInRepository{
		collection: db.Collection(checkInCollectionName),
	}
}

// Upsert writes the check-in keyed by (athleteId, date). Two concurrent
// submissions for the same day resolve last-write-wins on the row.
func (r *mongoCheckInRepository) Upsert(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	if checkIn.AthleteID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("check-in requires athleteId")
	}
	now := time.Now().UTC()
	checkIn.Date = dayStart(checkIn.Date)
	checkIn.UpdatedAt = now
	if checkIn.CreatedAt.IsZero() {
		checkIn.CreatedAt = now
	}

	filter := bson.M{"athleteId": checkIn.AthleteID, "date": checkIn.Date}

	// Replace everything except _id/createdAt, which survive resubmission.
	existing := struct {
		ID        primitive.ObjectID `bson:"_id"`
		CreatedAt time.Time          `bson:"createdAt"`
	}{}
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	switch {
	case err == nil:
		checkIn.ID = existing.ID
		checkIn.CreatedAt = existing.CreatedAt
	case errors.Is(err, mongo.ErrNoDocuments):
		checkIn.ID = primitive.NewObjectID()
	default:
		return primitive.NilObjectID, err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, checkIn, opts); err != nil {
		return primitive.NilObjectID, err
	}
	return checkIn.ID, nil
}

// GetByID retrieves a check-in by its ID.
func (r *mongoCheckInRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

// GetByAthleteAndDate retrieves the check-in for a calendar day.
func (r *mongoCheckInRepository) GetByAthleteAndDate(ctx context.Context, athleteID primitive.ObjectID, date time.Time) (*domain.CheckIn, error) {
	var checkIn domain.CheckIn
	filter := bson.M{"athleteId": athleteID, "date": dayStart(date)}
	err := r.collection.FindOne(ctx, filter).Decode(&checkIn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checkIn, nil
}

// ListByAthleteSince retrieves check-ins dated on or after `since`, oldest first.
func (r *mongoCheckInRepository) ListByAthleteSince(ctx context.Context, athleteID primitive.ObjectID, since time.Time) ([]domain.CheckIn, error) {
	var checkIns []domain.CheckIn
	filter := bson.M{"athleteId": athleteID, "date": bson.M{"$gte": dayStart(since)}}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &checkIns); err != nil {
		return nil, err
	}
	return checkIns, nil
}

// Update rewrites an existing check-in document.
func (r *mongoCheckInRepository) Update(ctx context.Context, checkIn *domain.CheckIn) error {
	if checkIn.ID == primitive.NilObjectID {
		return errors.New("check-in ID is required for update")
	}
	checkIn.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": checkIn.ID}, checkIn)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetUserAccepted updates only the acceptance state. Passing accepted=nil
// resets the field to undecided (used to roll back a failed proposal create).
func (r *mongoCheckInRepository) SetUserAccepted(ctx context.Context, id primitive.ObjectID, accepted *bool, overrideReason string) error {
	update := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}
	if accepted == nil {
		unset["userAccepted"] = ""
	} else {
		update["userAccepted"] = *accepted
	}
	if overrideReason != "" {
		update["userOverrideReason"] = overrideReason
	}

	updateDoc := bson.M{"$set": update}
	if len(unset) > 0 {
		updateDoc["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCheckInIndexes creates necessary indexes. Call during startup.
func EnsureCheckInIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One record per (athlete, calendar day).
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
