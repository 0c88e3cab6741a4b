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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new scheduled-workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new scheduled workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.ScheduledWorkout) (primitive.ObjectID, error) {
	if workout.AthleteID == primitive.NilObjectID || workout.Title == "" {
		return primitive.NilObjectID, errors.New("workout requires athleteId and title")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	workout.Date = dayStart(workout.Date)

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	var workout domain.ScheduledWorkout
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByAthleteAndDate retrieves the session scheduled on a calendar day.
func (r *mongoWorkoutRepository) GetByAthleteAndDate(ctx context.Context, athleteID primitive.ObjectID, date time.Time) (*domain.ScheduledWorkout, error) {
	var workout domain.ScheduledWorkout
	filter := bson.M{"athleteId": athleteID, "date": dayStart(date)}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetRange retrieves all sessions in [from, to), ordered by date, for load
// summaries and the weekly guardrail.
func (r *mongoWorkoutRepository) GetRange(ctx context.Context, athleteID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error) {
	var workouts []domain.ScheduledWorkout
	filter := bson.M{
		"athleteId": athleteID,
		"date":      bson.M{"$gte": dayStart(from), "$lt": dayStart(to)},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// UpdateSnapshot rewrites the session's mutable fields from a snapshot.
func (r *mongoWorkoutRepository) UpdateSnapshot(ctx context.Context, id primitive.ObjectID, snap domain.WorkoutSnapshot) error {
	if id == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}

	filter := bson.M{"_id": id}
	updateDoc := bson.M{
		"$set": bson.M{
			"title":            snap.Title,
			"type":             snap.Type,
			"durationMin":      snap.DurationMin,
			"tss":              snap.TSS,
			"descriptionMd":    snap.DescriptionMd,
			"prescriptionJson": snap.PrescriptionJSON,
			"notes":            snap.Notes,
			"updatedAt":        time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyPatch applies a field-level update set; nil fields stay untouched.
func (r *mongoWorkoutRepository) ApplyPatch(ctx context.Context, id primitive.ObjectID, patch domain.WorkoutPatch) error {
	if id == primitive.NilObjectID {
		return errors.New("workout ID is required for patch")
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.DurationMin != nil {
		set["durationMin"] = *patch.DurationMin
	}
	if patch.TSS != nil {
		set["tss"] = *patch.TSS
	}
	if patch.DescriptionMd != nil {
		set["descriptionMd"] = *patch.DescriptionMd
	}
	if patch.PrescriptionJSON != nil {
		set["prescriptionJson"] = *patch.PrescriptionJSON
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkStarted stamps the session as started. Starting is idempotent: a
// second start keeps the first timestamp.
func (r *mongoWorkoutRepository) MarkStarted(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "startedAt": nil}
	update := bson.M{"$set": bson.M{"startedAt": at.UTC(), "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish missing from already started.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return nil
	}
	return nil
}

// MarkCompleted stamps the session as completed with the measured load.
func (r *mongoWorkoutRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time, actualTSS int) error {
	update := bson.M{"$set": bson.M{
		"completedAt": at.UTC(),
		"actualTss":   actualTSS,
		"updatedAt":   time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One session per athlete per day; also serves date-range scans.
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

// dayStart truncates a timestamp to midnight UTC so date equality works.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
