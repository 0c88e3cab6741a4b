package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsecoach/endurance-app/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrNotPending   = RepositoryError("proposal is not pending")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateAthleteSettings(ctx context.Context, id primitive.ObjectID, rigidity domain.RigiditySetting, weeklyHoursGoal float64, experience domain.ExperienceLevel, zones []domain.TrainingZone) error
}

// WorkoutRepository defines the interface for interacting with scheduled sessions.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.ScheduledWorkout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error)
	GetByAthleteAndDate(ctx context.Context, athleteID primitive.ObjectID, date time.Time) (*domain.ScheduledWorkout, error)
	GetRange(ctx context.Context, athleteID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error)
	// UpdateSnapshot rewrites the session's mutable fields from a snapshot.
	UpdateSnapshot(ctx context.Context, id primitive.ObjectID, snap domain.WorkoutSnapshot) error
	// ApplyPatch applies a field-level update set; nil patch fields are untouched.
	ApplyPatch(ctx context.Context, id primitive.ObjectID, patch domain.WorkoutPatch) error
	// MarkStarted is idempotent; the first start timestamp wins.
	MarkStarted(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time, actualTSS int) error
}

// CheckInRepository defines the interface for daily readiness check-ins.
type CheckInRepository interface {
	// Upsert writes the check-in keyed by (athleteId, date); a same-day
	// resubmission replaces the earlier record (last write wins).
	Upsert(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error)
	GetByAthleteAndDate(ctx context.Context, athleteID primitive.ObjectID, date time.Time) (*domain.CheckIn, error)
	ListByAthleteSince(ctx context.Context, athleteID primitive.ObjectID, since time.Time) ([]domain.CheckIn, error)
	Update(ctx context.Context, checkIn *domain.CheckIn) error
	// SetUserAccepted updates only the acceptance state; accepted may be nil
	// to reset the field to undecided.
	SetUserAccepted(ctx context.Context, id primitive.ObjectID, accepted *bool, overrideReason string) error
}

// ProposalRepository defines the interface for plan change proposals.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *domain.PlanChangeProposal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanChangeProposal, error)
	GetPendingByCheckIn(ctx context.Context, checkInID primitive.ObjectID) (*domain.PlanChangeProposal, error)
	ListByAthlete(ctx context.Context, athleteID primitive.ObjectID, status domain.ProposalStatus) ([]domain.PlanChangeProposal, error)
	// Resolve transitions a PENDING proposal to a terminal status. It fails
	// with ErrNotPending when the proposal was already consumed.
	Resolve(ctx context.Context, id primitive.ObjectID, status domain.ProposalStatus) error
}

// AuditRepository defines the interface for the append-only audit log.
// Entries are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByActorSince(ctx context.Context, actorID primitive.ObjectID, since time.Time) ([]domain.AuditLogEntry, error)
	HasActionSince(ctx context.Context, actorID primitive.ObjectID, action domain.AuditAction, since time.Time) (bool, error)
}
