package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/readiness"
	"pulsecoach/endurance-app/internal/repository"
)

var (
	ErrWorkoutExists  = errors.New("a session is already scheduled for that day")
	ErrAlreadyStarted = errors.New("session was already started")
)

// WorkoutWithLoad is the calendar view: the scheduled sessions plus the
// trailing-load rollup the dashboard renders alongside them.
type WorkoutWithLoad struct {
	Workouts   []domain.ScheduledWorkout `json:"workouts"`
	Load       readiness.LoadSummary     `json:"load"`
	Guardrails readiness.GuardrailState  `json:"guardrails"`
}

// --- Service Interface ---

type WorkoutService interface {
	// Schedule creates a session on a calendar day, one per (athlete, day).
	Schedule(ctx context.Context, athleteID primitive.ObjectID, workout *domain.ScheduledWorkout) (*domain.ScheduledWorkout, error)

	// Get returns a single session, ownership-checked.
	Get(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*domain.ScheduledWorkout, error)

	// Calendar returns the athlete's sessions in [from, to) plus the
	// trailing 7-day load rollup.
	Calendar(ctx context.Context, athleteID primitive.ObjectID, from, to time.Time) (*WorkoutWithLoad, error)

	// Start stamps the session as started and freezes the day's check-in.
	Start(ctx context.Context, athleteID, workoutID primitive.ObjectID) error

	// Complete records the finished session with its measured load.
	Complete(ctx context.Context, athleteID, workoutID primitive.ObjectID, actualTSS int) error
}

// --- Service Implementation ---

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	checkInRepo repository.CheckInRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	checkInRepo repository.CheckInRepository,
	logger *zap.Logger,
) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
		checkInRepo: checkInRepo,
		logger:      logger.Named("workout"),
		now:         time.Now,
	}
}

func (s *workoutService) Schedule(ctx context.Context, athleteID primitive.ObjectID, workout *domain.ScheduledWorkout) (*domain.ScheduledWorkout, error) {
	if workout.Title == "" || workout.Type == "" {
		return nil, fmt.Errorf("session requires a title and type")
	}
	if workout.DurationMin < 0 || workout.TSS < 0 {
		return nil, fmt.Errorf("duration and tss must not be negative")
	}
	workout.AthleteID = athleteID

	// One session per calendar day; the unique (athleteId, date) index is
	// the real barrier, this check just gives a friendlier error.
	if _, err := s.workoutRepo.GetByAthleteAndDate(ctx, athleteID, workout.Date); err == nil {
		return nil, ErrWorkoutExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = id
	return workout, nil
}

func (s *workoutService) Get(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	return s.loadOwned(ctx, athleteID, workoutID)
}

func (s *workoutService) Calendar(ctx context.Context, athleteID primitive.ObjectID, from, to time.Time) (*WorkoutWithLoad, error) {
	workouts, err := s.workoutRepo.GetRange(ctx, athleteID, from, to)
	if err != nil {
		return nil, err
	}
	load := readiness.Summarize(workouts, s.now().UTC(), 7)
	return &WorkoutWithLoad{
		Workouts:   workouts,
		Load:       load,
		Guardrails: readiness.Guardrails(load),
	}, nil
}

// Start marks the session started. Starting also freezes the linked
// check-in: decisions can no longer be accepted, overridden or undone.
func (s *workoutService) Start(ctx context.Context, athleteID, workoutID primitive.ObjectID) error {
	workout, err := s.loadOwned(ctx, athleteID, workoutID)
	if err != nil {
		return err
	}
	if workout.Started() {
		return ErrAlreadyStarted
	}

	now := s.now().UTC()
	if err := s.workoutRepo.MarkStarted(ctx, workoutID, now); err != nil {
		return err
	}

	checkIn, err := s.checkInRepo.GetByAthleteAndDate(ctx, athleteID, workout.Date)
	switch {
	case err == nil:
		if !checkIn.IsLocked() {
			checkIn.LockedAt = &now
			if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
				s.logger.Warn("failed to lock check-in on session start",
					zap.String("checkInId", checkIn.ID.Hex()), zap.Error(err))
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		// No check-in yet; a later submission for this day is refused by
		// the pipeline's lock check.
	default:
		return err
	}

	s.logger.Info("session started",
		zap.String("athleteId", athleteID.Hex()), zap.String("workoutId", workoutID.Hex()))
	return nil
}

func (s *workoutService) Complete(ctx context.Context, athleteID, workoutID primitive.ObjectID, actualTSS int) error {
	if actualTSS < 0 {
		return fmt.Errorf("actual tss must not be negative")
	}
	if _, err := s.loadOwned(ctx, athleteID, workoutID); err != nil {
		return err
	}
	return s.workoutRepo.MarkCompleted(ctx, workoutID, s.now().UTC(), actualTSS)
}

// --- Helpers ---

func (s *workoutService) loadOwned(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.AthleteID != athleteID {
		return nil, ErrNotOwner
	}
	return workout, nil
}
