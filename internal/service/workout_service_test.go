package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/domain"
)

func newWorkoutService(workouts *fakeWorkoutRepo, checkIns *fakeCheckInRepo) *workoutService {
	return &workoutService{
		workoutRepo: workouts,
		checkInRepo: checkIns,
		logger:      zap.NewNop(),
		now:         fixedClock,
	}
}

func TestScheduleWorkout(t *testing.T) {
	athleteID := primitive.NewObjectID()
	workouts := newFakeWorkoutRepo()
	svc := newWorkoutService(workouts, newFakeCheckInRepo())

	created, err := svc.Schedule(context.Background(), athleteID, &domain.ScheduledWorkout{
		Date:        fixedNow.Truncate(24 * time.Hour),
		Title:       "Tempo Run",
		Type:        domain.WorkoutTypeRun,
		DurationMin: 60,
		TSS:         70,
	})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, athleteID, created.AthleteID)

	// Same day again is refused.
	_, err = svc.Schedule(context.Background(), athleteID, &domain.ScheduledWorkout{
		Date:  fixedNow.Truncate(24 * time.Hour),
		Title: "Second Session",
		Type:  domain.WorkoutTypeBike,
	})
	assert.ErrorIs(t, err, ErrWorkoutExists)

	// Another athlete on the same day is fine.
	_, err = svc.Schedule(context.Background(), primitive.NewObjectID(), &domain.ScheduledWorkout{
		Date:  fixedNow.Truncate(24 * time.Hour),
		Title: "Tempo Run",
		Type:  domain.WorkoutTypeRun,
	})
	assert.NoError(t, err)
}

func TestScheduleWorkoutValidation(t *testing.T) {
	svc := newWorkoutService(newFakeWorkoutRepo(), newFakeCheckInRepo())
	athleteID := primitive.NewObjectID()

	_, err := svc.Schedule(context.Background(), athleteID, &domain.ScheduledWorkout{Type: domain.WorkoutTypeRun})
	assert.Error(t, err, "missing title")

	_, err = svc.Schedule(context.Background(), athleteID, &domain.ScheduledWorkout{
		Title: "Tempo Run", Type: domain.WorkoutTypeRun, TSS: -5,
	})
	assert.Error(t, err, "negative tss")
}

func TestStartLocksTheDaysCheckIn(t *testing.T) {
	athleteID := primitive.NewObjectID()
	workout := &domain.ScheduledWorkout{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      fixedNow.Truncate(24 * time.Hour),
		Title:     "Tempo Run",
		Type:      domain.WorkoutTypeRun,
	}
	checkIn := &domain.CheckIn{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      workout.Date,
		WorkoutID: &workout.ID,
	}
	workouts := newFakeWorkoutRepo(workout)
	checkIns := newFakeCheckInRepo(checkIn)
	svc := newWorkoutService(workouts, checkIns)

	require.NoError(t, svc.Start(context.Background(), athleteID, workout.ID))

	assert.True(t, workout.Started())
	assert.True(t, checkIn.IsLocked(), "starting the session freezes the day's decision")

	err := svc.Start(context.Background(), athleteID, workout.ID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStartWithoutCheckIn(t *testing.T) {
	athleteID := primitive.NewObjectID()
	workout := &domain.ScheduledWorkout{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      fixedNow.Truncate(24 * time.Hour),
		Title:     "Tempo Run",
		Type:      domain.WorkoutTypeRun,
	}
	svc := newWorkoutService(newFakeWorkoutRepo(workout), newFakeCheckInRepo())

	require.NoError(t, svc.Start(context.Background(), athleteID, workout.ID))
	assert.True(t, workout.Started())
}

func TestStartOwnership(t *testing.T) {
	athleteID := primitive.NewObjectID()
	workout := &domain.ScheduledWorkout{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      fixedNow.Truncate(24 * time.Hour),
		Title:     "Tempo Run",
		Type:      domain.WorkoutTypeRun,
	}
	svc := newWorkoutService(newFakeWorkoutRepo(workout), newFakeCheckInRepo())

	err := svc.Start(context.Background(), primitive.NewObjectID(), workout.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	err = svc.Start(context.Background(), athleteID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrWorkoutNotFound)
}

func TestCompleteRecordsActualLoad(t *testing.T) {
	athleteID := primitive.NewObjectID()
	workout := &domain.ScheduledWorkout{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      fixedNow.Truncate(24 * time.Hour),
		Title:     "Tempo Run",
		Type:      domain.WorkoutTypeRun,
		TSS:       70,
	}
	svc := newWorkoutService(newFakeWorkoutRepo(workout), newFakeCheckInRepo())

	require.NoError(t, svc.Complete(context.Background(), athleteID, workout.ID, 82))
	require.NotNil(t, workout.CompletedAt)
	assert.Equal(t, 82, workout.ActualTSS)

	err := svc.Complete(context.Background(), athleteID, workout.ID, -1)
	assert.Error(t, err)
}

func TestCalendarIncludesLoadRollup(t *testing.T) {
	athleteID := primitive.NewObjectID()
	today := fixedNow.Truncate(24 * time.Hour)

	workouts := newFakeWorkoutRepo()
	for i := 1; i <= 3; i++ {
		completedAt := today.AddDate(0, 0, -i)
		w := &domain.ScheduledWorkout{
			ID:          primitive.NewObjectID(),
			AthleteID:   athleteID,
			Date:        today.AddDate(0, 0, -i),
			Title:       "Endurance Run",
			Type:        domain.WorkoutTypeRun,
			DurationMin: 60,
			TSS:         60,
			CompletedAt: &completedAt,
			ActualTSS:   60,
		}
		workouts.workouts[w.ID] = w
	}
	svc := newWorkoutService(workouts, newFakeCheckInRepo())

	view, err := svc.Calendar(context.Background(), athleteID, today.AddDate(0, 0, -7), today.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Len(t, view.Workouts, 3)
	assert.Equal(t, 180, view.Load.CompletedTSS)
	assert.Equal(t, 100, view.Load.CompliancePct)
}
