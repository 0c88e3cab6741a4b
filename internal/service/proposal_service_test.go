package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/domain"
)

type proposalFixture struct {
	svc      ProposalService
	athlete  primitive.ObjectID
	workout  *domain.ScheduledWorkout
	checkIn  *domain.CheckIn
	proposal *domain.PlanChangeProposal
	workouts *fakeWorkoutRepo
	props    *fakeProposalRepo
	audit    *fakeAuditRepo
	sink     *fakeSink
}

func newProposalFixture(t *testing.T) *proposalFixture {
	t.Helper()
	athleteID := primitive.NewObjectID()

	workout := &domain.ScheduledWorkout{
		ID:               primitive.NewObjectID(),
		AthleteID:        athleteID,
		Date:             fixedNow.Truncate(24 * time.Hour),
		Title:            "Threshold Run",
		Type:             domain.WorkoutTypeRun,
		DurationMin:      60,
		TSS:              85,
		PrescriptionJSON: `{"steps":[{"zone":"Z4","minutes":20}]}`,
	}
	checkIn := &domain.CheckIn{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      workout.Date,
		WorkoutID: &workout.ID,
	}
	after := domain.WorkoutSnapshot{
		Title:       "Easy Bike Spin",
		Type:        domain.WorkoutTypeBike,
		DurationMin: 60,
		TSS:         51,
	}
	proposal := &domain.PlanChangeProposal{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		WorkoutID: workout.ID,
		CheckInID: checkIn.ID,
		Source:    domain.ProposalSourceRecommendation,
		Status:    domain.ProposalPending,
		Patch:     domain.NewPatchPayload(domain.PatchFromSnapshot(after)),
		Summary:   "Swap to an easy spin",
	}

	workouts := newFakeWorkoutRepo(workout)
	checkIns := newFakeCheckInRepo(checkIn)
	props := newFakeProposalRepo(proposal)
	audit := &fakeAuditRepo{}
	sink := &fakeSink{}

	svc := NewProposalService(props, workouts, checkIns, audit, sink, zap.NewNop())
	return &proposalFixture{
		svc:      svc,
		athlete:  athleteID,
		workout:  workout,
		checkIn:  checkIn,
		proposal: proposal,
		workouts: workouts,
		props:    props,
		audit:    audit,
		sink:     sink,
	}
}

func TestProposalAcceptAppliesPatch(t *testing.T) {
	f := newProposalFixture(t)

	applied, err := f.svc.Accept(context.Background(), f.athlete, f.proposal.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalApplied, applied.Status)
	assert.NotNil(t, applied.ResolvedAt)
	assert.Equal(t, "Easy Bike Spin", f.workout.Title)
	assert.Equal(t, domain.WorkoutTypeBike, f.workout.Type)
	assert.Equal(t, 51, f.workout.TSS)
	assert.Empty(t, f.workout.PrescriptionJSON, "the swap clears the structured prescription")

	require.NotNil(t, f.checkIn.UserAccepted, "accepting the proposal accepts the recommendation")
	assert.True(t, *f.checkIn.UserAccepted)
	assert.Equal(t, 1, f.audit.countAction(domain.AuditProposalApplied))
	assert.Contains(t, f.sink.names(), analytics.EventProposalResolved)
}

func TestProposalAcceptIsSingleConsumption(t *testing.T) {
	f := newProposalFixture(t)

	_, err := f.svc.Accept(context.Background(), f.athlete, f.proposal.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.workouts.patchWrites)

	_, err = f.svc.Accept(context.Background(), f.athlete, f.proposal.ID)
	assert.ErrorIs(t, err, ErrProposalNotPending)
	assert.Equal(t, 1, f.workouts.patchWrites, "a consumed proposal never applies twice")
}

func TestProposalAcceptGuards(t *testing.T) {
	t.Run("unknown proposal", func(t *testing.T) {
		f := newProposalFixture(t)
		_, err := f.svc.Accept(context.Background(), f.athlete, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrProposalNotFound)
	})
	t.Run("wrong athlete", func(t *testing.T) {
		f := newProposalFixture(t)
		_, err := f.svc.Accept(context.Background(), primitive.NewObjectID(), f.proposal.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
	})
	t.Run("target session gone", func(t *testing.T) {
		f := newProposalFixture(t)
		delete(f.workouts.workouts, f.workout.ID)
		_, err := f.svc.Accept(context.Background(), f.athlete, f.proposal.ID)
		assert.ErrorIs(t, err, ErrWorkoutNotFound)
		assert.Equal(t, domain.ProposalPending, f.proposal.Status, "proposal not burned when nothing applied")
	})
}

func TestProposalDecline(t *testing.T) {
	f := newProposalFixture(t)

	err := f.svc.Decline(context.Background(), f.athlete, f.proposal.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.ProposalDeclined, f.proposal.Status)
	assert.Equal(t, "Threshold Run", f.workout.Title, "declining never touches the session")
	assert.Equal(t, 1, f.audit.countAction(domain.AuditProposalDeclined))

	err = f.svc.Decline(context.Background(), f.athlete, f.proposal.ID)
	assert.ErrorIs(t, err, ErrProposalNotPending)
}

func TestProposalList(t *testing.T) {
	f := newProposalFixture(t)
	require.NoError(t, f.svc.Decline(context.Background(), f.athlete, f.proposal.ID))

	other := &domain.PlanChangeProposal{
		ID:        primitive.NewObjectID(),
		AthleteID: f.athlete,
		WorkoutID: f.workout.ID,
		CheckInID: primitive.NewObjectID(),
		Status:    domain.ProposalPending,
	}
	f.props.proposals[other.ID] = other

	all, err := f.svc.List(context.Background(), f.athlete, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.svc.List(context.Background(), f.athlete, domain.ProposalPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)
}
