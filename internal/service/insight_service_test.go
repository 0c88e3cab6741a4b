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

func newInsightFixture(checkIns *fakeCheckInRepo) (*insightService, *fakeAuditRepo, *fakeSink) {
	audit := &fakeAuditRepo{}
	sink := &fakeSink{}
	svc := &insightService{
		checkInRepo: checkIns,
		auditRepo:   audit,
		sink:        sink,
		logger:      zap.NewNop(),
		now:         fixedClock,
	}
	return svc, audit, sink
}

// decidedCheckIn builds a check-in N days back with an explicit response.
func decidedCheckIn(athleteID primitive.ObjectID, daysAgo int, accepted bool, decision domain.Decision) *domain.CheckIn {
	return &domain.CheckIn{
		ID:           primitive.NewObjectID(),
		AthleteID:    athleteID,
		Date:         fixedNow.Truncate(24 * time.Hour).AddDate(0, 0, -daysAgo),
		AIDecision:   decision,
		UserAccepted: &accepted,
	}
}

func TestOverrideStatsCountsDecisionBearingCheckIns(t *testing.T) {
	athleteID := primitive.NewObjectID()
	// A decision the athlete never responded to still counts in the
	// denominator; a check-in with no decision at all does not.
	unanswered := &domain.CheckIn{
		ID:         primitive.NewObjectID(),
		AthleteID:  athleteID,
		Date:       fixedNow.Truncate(24 * time.Hour).AddDate(0, 0, -1),
		AIDecision: domain.DecisionProceed,
	}
	scoreOnly := &domain.CheckIn{
		ID:        primitive.NewObjectID(),
		AthleteID: athleteID,
		Date:      fixedNow.Truncate(24 * time.Hour).AddDate(0, 0, -4),
	}
	svc, _, _ := newInsightFixture(newFakeCheckInRepo(
		unanswered,
		scoreOnly,
		decidedCheckIn(athleteID, 2, true, domain.DecisionProceed),
		decidedCheckIn(athleteID, 3, false, domain.DecisionRest),
		decidedCheckIn(athleteID, 40, false, domain.DecisionRest), // outside the window
	))

	stats, err := svc.OverrideStats(context.Background(), athleteID, 0)
	require.NoError(t, err)

	assert.Equal(t, defaultStatsWindowDays, stats.WindowDays)
	assert.Equal(t, 3, stats.TotalDecided)
	assert.Equal(t, 1, stats.Overrides)
	assert.InDelta(t, 1.0/3.0, stats.OverrideRate, 1e-9)
	assert.Equal(t, 1, stats.PerDecision[domain.DecisionRest])
}

func TestOverrideStatsUnansweredDecisionsDampTheRate(t *testing.T) {
	athleteID := primitive.NewObjectID()
	checkIns := []*domain.CheckIn{
		decidedCheckIn(athleteID, 1, false, domain.DecisionProceed),
		decidedCheckIn(athleteID, 2, false, domain.DecisionShorten),
		decidedCheckIn(athleteID, 3, false, domain.DecisionSwapRecovery),
	}
	for day := 4; day <= 10; day++ {
		checkIns = append(checkIns, &domain.CheckIn{
			ID:         primitive.NewObjectID(),
			AthleteID:  athleteID,
			Date:       fixedNow.Truncate(24 * time.Hour).AddDate(0, 0, -day),
			AIDecision: domain.DecisionProceed,
		})
	}
	svc, _, _ := newInsightFixture(newFakeCheckInRepo(checkIns...))

	stats, err := svc.OverrideStats(context.Background(), athleteID, 30)
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalDecided)
	assert.Equal(t, 3, stats.Overrides)
	assert.InDelta(t, 0.3, stats.OverrideRate, 1e-9)
	assert.Empty(t, stats.Insight, "three overrides across ten decisions is unremarkable")
}

func TestOverrideStatsInsights(t *testing.T) {
	athleteID := primitive.NewObjectID()
	tests := []struct {
		name     string
		checkIns []*domain.CheckIn
		want     string
	}{
		{
			name: "frequent overrides call for recalibration",
			checkIns: []*domain.CheckIn{
				decidedCheckIn(athleteID, 1, false, domain.DecisionProceed),
				decidedCheckIn(athleteID, 2, false, domain.DecisionShorten),
				decidedCheckIn(athleteID, 3, false, domain.DecisionSwapRecovery),
				decidedCheckIn(athleteID, 4, true, domain.DecisionProceed),
			},
			want: insightRecalibrate,
		},
		{
			name: "repeated rest overrides",
			checkIns: []*domain.CheckIn{
				decidedCheckIn(athleteID, 1, false, domain.DecisionRest),
				decidedCheckIn(athleteID, 2, false, domain.DecisionRest),
				decidedCheckIn(athleteID, 3, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 4, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 5, true, domain.DecisionProceed),
			},
			want: insightCautious,
		},
		{
			name: "repeated intensity overrides",
			checkIns: []*domain.CheckIn{
				decidedCheckIn(athleteID, 1, false, domain.DecisionReduceIntensity),
				decidedCheckIn(athleteID, 2, false, domain.DecisionReduceIntensity),
				decidedCheckIn(athleteID, 3, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 4, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 5, true, domain.DecisionProceed),
			},
			want: insightIntensity,
		},
		{
			name: "athlete trusts the engine",
			checkIns: []*domain.CheckIn{
				decidedCheckIn(athleteID, 1, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 2, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 3, true, domain.DecisionRest),
				decidedCheckIn(athleteID, 4, true, domain.DecisionProceed),
				decidedCheckIn(athleteID, 5, true, domain.DecisionProceed),
			},
			want: insightTrusts,
		},
		{
			name: "too little data for any insight",
			checkIns: []*domain.CheckIn{
				decidedCheckIn(athleteID, 1, true, domain.DecisionProceed),
			},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newInsightFixture(newFakeCheckInRepo(tt.checkIns...))
			stats, err := svc.OverrideStats(context.Background(), athleteID, 30)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats.Insight)
		})
	}
}

func TestRecordBehaviorSignal(t *testing.T) {
	athleteID := primitive.NewObjectID()
	svc, audit, sink := newInsightFixture(newFakeCheckInRepo(
		decidedCheckIn(athleteID, 1, false, domain.DecisionRest),
		decidedCheckIn(athleteID, 3, false, domain.DecisionShorten),
		decidedCheckIn(athleteID, 5, false, domain.DecisionProceed),
	))

	recorded, err := svc.RecordBehaviorSignal(context.Background(), athleteID)
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, 1, audit.countAction(domain.AuditOverrideSignal))
	assert.Contains(t, sink.names(), analytics.EventBehaviorSignal)

	// One signal per trailing window: the next override does not re-fire.
	recorded, err = svc.RecordBehaviorSignal(context.Background(), athleteID)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Equal(t, 1, audit.countAction(domain.AuditOverrideSignal))
}

func TestRecordBehaviorSignalBelowThreshold(t *testing.T) {
	athleteID := primitive.NewObjectID()
	svc, audit, _ := newInsightFixture(newFakeCheckInRepo(
		decidedCheckIn(athleteID, 1, false, domain.DecisionRest),
		decidedCheckIn(athleteID, 2, false, domain.DecisionRest),
		decidedCheckIn(athleteID, 9, false, domain.DecisionRest), // outside the 7-day window
	))

	recorded, err := svc.RecordBehaviorSignal(context.Background(), athleteID)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Zero(t, audit.countAction(domain.AuditOverrideSignal))
}
