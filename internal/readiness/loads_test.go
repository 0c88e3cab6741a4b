package readiness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pulsecoach/endurance-app/internal/domain"
)

func completedWorkout(date time.Time, tss, actualTSS int) domain.ScheduledWorkout {
	done := date.Add(10 * time.Hour)
	return domain.ScheduledWorkout{
		Title:       "Session",
		Type:        domain.WorkoutTypeBike,
		Date:        date,
		DurationMin: 60,
		TSS:         tss,
		ActualTSS:   actualTSS,
		CompletedAt: &done,
	}
}

func TestSummarizeExcludesToday(t *testing.T) {
	today := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	workouts := []domain.ScheduledWorkout{
		completedWorkout(today.AddDate(0, 0, -1), 60, 0),
		completedWorkout(today, 100, 0), // under decision, must not count
	}

	sum := Summarize(workouts, today, 7)
	assert.Equal(t, 1, sum.PlannedSessions)
	assert.Equal(t, 60, sum.CompletedTSS)
}

func TestSummarizePrefersActualTSS(t *testing.T) {
	today := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	workouts := []domain.ScheduledWorkout{
		completedWorkout(today.AddDate(0, 0, -2), 60, 85),
	}

	sum := Summarize(workouts, today, 7)
	assert.Equal(t, 85, sum.CompletedTSS, "measured load wins over planned")
	assert.Equal(t, 0, sum.IntenseCompleted, "intensity judged on the prescription, not the outcome")
}

func TestSummarizeCountsIntenseSessions(t *testing.T) {
	today := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	workouts := []domain.ScheduledWorkout{
		completedWorkout(today.AddDate(0, 0, -1), 95, 0),
		completedWorkout(today.AddDate(0, 0, -3), 40, 0),
		completedWorkout(today.AddDate(0, 0, -5), 90, 0),
	}

	sum := Summarize(workouts, today, 7)
	assert.Equal(t, 2, sum.IntenseCompleted)
	assert.Equal(t, 100, sum.CompliancePct)
}

func TestSummarizeRampRate(t *testing.T) {
	today := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	var workouts []domain.ScheduledWorkout
	// Previous week: 100 TSS total. Current week: 160 TSS total.
	workouts = append(workouts, completedWorkout(today.AddDate(0, 0, -10), 100, 0))
	workouts = append(workouts, completedWorkout(today.AddDate(0, 0, -2), 80, 0))
	workouts = append(workouts, completedWorkout(today.AddDate(0, 0, -4), 80, 0))

	sum := Summarize(workouts, today, 7)
	assert.InDelta(t, 1.6, sum.RampRate, 0.001)

	g := Guardrails(sum)
	assert.Equal(t, "high", g.RiskStatus)
	assert.NotEmpty(t, g.Warnings)
}

func TestGuardrailsIntenseBudget(t *testing.T) {
	g := Guardrails(LoadSummary{RampRate: 1.0, IntenseCompleted: 3})
	assert.Equal(t, "caution", g.RiskStatus)
	assert.NotEmpty(t, g.Warnings)

	ok := Guardrails(LoadSummary{RampRate: 1.0, IntenseCompleted: 1})
	assert.Equal(t, "ok", ok.RiskStatus)
	assert.Empty(t, ok.Warnings)
}

func TestBuildContext(t *testing.T) {
	today := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	var workouts []domain.ScheduledWorkout
	// 28 completed days at TSS 70 each.
	for i := 1; i <= 28; i++ {
		workouts = append(workouts, completedWorkout(today.AddDate(0, 0, -i), 70, 0))
	}

	planned := &domain.WorkoutSnapshot{Title: "Intervals", Type: "bike", DurationMin: 75, TSS: 95}
	ctx := BuildContext(workouts, planned, today)

	assert.InDelta(t, 70.0, ctx.CTL, 0.001)
	assert.InDelta(t, 70.0, ctx.ATL, 0.001)
	assert.InDelta(t, 0.0, ctx.TSB, 0.001)
	assert.Equal(t, 70, ctx.YesterdayTSS)
	assert.Equal(t, 95, ctx.PlannedTSS)
	assert.Equal(t, 75, ctx.PlannedDurationMin)
	assert.Equal(t, "bike", ctx.WorkoutType)
}

func TestBuildContextNegativeTSBUnderAcuteLoad(t *testing.T) {
	today := time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)
	var workouts []domain.ScheduledWorkout
	// Quiet month, then a brutal final week.
	for i := 1; i <= 7; i++ {
		workouts = append(workouts, completedWorkout(today.AddDate(0, 0, -i), 120, 0))
	}

	ctx := BuildContext(workouts, nil, today)
	assert.Negative(t, ctx.TSB)
	assert.Zero(t, ctx.PlannedTSS)
}
