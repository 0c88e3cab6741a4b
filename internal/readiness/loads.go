package readiness

import (
	"time"

	"pulsecoach/endurance-app/internal/domain"
)

// LoadSummary is a trailing-window rollup of scheduled vs completed training,
// used both as prompt context and for guardrail state.
type LoadSummary struct {
	Days              int     `json:"days"`
	PlannedSessions   int     `json:"planned_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	PlannedTSS        int     `json:"planned_tss"`
	CompletedTSS      int     `json:"completed_tss"`
	PlannedMin        int     `json:"planned_min"`
	IntenseCompleted  int     `json:"intense_completed"`
	CompliancePct     int     `json:"compliance_pct"`
	RampRate          float64 `json:"ramp_rate"` // current week TSS / previous week TSS
}

// Summarize rolls up the trailing `days` calendar days before today
// (exclusive) from the given workouts. Workouts dated today or later are
// ignored, so "this week so far" never includes the session under decision.
func Summarize(workouts []domain.ScheduledWorkout, today time.Time, days int) LoadSummary {
	sum := LoadSummary{Days: days}
	start := midnight(today).AddDate(0, 0, -days)
	end := midnight(today)

	var prevWeekTSS, curWeekTSS int
	prevStart := end.AddDate(0, 0, -14)
	curStart := end.AddDate(0, 0, -7)

	for _, w := range workouts {
		d := midnight(w.Date)

		// Ramp rate looks at a fixed 14-day span regardless of `days`.
		if !d.Before(prevStart) && d.Before(curStart) {
			prevWeekTSS += completedTSS(w)
		}
		if !d.Before(curStart) && d.Before(end) {
			curWeekTSS += completedTSS(w)
		}

		if d.Before(start) || !d.Before(end) {
			continue
		}
		sum.PlannedSessions++
		sum.PlannedTSS += w.TSS
		sum.PlannedMin += w.DurationMin
		if w.CompletedAt != nil {
			sum.CompletedSessions++
			sum.CompletedTSS += completedTSS(w)
			if IsIntense(w.Snapshot()) {
				sum.IntenseCompleted++
			}
		}
	}

	if sum.PlannedSessions > 0 {
		sum.CompliancePct = sum.CompletedSessions * 100 / sum.PlannedSessions
	}
	if prevWeekTSS > 0 {
		sum.RampRate = float64(curWeekTSS) / float64(prevWeekTSS)
	}
	return sum
}

// BuildContext derives the evaluator's training context from a trailing
// window of workouts (ideally 28 days) plus today's planned session.
func BuildContext(workouts []domain.ScheduledWorkout, planned *domain.WorkoutSnapshot, today time.Time) TrainingContext {
	end := midnight(today)
	var tss7, tss28, yesterdayTSS int

	for _, w := range workouts {
		d := midnight(w.Date)
		if !d.Before(end) || w.CompletedAt == nil {
			continue
		}
		t := completedTSS(w)
		if !d.Before(end.AddDate(0, 0, -28)) {
			tss28 += t
		}
		if !d.Before(end.AddDate(0, 0, -7)) {
			tss7 += t
		}
		if d.Equal(end.AddDate(0, 0, -1)) {
			yesterdayTSS += t
		}
	}

	ctx := TrainingContext{
		CTL:          float64(tss28) / 28,
		ATL:          float64(tss7) / 7,
		YesterdayTSS: yesterdayTSS,
	}
	ctx.TSB = ctx.CTL - ctx.ATL
	if planned != nil {
		ctx.PlannedTSS = planned.TSS
		ctx.PlannedDurationMin = planned.DurationMin
		ctx.WorkoutType = planned.Type
	}
	return ctx
}

// GuardrailState summarizes ramp-rate risk for the recommendation prompt.
type GuardrailState struct {
	RampRate   float64  `json:"ramp_rate"`
	RiskStatus string   `json:"risk_status"`
	Warnings   []string `json:"warnings"`
}

// Guardrails derives the guardrail state from a load summary.
func Guardrails(sum LoadSummary) GuardrailState {
	g := GuardrailState{RampRate: sum.RampRate, RiskStatus: "ok"}
	switch {
	case sum.RampRate > 1.5:
		g.RiskStatus = "high"
		g.Warnings = append(g.Warnings, "weekly load ramping more than 50% over last week")
	case sum.RampRate > 1.3:
		g.RiskStatus = "caution"
		g.Warnings = append(g.Warnings, "weekly load ramping more than 30% over last week")
	}
	if sum.IntenseCompleted >= MaxWeeklyHardSessions {
		g.Warnings = append(g.Warnings, "weekly hard-session budget already used")
		if g.RiskStatus == "ok" {
			g.RiskStatus = "caution"
		}
	}
	return g
}

func completedTSS(w domain.ScheduledWorkout) int {
	if w.ActualTSS > 0 {
		return w.ActualTSS
	}
	return w.TSS
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
