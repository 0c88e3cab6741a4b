// Package advisor enriches the deterministic baseline decision with a
// context-aware recommendation from an external text-generation service. The
// service is treated as unreliable and optional: any transport error,
// non-JSON body or schema violation yields a Failed result and the caller
// falls back to the rule-based evaluator.
package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/llm"
	"pulsecoach/endurance-app/internal/readiness"
)

// AthleteConstraints is the profile slice included in the prompt.
type AthleteConstraints struct {
	WeeklyHoursGoal float64               `json:"weekly_hours_goal"`
	Experience      string                `json:"experience"`
	Zones           []domain.TrainingZone `json:"zones,omitempty"`
}

// Request carries everything the prompt summarizes for one check-in.
type Request struct {
	Date           time.Time
	ReadinessScore int
	TopFactor      string
	KeyFactors     []string
	Report         map[string]int // normalized 0-100 self-report dimensions
	Notes          string
	Planned        *domain.WorkoutSnapshot // nil on a rest/no-plan day
	Load           readiness.LoadSummary
	Guardrails     readiness.GuardrailState
	Athlete        AthleteConstraints
}

// Result is the adapter outcome: exactly one of Recommendation or
// FailureReason is set. Failures are values, not errors, so callers are
// forced to handle the fallback path explicitly.
type Result struct {
	Recommendation *domain.Recommendation
	FailureReason  string
}

// OK reports whether the adapter produced a validated recommendation.
func (r Result) OK() bool {
	return r.Recommendation != nil
}

func failed(reason string) Result {
	return Result{FailureReason: reason}
}

// Advisor calls the external recommendation service.
type Advisor struct {
	gen    llm.TextGenerator
	logger *zap.Logger
}

// New creates an advisor over a text generator. gen may be nil when no
// service credential is configured; Recommend then fails immediately and the
// baseline decision stands.
func New(gen llm.TextGenerator, logger *zap.Logger) *Advisor {
	return &Advisor{gen: gen, logger: logger.Named("advisor")}
}

// Available reports whether an external service is configured at all.
func (a *Advisor) Available() bool {
	return a != nil && a.gen != nil
}

// Recommend performs the single external call, extracts and validates the
// JSON recommendation, and normalizes it server-side. It never retries.
func (a *Advisor) Recommend(ctx context.Context, req Request) Result {
	if !a.Available() {
		return failed("external recommendation service not configured")
	}

	raw, err := a.gen.GenerateResponse(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		a.logger.Warn("external recommendation call failed", zap.Error(err))
		return failed("service call failed: " + err.Error())
	}

	rec, err := parseRecommendation(raw)
	if err != nil {
		a.logger.Warn("external recommendation rejected", zap.Error(err))
		return failed("invalid recommendation: " + err.Error())
	}

	a.normalize(rec, req)
	return Result{Recommendation: rec}
}

// normalize overwrites the model's before/after with server-computed values
// (only the prose — explanation, rationale, coach message — is trusted
// verbatim) and enforces the keep invariant.
func (a *Advisor) normalize(rec *domain.Recommendation, req Request) {
	rec.Source = domain.SourceAdvisor

	if req.Planned == nil {
		// Nothing to change on a day with no scheduled session.
		rec.Changes.Apply = false
		rec.Changes.Before = domain.WorkoutSnapshot{}
		rec.Changes.After = domain.WorkoutSnapshot{}
		return
	}

	before := *req.Planned
	rec.Changes.Before = before
	rec.Changes.After = readiness.ComputeAfter(rec.Type, before)

	if rec.Type == domain.RecKeep {
		rec.Changes.Apply = false
	}
}
