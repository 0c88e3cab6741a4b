package readiness

import (
	"fmt"

	"pulsecoach/endurance-app/internal/domain"
)

// TrainingContext is the recent-load context fed to the rule evaluator and
// the external recommender.
type TrainingContext struct {
	CTL                float64 // chronic load approximation (28-day avg daily TSS)
	ATL                float64 // acute load (7-day avg daily TSS)
	TSB                float64 // CTL - ATL
	YesterdayTSS       int
	PlannedTSS         int
	PlannedDurationMin int
	WorkoutType        string
}

// RuleInput carries the check-in dimensions the evaluator weighs, already
// normalized to the 0-100 scale.
type RuleInput struct {
	Readiness  int
	Fatigue    int
	Soreness   int
	Stress     int
	Motivation int
}

// RuleResult is the deterministic baseline decision. It always exists, even
// when the external recommender is unavailable.
type RuleResult struct {
	Type        domain.RecommendationType
	Confidence  int
	Explanation string
	Reasons     []string
}

// Evaluate maps a check-in plus training context to a baseline decision. It
// is total: any input produces a usable decision, and it never performs I/O.
//
// The weighting here is deliberately simple: a threshold ladder on the
// composite readiness score with soreness, form (TSB) and planned-load
// modifiers, evaluated top-down.
func Evaluate(in RuleInput, ctx TrainingContext) RuleResult {
	var reasons []string

	if in.Readiness < 30 {
		reasons = append(reasons, fmt.Sprintf("readiness %d is critically low", in.Readiness))
		return RuleResult{
			Type:        domain.RecRest,
			Confidence:  90,
			Explanation: "Readiness is critically low; training today would add stress without adaptation.",
			Reasons:     reasons,
		}
	}

	if in.Readiness < 45 && ctx.TSB < -20 {
		reasons = append(reasons,
			fmt.Sprintf("readiness %d is low", in.Readiness),
			fmt.Sprintf("form is deep in the hole (TSB %.0f)", ctx.TSB))
		return RuleResult{
			Type:        domain.RecSwapSession,
			Confidence:  80,
			Explanation: "Low readiness on top of accumulated fatigue; an easy session protects the training block.",
			Reasons:     reasons,
		}
	}

	if in.Soreness > 75 {
		reasons = append(reasons, fmt.Sprintf("muscle soreness %d is very high", in.Soreness))
		return RuleResult{
			Type:        domain.RecSwapSession,
			Confidence:  75,
			Explanation: "Very high soreness; swap to an easy session and let the muscles recover.",
			Reasons:     reasons,
		}
	}

	if in.Readiness < 55 {
		reasons = append(reasons, fmt.Sprintf("readiness %d is below the quality-session threshold", in.Readiness))
		if in.Fatigue > 60 {
			reasons = append(reasons, fmt.Sprintf("fatigue %d is elevated", in.Fatigue))
		}
		return RuleResult{
			Type:        domain.RecReduceIntensity,
			Confidence:  70,
			Explanation: "Readiness is below the level needed for quality work; keep the session but back off the intensity.",
			Reasons:     reasons,
		}
	}

	if in.Readiness < 65 && ctx.PlannedTSS > 80 {
		reasons = append(reasons,
			fmt.Sprintf("readiness %d is moderate", in.Readiness),
			fmt.Sprintf("planned load (TSS %d) is heavy", ctx.PlannedTSS))
		return RuleResult{
			Type:        domain.RecReduceVolume,
			Confidence:  65,
			Explanation: "Moderate readiness against a heavy planned session; shortening it keeps the stimulus without overreaching.",
			Reasons:     reasons,
		}
	}

	reasons = append(reasons, fmt.Sprintf("readiness %d supports the planned session", in.Readiness))
	confidence := in.Readiness
	if confidence < 60 {
		confidence = 60
	}
	return RuleResult{
		Type:        domain.RecKeep,
		Confidence:  confidence,
		Explanation: "Readiness supports today's plan. Train as scheduled.",
		Reasons:     reasons,
	}
}
