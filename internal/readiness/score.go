// Package readiness holds the pure decision functions of the daily readiness
// engine: the 0-100 scorer, the plan rigidity gate, the deterministic
// rule-based evaluator and the conflict detector. Nothing in this package
// touches storage or the network.
package readiness

import (
	"fmt"
	"math"
	"sort"

	"pulsecoach/endurance-app/internal/domain"
)

// Weights of the 0-100 readiness formula.
const (
	weightSleep      = 0.35
	weightFatigue    = 0.25
	weightMotivation = 0.20
	weightSoreness   = 0.20
	stressPenaltyPer = 0.15 // subtracted per point of stress
)

// Factor names reported as limiting dimensions.
const (
	FactorSleep      = "sleep"
	FactorFatigue    = "fatigue"
	FactorMotivation = "motivation"
	FactorSoreness   = "soreness"
	FactorStress     = "stress"
)

// ScoreInput is the 0-100 scale self-report. All five fields are required and
// must already be range-validated by the caller; Score re-checks and rejects
// out-of-range values rather than substituting defaults.
type ScoreInput struct {
	SleepQuality int
	Fatigue      int
	Motivation   int
	Soreness     int
	Stress       int
}

// ScoreResult is the scorer output.
type ScoreResult struct {
	Score          int
	TopFactor      string
	KeyFactors     []string
	Recommendation string
}

// Score maps a wellness self-report to a 0-100 readiness score, the named
// limiting factor(s) and a textual recommendation.
//
//	readiness = 0.35*sleep + 0.25*(100-fatigue) + 0.20*motivation
//	          + 0.20*(100-soreness) - 0.15*stress
//
// clamped to [0,100] and rounded. The top factor is the dimension whose
// weighted contribution deviates most negatively from the neutral (all-50)
// baseline.
func Score(in ScoreInput) (ScoreResult, error) {
	for name, v := range map[string]int{
		FactorSleep:      in.SleepQuality,
		FactorFatigue:    in.Fatigue,
		FactorMotivation: in.Motivation,
		FactorSoreness:   in.Soreness,
		FactorStress:     in.Stress,
	} {
		if v < 0 || v > 100 {
			return ScoreResult{}, fmt.Errorf("%s must be between 0 and 100, got %d", name, v)
		}
	}

	contributions := map[string]float64{
		FactorSleep:      weightSleep * float64(in.SleepQuality),
		FactorFatigue:    weightFatigue * float64(100-in.Fatigue),
		FactorMotivation: weightMotivation * float64(in.Motivation),
		FactorSoreness:   weightSoreness * float64(100-in.Soreness),
		FactorStress:     -stressPenaltyPer * float64(in.Stress),
	}
	neutral := map[string]float64{
		FactorSleep:      weightSleep * 50,
		FactorFatigue:    weightFatigue * 50,
		FactorMotivation: weightMotivation * 50,
		FactorSoreness:   weightSoreness * 50,
		FactorStress:     -stressPenaltyPer * 50,
	}

	raw := 0.0
	for _, c := range contributions {
		raw += c
	}
	score := int(math.Round(math.Min(100, math.Max(0, raw))))

	result := ScoreResult{
		Score:          score,
		TopFactor:      limitingFactor(contributions, neutral),
		KeyFactors:     limitingFactors(contributions, neutral),
		Recommendation: recommendationText(score),
	}
	return result, nil
}

// limitingFactor picks the dimension deviating most negatively from neutral.
func limitingFactor(contributions, neutral map[string]float64) string {
	factors := limitingFactors(contributions, neutral)
	return factors[0]
}

// limitingFactors orders all dimensions by deviation from neutral, most
// limiting first, and keeps only the meaningfully negative ones (always at
// least one, so a top factor exists even on a perfect day).
func limitingFactors(contributions, neutral map[string]float64) []string {
	type dev struct {
		name  string
		delta float64
	}
	devs := make([]dev, 0, len(contributions))
	for name, c := range contributions {
		devs = append(devs, dev{name: name, delta: c - neutral[name]})
	}
	sort.Slice(devs, func(i, j int) bool {
		if devs[i].delta != devs[j].delta {
			return devs[i].delta < devs[j].delta
		}
		return devs[i].name < devs[j].name // deterministic tie-break
	})

	out := []string{devs[0].name}
	for _, d := range devs[1:] {
		if d.delta < 0 {
			out = append(out, d.name)
		}
	}
	return out
}

func recommendationText(score int) string {
	switch {
	case score >= 80:
		return "You're primed for quality work today. Train as planned."
	case score >= 65:
		return "Solid readiness. The planned session should be manageable."
	case score >= 50:
		return "Moderate readiness. Consider easing intensity if the session feels hard early."
	case score >= 35:
		return "Low readiness. A reduced or easier session is advisable."
	default:
		return "Very low readiness. Prioritize rest and recovery today."
	}
}

// StandardScorer maps the 1-5 scale self-report to the same output contract.
// The exact weighting of this scale is a replaceable strategy; the default
// below rescales each input to 0-100 and reuses the wellness formula's
// proportions.
type StandardScorer func(domain.StandardInputs) ScoreResult

// ScoreStandard is the default StandardScorer.
func ScoreStandard(in domain.StandardInputs) ScoreResult {
	// 1..5 -> 0..100
	scale := func(v int) int {
		if v < 1 {
			v = 1
		}
		if v > 5 {
			v = 5
		}
		return (v - 1) * 25
	}

	result, err := Score(ScoreInput{
		SleepQuality: (scale(in.SleepDuration) + scale(in.SleepQuality)) / 2,
		Fatigue:      scale(in.PhysicalFatigue),
		Motivation:   (scale(in.MentalReadiness) + scale(in.Motivation)) / 2,
		Soreness:     sorenessPct(in.MuscleSoreness),
		Stress:       scale(in.StressLevel),
	})
	if err != nil {
		// Inputs were clamped above; Score cannot reject them.
		return ScoreResult{Score: 50, TopFactor: FactorFatigue, Recommendation: recommendationText(50)}
	}
	return result
}

func sorenessPct(s domain.Soreness) int {
	switch s {
	case domain.SorenessNone:
		return 0
	case domain.SorenessMild:
		return 25
	case domain.SorenessModerate:
		return 50
	case domain.SorenessHigh:
		return 75
	case domain.SorenessSevere:
		return 100
	default:
		return 50
	}
}
