package readiness

import (
	"math"
	"strings"

	"pulsecoach/endurance-app/internal/domain"
)

// Conflict reasons, also stored verbatim on the check-in.
const (
	ReasonLowReadiness      = "Low readiness for intense workout"
	ReasonHighSoreness      = "High muscle soreness"
	ReasonHighFatigue       = "High fatigue level"
	ReasonModerateReadiness = "Moderate readiness"
	ReasonWeeklyGuardrail   = "Weekly hard-session guardrail exceeded"
)

// Conflict suggestion actions.
const (
	ActionSwapEasy        = "swap_easy"
	ActionReduceDuration  = "reduce_duration"
	ActionSwapRecovery    = "swap_recovery"
	ActionReduceIntensity = "reduce_intensity"
)

// A session counts as intense above this TSS, or when its type/title matches
// one of the keywords below.
const intenseTSS = 80

var intenseKeywords = []string{
	"interval", "tempo", "race", "brick", "threshold", "vo2max", "hard",
}

// MaxWeeklyHardSessions is the hard-session guardrail over a trailing 7 days.
const MaxWeeklyHardSessions = 3

// Conflict flags a mismatch between today's self-report and the planned
// session, with a concrete suggested change.
type Conflict struct {
	Reason     string
	Soft       bool // rule 4 is advisory; everything else is a hard flag
	Guardrail  bool
	Suggestion domain.ConflictSuggestion
}

// IsIntense reports whether a session qualifies as intense.
func IsIntense(w domain.WorkoutSnapshot) bool {
	if w.TSS > intenseTSS {
		return true
	}
	haystack := strings.ToLower(w.Type + " " + w.Title)
	for _, kw := range intenseKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// Detect evaluates the conflict rules in order, first match wins. workout may
// be nil (rest day / no plan), in which case only no conflict is possible.
// recentIntense is the count of intense sessions completed in the trailing 7
// days, excluding today.
func Detect(readinessScore, fatigue, soreness int, workout *domain.WorkoutSnapshot, recentIntense int) *Conflict {
	if workout == nil {
		return nil
	}
	intense := IsIntense(*workout)

	// 1. Intense session on a low-readiness day.
	if intense && readinessScore < 60 {
		return &Conflict{
			Reason:     ReasonLowReadiness,
			Suggestion: suggestSwapEasy(*workout),
		}
	}

	// 2. High soreness regardless of session type.
	if soreness > 70 {
		return &Conflict{
			Reason:     ReasonHighSoreness,
			Suggestion: suggestReduceDuration(*workout),
		}
	}

	// 3. High fatigue regardless of session type.
	if fatigue > 75 {
		return &Conflict{
			Reason:     ReasonHighFatigue,
			Suggestion: suggestSwapRecovery(*workout),
		}
	}

	// 4. Intense session on a merely moderate day (soft flag).
	if intense && readinessScore < 70 {
		return &Conflict{
			Reason:     ReasonModerateReadiness,
			Soft:       true,
			Suggestion: suggestReduceIntensity(*workout),
		}
	}

	// Guardrail: too many hard sessions already this week, and today is
	// another one. Independent of the readiness score.
	if intense && recentIntense >= MaxWeeklyHardSessions {
		return &Conflict{
			Reason:     ReasonWeeklyGuardrail,
			Guardrail:  true,
			Suggestion: suggestSwapRecovery(*workout),
		}
	}

	return nil
}

func suggestSwapEasy(w domain.WorkoutSnapshot) domain.ConflictSuggestion {
	title := "Easy Zone 2 Session"
	typ := easySport(w.Type)
	tss := w.TSS
	if tss > 45 {
		tss = 45
	}
	return suggestion(ActionSwapEasy, "Swap to an easy Zone 2 session", domain.WorkoutPatch{
		Title: &title,
		Type:  &typ,
		TSS:   &tss,
	})
}

func suggestReduceDuration(w domain.WorkoutSnapshot) domain.ConflictSuggestion {
	dur := int(math.Round(float64(w.DurationMin) * 0.6))
	if dur < 20 {
		dur = 20
	}
	return suggestion(ActionReduceDuration, "Cut the session duration to 60%", domain.WorkoutPatch{
		DurationMin: &dur,
	})
}

func suggestSwapRecovery(w domain.WorkoutSnapshot) domain.ConflictSuggestion {
	title := "Recovery Session"
	typ := domain.WorkoutTypeRecovery
	tss := w.TSS
	if tss > 30 {
		tss = 30
	}
	return suggestion(ActionSwapRecovery, "Swap to a recovery session", domain.WorkoutPatch{
		Title: &title,
		Type:  &typ,
		TSS:   &tss,
	})
}

func suggestReduceIntensity(w domain.WorkoutSnapshot) domain.ConflictSuggestion {
	tss := int(math.Round(float64(w.TSS) * 0.85))
	if tss < 1 {
		tss = 1
	}
	return suggestion(ActionReduceIntensity, "Dial the intensity back to 85%", domain.WorkoutPatch{
		TSS: &tss,
	})
}

func suggestion(action, summary string, patch domain.WorkoutPatch) domain.ConflictSuggestion {
	return domain.ConflictSuggestion{
		Kind:    domain.PayloadKindPatch,
		Version: domain.PayloadVersion,
		Action:  action,
		Patch:   patch,
		Summary: summary,
	}
}

// easySport keeps the suggested easy session in the athlete's sport where it
// makes sense, defaulting to a generic recovery session.
func easySport(workoutType string) string {
	switch strings.ToLower(workoutType) {
	case domain.WorkoutTypeRun, domain.WorkoutTypeBike, domain.WorkoutTypeSwim:
		return strings.ToLower(workoutType)
	default:
		return domain.WorkoutTypeRecovery
	}
}
