package readiness

import (
	"math"
	"strings"

	"pulsecoach/endurance-app/internal/domain"
)

// Fixed transformation factors and floors per recommendation type.
const (
	intensityFactor = 0.85
	volumeFactor    = 0.70
	swapTSSFactor   = 0.60

	minTSS         = 1
	minSwapTSS     = 15
	minDurationMin = 20
	restTitle      = "Rest + mobility"
)

// ComputeAfter derives the "after" snapshot of a session for a given
// recommendation type. The external service's own "after" text is
// informational only; this function is the authoritative transformation.
func ComputeAfter(t domain.RecommendationType, before domain.WorkoutSnapshot) domain.WorkoutSnapshot {
	after := before

	switch t {
	case domain.RecKeep:
		return after

	case domain.RecReduceIntensity:
		after.TSS = floorInt(math.Round(float64(before.TSS)*intensityFactor), minTSS)

	case domain.RecReduceVolume:
		after.DurationMin = floorInt(math.Round(float64(before.DurationMin)*volumeFactor), minDurationMin)
		after.TSS = floorInt(math.Round(float64(before.TSS)*volumeFactor), minTSS)

	case domain.RecSwapSession:
		after.Type, after.Title = swapActivity(before.Type)
		after.TSS = floorInt(math.Round(float64(before.TSS)*swapTSSFactor), minSwapTSS)
		after.DescriptionMd = ""
		after.PrescriptionJSON = ""

	case domain.RecRest:
		after.Type = domain.WorkoutTypeRest
		after.Title = restTitle
		after.DurationMin = 0
		after.TSS = 0
		after.DescriptionMd = ""
		after.PrescriptionJSON = ""
		return after
	}

	// Any non-rest result must keep a positive duration.
	if after.DurationMin <= 0 {
		after.DurationMin = minDurationMin
		if before.DurationMin > minDurationMin {
			after.DurationMin = before.DurationMin
		}
	}
	return after
}

// swapActivity maps a sport to its complementary easy activity.
func swapActivity(workoutType string) (newType, newTitle string) {
	switch strings.ToLower(workoutType) {
	case domain.WorkoutTypeRun:
		return domain.WorkoutTypeBike, "Easy Bike Spin"
	case domain.WorkoutTypeBike:
		return domain.WorkoutTypeSwim, "Easy Swim"
	case domain.WorkoutTypeSwim:
		return domain.WorkoutTypeBike, "Easy Bike Spin"
	default:
		return domain.WorkoutTypeRecovery, "Recovery Session"
	}
}

func floorInt(v float64, floor int) int {
	n := int(v)
	if n < floor {
		return floor
	}
	return n
}
