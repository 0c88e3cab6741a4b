package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScaleFamily distinguishes the two check-in input scales. A record uses
// exactly one family, never both.
type ScaleFamily string

const (
	ScaleStandard ScaleFamily = "standard" // 1-5 inputs
	ScaleWellness ScaleFamily = "wellness" // 0-100 inputs
)

// Soreness levels for the 1-5 scale family.
type Soreness string

const (
	SorenessNone     Soreness = "none"
	SorenessMild     Soreness = "mild"
	SorenessModerate Soreness = "moderate"
	SorenessHigh     Soreness = "high"
	SorenessSevere   Soreness = "severe"
)

// StandardInputs is the 1-5 scale self-report set.
type StandardInputs struct {
	SleepDuration   int      `bson:"sleepDuration" json:"sleepDuration"`
	SleepQuality    int      `bson:"sleepQuality" json:"sleepQuality"`
	PhysicalFatigue int      `bson:"physicalFatigue" json:"physicalFatigue"`
	MentalReadiness int      `bson:"mentalReadiness" json:"mentalReadiness"`
	Motivation      int      `bson:"motivation" json:"motivation"`
	MuscleSoreness  Soreness `bson:"muscleSoreness" json:"muscleSoreness"`
	StressLevel     int      `bson:"stressLevel" json:"stressLevel"`
}

// WellnessInputs is the 0-100 scale self-report set (the "premium" path).
type WellnessInputs struct {
	SleepQuality int `bson:"sleepQuality" json:"sleepQuality"`
	Fatigue      int `bson:"fatigue" json:"fatigue"`
	Motivation   int `bson:"motivation" json:"motivation"`
	Soreness     int `bson:"soreness" json:"soreness"`
	Stress       int `bson:"stress" json:"stress"`
}

// ConflictSuggestion is the structured patch description attached to a
// check-in when the conflict detector flags the day's session.
type ConflictSuggestion struct {
	Kind    string       `bson:"kind" json:"kind"`
	Version int          `bson:"version" json:"version"`
	Action  string       `bson:"action" json:"action"` // e.g., "swap_easy", "reduce_duration"
	Patch   WorkoutPatch `bson:"patch" json:"patch"`
	Summary string       `bson:"summary" json:"summary"`
}

// CheckIn is the daily readiness self-report, one record per (athlete, day).
// Submissions for the same day upsert onto the same record.
type CheckIn struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AthleteID primitive.ObjectID  `bson:"athleteId" json:"athleteId"`
	Date      time.Time           `bson:"date" json:"date"` // Calendar day (midnight UTC)
	WorkoutID *primitive.ObjectID `bson:"workoutId,omitempty" json:"workoutId,omitempty"`

	// Raw inputs; exactly one of the two is set, per Scale.
	Scale    ScaleFamily     `bson:"scale" json:"scale"`
	Standard *StandardInputs `bson:"standard,omitempty" json:"standard,omitempty"`
	Wellness *WellnessInputs `bson:"wellness,omitempty" json:"wellness,omitempty"`
	Notes    string          `bson:"notes,omitempty" json:"notes,omitempty"`

	// Derived scoring.
	ReadinessScore int      `bson:"readinessScore" json:"readinessScore"`
	TopFactor      string   `bson:"topFactor,omitempty" json:"topFactor,omitempty"`
	KeyFactors     []string `bson:"keyFactors,omitempty" json:"keyFactors,omitempty"`
	Recommendation string   `bson:"recommendation,omitempty" json:"recommendation,omitempty"`

	// Decision state.
	AIDecision    Decision               `bson:"aiDecision,omitempty" json:"aiDecision,omitempty"`
	AIConfidence  int                    `bson:"aiConfidence,omitempty" json:"aiConfidence,omitempty"`
	AIExplanation string                 `bson:"aiExplanation,omitempty" json:"aiExplanation,omitempty"`
	AIReason      *RecommendationPayload `bson:"aiReasonJson,omitempty" json:"aiReasonJson,omitempty"`

	// User response. Nil means undecided; false means overridden.
	UserAccepted       *bool  `bson:"userAccepted,omitempty" json:"userAccepted,omitempty"`
	UserOverrideReason string `bson:"userOverrideReason,omitempty" json:"userOverrideReason,omitempty"`

	// Set once the linked session is started; no field above may be mutated
	// after this point.
	LockedAt *time.Time `bson:"lockedAt,omitempty" json:"lockedAt,omitempty"`

	// Undo source: the linked session's mutable fields at check-in time.
	OriginalWorkout *SnapshotPayload `bson:"originalWorkoutJson,omitempty" json:"originalWorkoutJson,omitempty"`

	// Set when the applier actually changed the session, so a later accept
	// does not re-apply the same transformation. Cleared by undo.
	AdaptationAppliedAt *time.Time `bson:"adaptationAppliedAt,omitempty" json:"adaptationAppliedAt,omitempty"`

	// Conflict detector output (wellness path only).
	HasConflict        bool                `bson:"hasConflict,omitempty" json:"hasConflict,omitempty"`
	ConflictReason     string              `bson:"conflictReason,omitempty" json:"conflictReason,omitempty"`
	SuggestedChange    *ConflictSuggestion `bson:"suggestedChange,omitempty" json:"suggestedChange,omitempty"`
	ConflictResolution string              `bson:"conflictResolution,omitempty" json:"conflictResolution,omitempty"` // "accepted" | "declined"

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsLocked reports whether the check-in is frozen against further mutation.
func (c *CheckIn) IsLocked() bool {
	return c.LockedAt != nil
}

// HasDecision reports whether the decision pipeline already ran for this record.
func (c *CheckIn) HasDecision() bool {
	return c.AIDecision != ""
}
