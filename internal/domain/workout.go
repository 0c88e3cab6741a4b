package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Common workout types. Title/type matching elsewhere is case-insensitive,
// so these are conventions rather than an exhaustive enum.
const (
	WorkoutTypeRun      = "run"
	WorkoutTypeBike     = "bike"
	WorkoutTypeSwim     = "swim"
	WorkoutTypeStrength = "strength"
	WorkoutTypeRecovery = "recovery"
	WorkoutTypeRest     = "rest"
)

// ScheduledWorkout represents a single scheduled training session, one per
// (athlete, calendar day). It is the only entity this engine mutates.
type ScheduledWorkout struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	Date      time.Time          `bson:"date" json:"date"` // Calendar day of the session (midnight UTC)

	// Mutable prescription fields. These are exactly the fields a
	// WorkoutSnapshot captures and a proposal patch may touch.
	Title            string `bson:"title" json:"title"`
	Type             string `bson:"type" json:"type"`
	DurationMin      int    `bson:"durationMin" json:"durationMin"`
	TSS              int    `bson:"tss" json:"tss"`
	DescriptionMd    string `bson:"descriptionMd,omitempty" json:"descriptionMd,omitempty"`
	PrescriptionJSON string `bson:"prescriptionJson,omitempty" json:"prescriptionJson,omitempty"`
	Notes            string `bson:"notes,omitempty" json:"notes,omitempty"`

	// Completion state, used for trailing-load rollups and the hard-session
	// guardrail. StartedAt doubles as the signal that locks the day's check-in.
	StartedAt   *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ActualTSS   int        `bson:"actualTss,omitempty" json:"actualTss,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutSnapshot is a value object holding the mutable fields of a session.
// It serves as the "before"/"after" halves of a recommendation and as the
// undo source captured at check-in time.
type WorkoutSnapshot struct {
	Title            string `bson:"title" json:"title"`
	Type             string `bson:"type" json:"type"`
	DurationMin      int    `bson:"durationMin" json:"duration_min"`
	TSS              int    `bson:"tss" json:"tss"`
	DescriptionMd    string `bson:"descriptionMd,omitempty" json:"description_md,omitempty"`
	PrescriptionJSON string `bson:"prescriptionJson,omitempty" json:"prescription_json,omitempty"`
	Notes            string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Snapshot captures the workout's mutable fields.
func (w *ScheduledWorkout) Snapshot() WorkoutSnapshot {
	return WorkoutSnapshot{
		Title:            w.Title,
		Type:             w.Type,
		DurationMin:      w.DurationMin,
		TSS:              w.TSS,
		DescriptionMd:    w.DescriptionMd,
		PrescriptionJSON: w.PrescriptionJSON,
		Notes:            w.Notes,
	}
}

// ApplySnapshot overwrites the workout's mutable fields from a snapshot.
func (w *ScheduledWorkout) ApplySnapshot(s WorkoutSnapshot) {
	w.Title = s.Title
	w.Type = s.Type
	w.DurationMin = s.DurationMin
	w.TSS = s.TSS
	w.DescriptionMd = s.DescriptionMd
	w.PrescriptionJSON = s.PrescriptionJSON
	w.Notes = s.Notes
}

// Started reports whether the athlete already started the session.
func (w *ScheduledWorkout) Started() bool {
	return w.StartedAt != nil
}

// WorkoutPatch is a field-level update set against a scheduled workout.
// Nil fields are left untouched when the patch is applied.
type WorkoutPatch struct {
	Title            *string `bson:"title,omitempty" json:"title,omitempty"`
	Type             *string `bson:"type,omitempty" json:"type,omitempty"`
	DurationMin      *int    `bson:"durationMin,omitempty" json:"durationMin,omitempty"`
	TSS              *int    `bson:"tss,omitempty" json:"tss,omitempty"`
	DescriptionMd    *string `bson:"descriptionMd,omitempty" json:"descriptionMd,omitempty"`
	PrescriptionJSON *string `bson:"prescriptionJson,omitempty" json:"prescriptionJson,omitempty"`
	Notes            *string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p WorkoutPatch) IsEmpty() bool {
	return p.Title == nil && p.Type == nil && p.DurationMin == nil &&
		p.TSS == nil && p.DescriptionMd == nil && p.PrescriptionJSON == nil &&
		p.Notes == nil
}

// PatchFromSnapshot builds a full patch that rewrites a session to match the
// given "after" snapshot. Every snapshot field is included so a deferred
// proposal lands the same state a direct mutation would.
func PatchFromSnapshot(after WorkoutSnapshot) WorkoutPatch {
	return WorkoutPatch{
		Title:            &after.Title,
		Type:             &after.Type,
		DurationMin:      &after.DurationMin,
		TSS:              &after.TSS,
		DescriptionMd:    &after.DescriptionMd,
		PrescriptionJSON: &after.PrescriptionJSON,
		Notes:            &after.Notes,
	}
}

// Payload kind/version discriminators for the persisted JSON blobs. A kind
// field on every stored blob prevents silent drift between the shape written
// and the shape read back.
const (
	PayloadKindSnapshot       = "workout_snapshot"
	PayloadKindRecommendation = "recommendation"
	PayloadKindPatch          = "workout_patch"

	PayloadVersion = 1
)

// SnapshotPayload is the persisted form of originalWorkoutJson.
type SnapshotPayload struct {
	Kind     string          `bson:"kind" json:"kind"`
	Version  int             `bson:"version" json:"version"`
	Snapshot WorkoutSnapshot `bson:"snapshot" json:"snapshot"`
}

// NewSnapshotPayload wraps a snapshot with its discriminator.
func NewSnapshotPayload(s WorkoutSnapshot) *SnapshotPayload {
	return &SnapshotPayload{Kind: PayloadKindSnapshot, Version: PayloadVersion, Snapshot: s}
}

// PatchPayload is the persisted form of a proposal patch.
type PatchPayload struct {
	Kind    string       `bson:"kind" json:"kind"`
	Version int          `bson:"version" json:"version"`
	Patch   WorkoutPatch `bson:"patch" json:"patch"`
}

// NewPatchPayload wraps a patch with its discriminator.
func NewPatchPayload(p WorkoutPatch) PatchPayload {
	return PatchPayload{Kind: PayloadKindPatch, Version: PayloadVersion, Patch: p}
}
