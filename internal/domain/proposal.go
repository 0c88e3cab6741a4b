package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProposalStatus type for proposal lifecycle
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "PENDING"
	ProposalApplied  ProposalStatus = "APPLIED"  // Patch applied to the session
	ProposalDeclined ProposalStatus = "DECLINED" // Discarded, no mutation
)

// ProposalSource records which component produced the proposal.
type ProposalSource string

const (
	ProposalSourceRecommendation ProposalSource = "recommendation"
	ProposalSourceConflict       ProposalSource = "conflict"
)

// PlanChangeProposal is a deferred, explicit-confirmation patch against a
// locked session. Created only when the rigidity gate reports the target
// session as locked; terminal once applied or declined, single consumption.
type PlanChangeProposal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID  primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	WorkoutID  primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	CheckInID  primitive.ObjectID `bson:"checkInId" json:"checkInId"`
	Source     ProposalSource     `bson:"source" json:"source"`
	Status     ProposalStatus     `bson:"status" json:"status"`
	Patch      PatchPayload       `bson:"patch" json:"patch"`
	Summary    string             `bson:"summary" json:"summary"`
	Confidence int                `bson:"confidence" json:"confidence"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	ResolvedAt *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}
