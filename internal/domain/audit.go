package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditAction names one state-changing action recorded in the audit log.
type AuditAction string

const (
	AuditCheckInSubmitted       AuditAction = "CHECKIN_SUBMITTED"
	AuditRecommendationAccepted AuditAction = "RECOMMENDATION_ACCEPTED"
	AuditRecommendationOverride AuditAction = "RECOMMENDATION_OVERRIDDEN"
	AuditWorkoutAdapted         AuditAction = "WORKOUT_ADAPTED"
	AuditWorkoutUndone          AuditAction = "WORKOUT_UNDONE"
	AuditProposalCreated        AuditAction = "PROPOSAL_CREATED"
	AuditProposalApplied        AuditAction = "PROPOSAL_APPLIED"
	AuditProposalDeclined       AuditAction = "PROPOSAL_DECLINED"
	AuditConflictAccepted       AuditAction = "CONFLICT_ACCEPTED"
	AuditConflictDeclined       AuditAction = "CONFLICT_DECLINED"
	AuditOverrideSignal         AuditAction = "OVERRIDE_BEHAVIOR_SIGNAL"
)

// Audit target types.
const (
	AuditTargetCheckIn  = "checkin"
	AuditTargetWorkout  = "workout"
	AuditTargetProposal = "proposal"
	AuditTargetAthlete  = "athlete"
)

// AuditLogEntry is an append-only record of a state-changing action. Entries
// are never mutated or deleted; Details carries enough structure to
// reconstruct the decision.
type AuditLogEntry struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ActorID    primitive.ObjectID     `bson:"actorId" json:"actorId"`
	Action     AuditAction            `bson:"action" json:"action"`
	TargetType string                 `bson:"targetType" json:"targetType"`
	TargetID   primitive.ObjectID     `bson:"targetId" json:"targetId"`
	Summary    string                 `bson:"summary" json:"summary"`
	Details    map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt  time.Time              `bson:"createdAt" json:"createdAt"`
}
