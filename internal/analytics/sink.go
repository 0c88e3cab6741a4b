package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the engine.
const (
	EventCheckInSubmitted     = "checkin_submitted"
	EventRecommendationServed = "recommendation_served"
	EventWorkoutAdapted       = "workout_adapted"
	EventRecommendationResult = "recommendation_result" // accepted / overridden / undone
	EventProposalResolved     = "proposal_resolved"
	EventConflictResolved     = "conflict_resolved"
	EventBehaviorSignal       = "behavior_signal"
)

// Event is one analytics record. Events are fire-and-forget: sink failures
// are logged by the implementation and never fail the primary operation.
type Event struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	AthleteID  string                 `json:"athleteId"`
	OccurredAt time.Time              `json:"occurredAt"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(name, athleteID string, properties map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		AthleteID:  athleteID,
		OccurredAt: time.Now().UTC(),
		Properties: properties,
	}
}

// EventSink defines the interface for the analytics event writer.
type EventSink interface {
	// Publish records one event. Implementations must swallow their own
	// failures after logging them; callers never branch on the result.
	Publish(ctx context.Context, event Event)
}

// NoopSink discards all events; used when no archive backend is configured.
type NoopSink struct{}

func (NoopSink) Publish(ctx context.Context, event Event) {}
