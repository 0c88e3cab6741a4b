package domain

import "fmt"

// RecommendationType is the five-value enum produced by the recommendation
// pipeline (external adapter or rule-based fallback). The JSON names are part
// of the external service's contract.
type RecommendationType string

const (
	RecKeep            RecommendationType = "keep"
	RecReduceIntensity RecommendationType = "reduce_intensity"
	RecReduceVolume    RecommendationType = "reduce_volume"
	RecSwapSession     RecommendationType = "swap_session"
	RecRest            RecommendationType = "rest"
)

// ParseRecommendationType validates a raw recommendation_type value.
func ParseRecommendationType(s string) (RecommendationType, error) {
	switch RecommendationType(s) {
	case RecKeep, RecReduceIntensity, RecReduceVolume, RecSwapSession, RecRest:
		return RecommendationType(s), nil
	}
	return "", fmt.Errorf("unknown recommendation_type %q", s)
}

// Decision is the check-in decision state shown to the athlete.
type Decision string

const (
	DecisionProceed         Decision = "PROCEED"
	DecisionReduceIntensity Decision = "REDUCE_INTENSITY"
	DecisionShorten         Decision = "SHORTEN"
	DecisionSwapRecovery    Decision = "SWAP_RECOVERY"
	DecisionRest            Decision = "REST"
)

// Decision maps a recommendation type onto the decision enum stored on the
// check-in record.
func (t RecommendationType) Decision() Decision {
	switch t {
	case RecReduceIntensity:
		return DecisionReduceIntensity
	case RecReduceVolume:
		return DecisionShorten
	case RecSwapSession:
		return DecisionSwapRecovery
	case RecRest:
		return DecisionRest
	default:
		return DecisionProceed
	}
}

// RecommendationChanges describes the proposed session change.
type RecommendationChanges struct {
	Apply                bool            `bson:"apply" json:"apply"`
	RequiresConfirmation bool            `bson:"requiresConfirmation" json:"requires_confirmation"`
	Before               WorkoutSnapshot `bson:"before" json:"before"`
	After                WorkoutSnapshot `bson:"after" json:"after"`
	Rationale            []string        `bson:"rationale" json:"rationale"`
}

// RecommendationSource records which pipeline produced a recommendation.
type RecommendationSource string

const (
	SourceAdvisor RecommendationSource = "advisor" // external text-generation service
	SourceRules   RecommendationSource = "rules"   // deterministic fallback
)

// Recommendation is the normalized output of the decision pipeline. It is
// ephemeral; the persisted copy lives on the check-in as a RecommendationPayload.
type Recommendation struct {
	ReadinessScore int                   `bson:"readinessScore" json:"readiness_score"`
	KeyFactors     []string              `bson:"keyFactors" json:"key_factors"`
	Type           RecommendationType    `bson:"recommendationType" json:"recommendation_type"`
	Explanation    string                `bson:"explanation" json:"explanation"`
	Confidence     int                   `bson:"confidence" json:"confidence,omitempty"`
	Changes        RecommendationChanges `bson:"changes" json:"changes"`
	CoachMessage   string                `bson:"coachMessage" json:"coach_message"`
	Source         RecommendationSource  `bson:"source" json:"source,omitempty"`
}

// RecommendationPayload is the persisted form of aiReasonJson.
type RecommendationPayload struct {
	Kind           string         `bson:"kind" json:"kind"`
	Version        int            `bson:"version" json:"version"`
	Recommendation Recommendation `bson:"recommendation" json:"recommendation"`
}

// NewRecommendationPayload wraps a recommendation with its discriminator.
func NewRecommendationPayload(r Recommendation) *RecommendationPayload {
	return &RecommendationPayload{Kind: PayloadKindRecommendation, Version: PayloadVersion, Recommendation: r}
}
