package advisor

import (
	"encoding/json"
	"fmt"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/llm"
)

const maxKeyFactors = 6

// wire mirrors the response schema with pointer fields so that missing keys
// are distinguishable from zero values. A mistyped field fails unmarshalling
// outright; a missing one fails the explicit checks below.
type wireRecommendation struct {
	ReadinessScore *int         `json:"readiness_score"`
	KeyFactors     *[]string    `json:"key_factors"`
	Type           *string      `json:"recommendation_type"`
	Explanation    *string      `json:"explanation"`
	Confidence     *int         `json:"confidence"`
	Changes        *wireChanges `json:"changes"`
	CoachMessage   *string      `json:"coach_message"`
}

type wireChanges struct {
	Apply                *bool           `json:"apply"`
	RequiresConfirmation *bool           `json:"requires_confirmation"`
	Before               json.RawMessage `json:"before"`
	After                json.RawMessage `json:"after"`
	Rationale            *[]string       `json:"rationale"`
}

// parseRecommendation extracts the single JSON object from the raw model
// output and validates it strictly against the schema. Any missing or
// mistyped field, or an enum value outside the five recognized types, is an
// adapter failure.
func parseRecommendation(raw string) (*domain.Recommendation, error) {
	jsonStr, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var w wireRecommendation
	if err := json.Unmarshal([]byte(jsonStr), &w); err != nil {
		return nil, fmt.Errorf("malformed recommendation object: %w", err)
	}

	switch {
	case w.ReadinessScore == nil:
		return nil, fmt.Errorf("missing readiness_score")
	case w.KeyFactors == nil:
		return nil, fmt.Errorf("missing key_factors")
	case w.Type == nil:
		return nil, fmt.Errorf("missing recommendation_type")
	case w.Explanation == nil:
		return nil, fmt.Errorf("missing explanation")
	case w.Changes == nil:
		return nil, fmt.Errorf("missing changes")
	case w.CoachMessage == nil:
		return nil, fmt.Errorf("missing coach_message")
	case w.Changes.Apply == nil:
		return nil, fmt.Errorf("missing changes.apply")
	case w.Changes.RequiresConfirmation == nil:
		return nil, fmt.Errorf("missing changes.requires_confirmation")
	case w.Changes.Before == nil:
		return nil, fmt.Errorf("missing changes.before")
	case w.Changes.After == nil:
		return nil, fmt.Errorf("missing changes.after")
	case w.Changes.Rationale == nil:
		return nil, fmt.Errorf("missing changes.rationale")
	}

	if *w.ReadinessScore < 0 || *w.ReadinessScore > 100 {
		return nil, fmt.Errorf("readiness_score %d out of range", *w.ReadinessScore)
	}
	if len(*w.KeyFactors) > maxKeyFactors {
		return nil, fmt.Errorf("key_factors has %d entries, max %d", len(*w.KeyFactors), maxKeyFactors)
	}

	recType, err := domain.ParseRecommendationType(*w.Type)
	if err != nil {
		return nil, err
	}

	// before/after only need to be well-formed objects; their content is
	// recomputed server-side and never trusted.
	var snap domain.WorkoutSnapshot
	if err := json.Unmarshal(w.Changes.Before, &snap); err != nil {
		return nil, fmt.Errorf("malformed changes.before: %w", err)
	}
	if err := json.Unmarshal(w.Changes.After, &snap); err != nil {
		return nil, fmt.Errorf("malformed changes.after: %w", err)
	}

	confidence := 0
	if w.Confidence != nil {
		confidence = clampPct(*w.Confidence)
	}

	rec := &domain.Recommendation{
		ReadinessScore: *w.ReadinessScore,
		KeyFactors:     *w.KeyFactors,
		Type:           recType,
		Explanation:    *w.Explanation,
		Confidence:     confidence,
		Changes: domain.RecommendationChanges{
			Apply:                *w.Changes.Apply,
			RequiresConfirmation: *w.Changes.RequiresConfirmation,
			Rationale:            *w.Changes.Rationale,
		},
		CoachMessage: *w.CoachMessage,
	}

	// Schema invariant: a keep recommendation never applies a change.
	if rec.Type == domain.RecKeep && rec.Changes.Apply {
		return nil, fmt.Errorf("keep recommendation with changes.apply=true")
	}

	return rec, nil
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
