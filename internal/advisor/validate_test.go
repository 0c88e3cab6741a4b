package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsecoach/endurance-app/internal/domain"
)

const validResponse = `{
  "readiness_score": 52,
  "key_factors": ["fatigue", "sleep"],
  "recommendation_type": "reduce_intensity",
  "explanation": "Fatigue is elevated after yesterday's session.",
  "confidence": 74,
  "changes": {
    "apply": true,
    "requires_confirmation": false,
    "before": {"title": "Intervals", "type": "bike", "duration_min": 75, "tss": 90},
    "after": {"title": "Intervals", "type": "bike", "duration_min": 75, "tss": 77},
    "rationale": ["TSS reduced to 85%"]
  },
  "coach_message": "An easier day now keeps the block on track."
}`

func TestParseRecommendationValid(t *testing.T) {
	rec, err := parseRecommendation(validResponse)
	require.NoError(t, err)
	assert.Equal(t, 52, rec.ReadinessScore)
	assert.Equal(t, domain.RecReduceIntensity, rec.Type)
	assert.Equal(t, 74, rec.Confidence)
	assert.True(t, rec.Changes.Apply)
	assert.Equal(t, []string{"fatigue", "sleep"}, rec.KeyFactors)
}

func TestParseRecommendationWrappedInProse(t *testing.T) {
	raw := "Here is the assessment:\n```json\n" + validResponse + "\n```\nStay safe!"
	rec, err := parseRecommendation(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RecReduceIntensity, rec.Type)
}

func TestParseRecommendationMissingFields(t *testing.T) {
	fields := []string{
		"readiness_score",
		"key_factors",
		"recommendation_type",
		"explanation",
		"changes",
		"coach_message",
	}
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			raw := strings.Replace(validResponse, `"`+field+`"`, `"dropped_`+field+`"`, 1)
			_, err := parseRecommendation(raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestParseRecommendationMissingChangesFields(t *testing.T) {
	for _, field := range []string{"apply", "requires_confirmation", "before", "after", "rationale"} {
		t.Run(field, func(t *testing.T) {
			raw := strings.Replace(validResponse, `"`+field+`"`, `"dropped_`+field+`"`, 1)
			_, err := parseRecommendation(raw)
			require.Error(t, err)
		})
	}
}

func TestParseRecommendationRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "unknown recommendation type",
			mutate:  func(s string) string { return strings.Replace(s, "reduce_intensity", "take_it_easy", 1) },
			wantErr: "recommendation_type",
		},
		{
			name:    "score out of range",
			mutate:  func(s string) string { return strings.Replace(s, `"readiness_score": 52`, `"readiness_score": 140`, 1) },
			wantErr: "out of range",
		},
		{
			name:    "mistyped score",
			mutate:  func(s string) string { return strings.Replace(s, `"readiness_score": 52`, `"readiness_score": "52"`, 1) },
			wantErr: "malformed",
		},
		{
			name: "too many key factors",
			mutate: func(s string) string {
				return strings.Replace(s, `["fatigue", "sleep"]`, `["a","b","c","d","e","f","g"]`, 1)
			},
			wantErr: "key_factors",
		},
		{
			name:    "malformed before object",
			mutate:  func(s string) string { return strings.Replace(s, `{"title": "Intervals", "type": "bike", "duration_min": 75, "tss": 90}`, `"not an object"`, 1) },
			wantErr: "changes.before",
		},
		{
			name: "keep with apply true",
			mutate: func(s string) string {
				return strings.Replace(s, "reduce_intensity", "keep", 1)
			},
			wantErr: "keep recommendation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecommendation(tt.mutate(validResponse))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRecommendationConfidenceOptionalAndClamped(t *testing.T) {
	noConf := strings.Replace(validResponse, `"confidence": 74,`, "", 1)
	rec, err := parseRecommendation(noConf)
	require.NoError(t, err)
	assert.Zero(t, rec.Confidence)

	over := strings.Replace(validResponse, `"confidence": 74`, `"confidence": 250`, 1)
	rec, err = parseRecommendation(over)
	require.NoError(t, err)
	assert.Equal(t, 100, rec.Confidence)
}
