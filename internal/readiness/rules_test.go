package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pulsecoach/endurance-app/internal/domain"
)

func TestEvaluateLadder(t *testing.T) {
	tests := []struct {
		name string
		in   RuleInput
		ctx  TrainingContext
		want domain.RecommendationType
		conf int
	}{
		{
			name: "critically low readiness rests",
			in:   RuleInput{Readiness: 25},
			want: domain.RecRest,
			conf: 90,
		},
		{
			name: "low readiness deep in the hole swaps",
			in:   RuleInput{Readiness: 40},
			ctx:  TrainingContext{TSB: -25},
			want: domain.RecSwapSession,
			conf: 80,
		},
		{
			name: "low readiness with ok form reduces intensity instead",
			in:   RuleInput{Readiness: 40},
			ctx:  TrainingContext{TSB: -10},
			want: domain.RecReduceIntensity,
			conf: 70,
		},
		{
			name: "very high soreness swaps regardless of readiness",
			in:   RuleInput{Readiness: 72, Soreness: 80},
			want: domain.RecSwapSession,
			conf: 75,
		},
		{
			name: "below quality threshold reduces intensity",
			in:   RuleInput{Readiness: 50, Fatigue: 70},
			want: domain.RecReduceIntensity,
			conf: 70,
		},
		{
			name: "moderate readiness against heavy load shortens",
			in:   RuleInput{Readiness: 60},
			ctx:  TrainingContext{PlannedTSS: 95},
			want: domain.RecReduceVolume,
			conf: 65,
		},
		{
			name: "moderate readiness with light load keeps",
			in:   RuleInput{Readiness: 60},
			ctx:  TrainingContext{PlannedTSS: 50},
			want: domain.RecKeep,
			conf: 60,
		},
		{
			name: "high readiness keeps with score as confidence",
			in:   RuleInput{Readiness: 85},
			want: domain.RecKeep,
			conf: 85,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.in, tt.ctx)
			assert.Equal(t, tt.want, result.Type)
			assert.Equal(t, tt.conf, result.Confidence)
			assert.NotEmpty(t, result.Explanation)
			assert.NotEmpty(t, result.Reasons)
		})
	}
}

func TestEvaluateIsTotal(t *testing.T) {
	// Any input produces a usable decision.
	for readiness := 0; readiness <= 100; readiness += 10 {
		result := Evaluate(RuleInput{Readiness: readiness}, TrainingContext{})
		assert.NotEmpty(t, result.Type, "readiness %d", readiness)
		assert.Greater(t, result.Confidence, 0, "readiness %d", readiness)
	}
}
