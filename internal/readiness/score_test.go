package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsecoach/endurance-app/internal/domain"
)

func TestScoreWorkedExample(t *testing.T) {
	// sleep 80, fatigue 30, motivation 70, soreness 20, stress 40:
	// 0.35*80 + 0.25*70 + 0.20*70 + 0.20*80 - 0.15*40 = 69.5 -> 70
	result, err := Score(ScoreInput{
		SleepQuality: 80,
		Fatigue:      30,
		Motivation:   70,
		Soreness:     20,
		Stress:       40,
	})
	require.NoError(t, err)
	assert.Equal(t, 70, result.Score)
	// Every dimension beats its neutral baseline except stress, which
	// deviates least positively, so stress limits the day (not soreness).
	assert.Equal(t, FactorStress, result.TopFactor)
}

func TestScoreBounds(t *testing.T) {
	tests := []struct {
		name  string
		in    ScoreInput
		score int
	}{
		{
			name:  "best possible day",
			in:    ScoreInput{SleepQuality: 100, Fatigue: 0, Motivation: 100, Soreness: 0, Stress: 0},
			score: 100,
		},
		{
			name:  "worst possible day clamps at zero",
			in:    ScoreInput{SleepQuality: 0, Fatigue: 100, Motivation: 0, Soreness: 100, Stress: 100},
			score: 0,
		},
		{
			name:  "neutral day",
			in:    ScoreInput{SleepQuality: 50, Fatigue: 50, Motivation: 50, Soreness: 50, Stress: 50},
			score: 43, // 17.5 + 12.5 + 10 + 10 - 7.5
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Score(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.score, result.Score)
		})
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	// Sweep a grid of inputs; the score must stay an integer in [0,100]
	// and the top factor must always be named.
	for sleep := 0; sleep <= 100; sleep += 25 {
		for fatigue := 0; fatigue <= 100; fatigue += 25 {
			for stress := 0; stress <= 100; stress += 50 {
				result, err := Score(ScoreInput{
					SleepQuality: sleep,
					Fatigue:      fatigue,
					Motivation:   60,
					Soreness:     40,
					Stress:       stress,
				})
				require.NoError(t, err)
				assert.GreaterOrEqual(t, result.Score, 0)
				assert.LessOrEqual(t, result.Score, 100)
				assert.NotEmpty(t, result.TopFactor)
				assert.NotEmpty(t, result.KeyFactors)
				assert.Equal(t, result.TopFactor, result.KeyFactors[0])
			}
		}
	}
}

func TestScoreRejectsOutOfRange(t *testing.T) {
	_, err := Score(ScoreInput{SleepQuality: 101, Fatigue: 50, Motivation: 50, Soreness: 50, Stress: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sleep")

	_, err = Score(ScoreInput{SleepQuality: 50, Fatigue: -1, Motivation: 50, Soreness: 50, Stress: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fatigue")
}

func TestScoreTopFactorHighSoreness(t *testing.T) {
	result, err := Score(ScoreInput{
		SleepQuality: 80,
		Fatigue:      30,
		Motivation:   70,
		Soreness:     90,
		Stress:       20,
	})
	require.NoError(t, err)
	assert.Equal(t, FactorSoreness, result.TopFactor)
}

func TestRecommendationTextBands(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{85, "primed"},
		{80, "primed"},
		{70, "Solid"},
		{55, "Moderate"},
		{40, "Low readiness"},
		{20, "Very low"},
	}
	for _, tt := range tests {
		assert.Contains(t, recommendationText(tt.score), tt.want, "score %d", tt.score)
	}
}

func TestScoreStandardRescales(t *testing.T) {
	// All-middle report: every 1-5 input maps to 50, soreness moderate -> 50.
	result := ScoreStandard(domain.StandardInputs{
		SleepDuration:   3,
		SleepQuality:    3,
		PhysicalFatigue: 3,
		MentalReadiness: 3,
		Motivation:      3,
		MuscleSoreness:  domain.SorenessModerate,
		StressLevel:     3,
	})
	assert.Equal(t, 43, result.Score)

	best := ScoreStandard(domain.StandardInputs{
		SleepDuration:   5,
		SleepQuality:    5,
		PhysicalFatigue: 1,
		MentalReadiness: 5,
		Motivation:      5,
		MuscleSoreness:  domain.SorenessNone,
		StressLevel:     1,
	})
	assert.Equal(t, 100, best.Score)
}
