package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"pulsecoach/endurance-app/internal/domain"
)

// systemPrompt pins the exact output contract. The service must answer with
// one JSON object and nothing else; anything outside the schema is discarded
// by validation.
const systemPrompt = `You are an endurance training coach reviewing an athlete's daily readiness check-in.

Decide whether today's scheduled session should proceed, be reduced, swapped for an easier activity, or skipped. Be conservative: protecting the athlete's long-term consistency beats completing any single session.

Respond with exactly one JSON object matching this schema, and no other text:
{
  "readiness_score": <integer 0-100>,
  "key_factors": [<up to 6 strings naming the limiting dimensions>],
  "recommendation_type": "keep" | "reduce_intensity" | "reduce_volume" | "swap_session" | "rest",
  "explanation": <string, 1-3 sentences for the athlete>,
  "confidence": <integer 0-100>,
  "changes": {
    "apply": <boolean, true when the session should actually change>,
    "requires_confirmation": <boolean>,
    "before": {"title": <string>, "type": <string>, "duration_min": <integer>, "tss": <integer>},
    "after": {"title": <string>, "type": <string>, "duration_min": <integer>, "tss": <integer>},
    "rationale": [<strings explaining each change>]
  },
  "coach_message": <string, one motivational sentence>
}

If recommendation_type is "keep", changes.apply must be false and after must equal before.`

// promptPayload is the user-message body, serialized as JSON so the model
// sees an unambiguous structure.
type promptPayload struct {
	Date       string                  `json:"date"`
	CheckIn    promptCheckIn           `json:"check_in"`
	Planned    *domain.WorkoutSnapshot `json:"planned_session"`
	Last7Days  promptLoad              `json:"last_7_days"`
	Athlete    AthleteConstraints      `json:"athlete"`
	Guardrails promptGuardrails        `json:"guardrails"`
}

type promptCheckIn struct {
	ReadinessScore int            `json:"readiness_score"`
	TopFactor      string         `json:"top_factor"`
	KeyFactors     []string       `json:"key_factors,omitempty"`
	Report         map[string]int `json:"report"`
	Notes          string         `json:"notes,omitempty"`
}

type promptLoad struct {
	PlannedSessions   int     `json:"planned_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	CompliancePct     int     `json:"compliance_pct"`
	CompletedTSS      int     `json:"completed_tss"`
	PlannedMinutes    int     `json:"planned_minutes"`
	IntenseSessions   int     `json:"intense_sessions"`
	RampRate          float64 `json:"ramp_rate"`
}

type promptGuardrails struct {
	RampRate   float64  `json:"ramp_rate"`
	RiskStatus string   `json:"risk_status"`
	Warnings   []string `json:"warnings,omitempty"`
}

// buildPrompt renders the check-in, today's plan, the trailing-7-day rollup,
// athlete constraints and guardrail state into the user message.
func buildPrompt(req Request) string {
	payload := promptPayload{
		Date: req.Date.Format("2006-01-02"),
		CheckIn: promptCheckIn{
			ReadinessScore: req.ReadinessScore,
			TopFactor:      req.TopFactor,
			KeyFactors:     req.KeyFactors,
			Report:         req.Report,
			Notes:          req.Notes,
		},
		Planned: req.Planned,
		Last7Days: promptLoad{
			PlannedSessions:   req.Load.PlannedSessions,
			CompletedSessions: req.Load.CompletedSessions,
			CompliancePct:     req.Load.CompliancePct,
			CompletedTSS:      req.Load.CompletedTSS,
			PlannedMinutes:    req.Load.PlannedMin,
			IntenseSessions:   req.Load.IntenseCompleted,
			RampRate:          req.Load.RampRate,
		},
		Athlete: req.Athlete,
		Guardrails: promptGuardrails{
			RampRate:   req.Guardrails.RampRate,
			RiskStatus: req.Guardrails.RiskStatus,
			Warnings:   req.Guardrails.Warnings,
		},
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		// Marshal of plain structs cannot realistically fail; degrade to a
		// minimal prompt rather than aborting the adapter.
		return fmt.Sprintf("Readiness score: %d. No further context available.", req.ReadinessScore)
	}

	var b strings.Builder
	b.WriteString("Here is today's check-in and training context:\n\n")
	b.Write(body)
	if req.Planned == nil {
		b.WriteString("\n\nNo session is scheduled today; only \"keep\" or \"rest\" make sense.")
	}
	return b.String()
}
