package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/repository"
)

// Behavior signal thresholds.
const (
	defaultStatsWindowDays = 30
	signalWindowDays       = 7
	signalOverrideCount    = 3
)

// Insight texts surfaced to the coach view.
const (
	insightRecalibrate = "Athlete frequently overrides recommendations; recalibrate decision thresholds."
	insightCautious    = "Athlete pushes through rest recommendations; be more cautious with high-load days."
	insightIntensity   = "Athlete prefers full intensity; raise the reduction threshold."
	insightTrusts      = "Athlete trusts recommendations; calibration is working."
)

// OverrideStats summarizes how the athlete responded to recommendations
// over a trailing window.
type OverrideStats struct {
	WindowDays   int                     `json:"windowDays"`
	TotalDecided int                     `json:"totalDecided"` // check-ins carrying a recommendation decision
	Overrides    int                     `json:"overrides"`
	OverrideRate float64                 `json:"overrideRate"` // overrides/totalDecided as a fraction 0..1, not a percentage
	PerDecision  map[domain.Decision]int `json:"perDecision"`  // overrides broken down by recommended decision
	Insight      string                  `json:"insight,omitempty"`
}

// --- Service Interface ---

type InsightService interface {
	// OverrideStats aggregates the athlete's accept/override behavior over
	// the trailing window (30 days when windowDays <= 0).
	OverrideStats(ctx context.Context, athleteID primitive.ObjectID, windowDays int) (*OverrideStats, error)

	// RecordBehaviorSignal emits an OVERRIDE_BEHAVIOR_SIGNAL audit entry
	// when the athlete overrode three or more recommendations in the last
	// seven days. At most one signal per seven-day window; reports whether
	// a new signal was written.
	RecordBehaviorSignal(ctx context.Context, athleteID primitive.ObjectID) (bool, error)
}

// --- Service Implementation ---

type insightService struct {
	checkInRepo repository.CheckInRepository
	auditRepo   repository.AuditRepository
	sink        analytics.EventSink
	logger      *zap.Logger
	now         func() time.Time
}

// NewInsightService creates a new instance of insightService.
func NewInsightService(
	checkInRepo repository.CheckInRepository,
	auditRepo repository.AuditRepository,
	sink analytics.EventSink,
	logger *zap.Logger,
) InsightService {
	return &insightService{
		checkInRepo: checkInRepo,
		auditRepo:   auditRepo,
		sink:        sink,
		logger:      logger.Named("insight"),
		now:         time.Now,
	}
}

func (s *insightService) OverrideStats(ctx context.Context, athleteID primitive.ObjectID, windowDays int) (*OverrideStats, error) {
	if windowDays <= 0 {
		windowDays = defaultStatsWindowDays
	}
	since := s.now().UTC().AddDate(0, 0, -windowDays)

	checkIns, err := s.checkInRepo.ListByAthleteSince(ctx, athleteID, since)
	if err != nil {
		return nil, err
	}

	stats := &OverrideStats{
		WindowDays:  windowDays,
		PerDecision: make(map[domain.Decision]int),
	}
	// Every check-in that got a decision counts in the denominator; leaving
	// a recommendation unanswered is not an override.
	for i := range checkIns {
		c := &checkIns[i]
		if c.AIDecision == "" {
			continue
		}
		stats.TotalDecided++
		if a := c.UserAccepted; a != nil && !*a {
			stats.Overrides++
			stats.PerDecision[c.AIDecision]++
		}
	}
	if stats.TotalDecided > 0 {
		stats.OverrideRate = float64(stats.Overrides) / float64(stats.TotalDecided)
	}
	stats.Insight = insightFor(stats)
	return stats, nil
}

// insightFor picks the first matching insight rule, most specific first.
func insightFor(stats *OverrideStats) string {
	switch {
	case stats.OverrideRate >= 0.5 && stats.Overrides >= 3:
		return insightRecalibrate
	case stats.PerDecision[domain.DecisionRest] >= 2:
		return insightCautious
	case stats.PerDecision[domain.DecisionReduceIntensity] >= 2:
		return insightIntensity
	case stats.OverrideRate <= 0.2 && stats.TotalDecided >= 5:
		return insightTrusts
	}
	return ""
}

func (s *insightService) RecordBehaviorSignal(ctx context.Context, athleteID primitive.ObjectID) (bool, error) {
	since := s.now().UTC().AddDate(0, 0, -signalWindowDays)

	checkIns, err := s.checkInRepo.ListByAthleteSince(ctx, athleteID, since)
	if err != nil {
		return false, err
	}
	overrides := 0
	for i := range checkIns {
		if a := checkIns[i].UserAccepted; a != nil && !*a {
			overrides++
		}
	}
	if overrides < signalOverrideCount {
		return false, nil
	}

	// Dedup: one signal per trailing window, regardless of how many more
	// overrides follow.
	already, err := s.auditRepo.HasActionSince(ctx, athleteID, domain.AuditOverrideSignal, since)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	entry := &domain.AuditLogEntry{
		ActorID:    athleteID,
		Action:     domain.AuditOverrideSignal,
		TargetType: domain.AuditTargetAthlete,
		TargetID:   athleteID,
		Summary:    "Athlete overrode three or more recommendations in the last week",
		Details: map[string]interface{}{
			"overrides":  overrides,
			"windowDays": signalWindowDays,
		},
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		return false, err
	}

	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventBehaviorSignal, athleteID.Hex(), map[string]interface{}{
		"overrides":  overrides,
		"windowDays": signalWindowDays,
	}))
	s.logger.Info("override behavior signal recorded",
		zap.String("athleteId", athleteID.Hex()), zap.Int("overrides", overrides))
	return true, nil
}
