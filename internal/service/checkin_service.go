package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/advisor"
	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/readiness"
	"pulsecoach/endurance-app/internal/repository"
)

// loadWindowDays is how far back the pipeline looks when building the
// training context (CTL needs the full window).
const loadWindowDays = 28

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNotAnAthlete   = errors.New("user is not an athlete")
	ErrNoCheckInToday = errors.New("no check-in submitted today")
)

// ReadinessPoint is one day in the readiness trend series.
type ReadinessPoint struct {
	Date     time.Time       `json:"date"`
	Score    int             `json:"score"`
	Decision domain.Decision `json:"decision,omitempty"`
	Accepted *bool           `json:"accepted,omitempty"`
}

// GateInfo describes the rigidity gate's view of one scheduled session.
type GateInfo struct {
	WorkoutID primitive.ObjectID     `json:"workoutId"`
	Date      time.Time              `json:"date"`
	Rigidity  domain.RigiditySetting `json:"rigidity"`
	Locked    bool                   `json:"locked"`
}

// --- Service Interface ---

type CheckInService interface {
	// SubmitWellness runs the full decision pipeline for a 0-100 scale
	// self-report: score, conflict detection, recommendation, apply-now
	// dispatch. Same-day resubmission replaces the earlier record.
	SubmitWellness(ctx context.Context, athleteID primitive.ObjectID, in domain.WellnessInputs, notes string) (*domain.CheckIn, error)

	// SubmitStandard runs the pipeline for a 1-5 scale self-report. The
	// standard path skips conflict detection.
	SubmitStandard(ctx context.Context, athleteID primitive.ObjectID, in domain.StandardInputs, notes string) (*domain.CheckIn, error)

	// GetToday returns today's check-in, or ErrNoCheckInToday.
	GetToday(ctx context.Context, athleteID primitive.ObjectID) (*domain.CheckIn, error)

	// ReadinessSeries returns the trailing readiness trend, oldest first.
	ReadinessSeries(ctx context.Context, athleteID primitive.ObjectID, days int) ([]ReadinessPoint, error)

	// GateStatus reports whether the rigidity gate currently locks a session.
	GateStatus(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*GateInfo, error)
}

// --- Service Implementation ---

type checkInService struct {
	checkInRepo repository.CheckInRepository
	workoutRepo repository.WorkoutRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	adviser     *advisor.Advisor
	applier     AdaptationService
	scorer      readiness.StandardScorer
	sink        analytics.EventSink
	logger      *zap.Logger
	now         func() time.Time
}

// NewCheckInService creates a new instance of checkInService. adviser may be
// nil when no external recommendation service is configured.
func NewCheckInService(
	checkInRepo repository.CheckInRepository,
	workoutRepo repository.WorkoutRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	adviser *advisor.Advisor,
	applier AdaptationService,
	sink analytics.EventSink,
	logger *zap.Logger,
) CheckInService {
	return &checkInService{
		checkInRepo: checkInRepo,
		workoutRepo: workoutRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		adviser:     adviser,
		applier:     applier,
		scorer:      readiness.ScoreStandard,
		sink:        sink,
		logger:      logger.Named("checkin"),
		now:         time.Now,
	}
}

func (s *checkInService) SubmitWellness(ctx context.Context, athleteID primitive.ObjectID, in domain.WellnessInputs, notes string) (*domain.CheckIn, error) {
	score, err := readiness.Score(readiness.ScoreInput{
		SleepQuality: in.SleepQuality,
		Fatigue:      in.Fatigue,
		Motivation:   in.Motivation,
		Soreness:     in.Soreness,
		Stress:       in.Stress,
	})
	if err != nil {
		return nil, err
	}

	checkIn := &domain.CheckIn{
		AthleteID: athleteID,
		Scale:     domain.ScaleWellness,
		Wellness:  &in,
		Notes:     notes,
	}
	report := map[string]int{
		readiness.FactorSleep:      in.SleepQuality,
		readiness.FactorFatigue:    in.Fatigue,
		readiness.FactorMotivation: in.Motivation,
		readiness.FactorSoreness:   in.Soreness,
		readiness.FactorStress:     in.Stress,
	}
	return s.process(ctx, athleteID, checkIn, score, report, true)
}

func (s *checkInService) SubmitStandard(ctx context.Context, athleteID primitive.ObjectID, in domain.StandardInputs, notes string) (*domain.CheckIn, error) {
	if err := validateStandard(in); err != nil {
		return nil, err
	}
	score := s.scorer(in)

	checkIn := &domain.CheckIn{
		AthleteID: athleteID,
		Scale:     domain.ScaleStandard,
		Standard:  &in,
		Notes:     notes,
	}
	// Re-express the 1-5 report on the 0-100 scale for the prompt and the
	// fallback rules; both consume normalized dimensions only.
	report := map[string]int{
		readiness.FactorSleep:      rescale15(in.SleepQuality),
		readiness.FactorFatigue:    rescale15(in.PhysicalFatigue),
		readiness.FactorMotivation: rescale15(in.Motivation),
		readiness.FactorSoreness:   sorenessToPct(in.MuscleSoreness),
		readiness.FactorStress:     rescale15(in.StressLevel),
	}
	return s.process(ctx, athleteID, checkIn, score, report, false)
}

// process is the shared decision pipeline:
// athlete lookup -> lock check -> session snapshot -> training context ->
// rule baseline -> external recommendation (with fallback) -> conflict
// detection -> persist -> apply-now dispatch -> audit.
func (s *checkInService) process(ctx context.Context, athleteID primitive.ObjectID, checkIn *domain.CheckIn, score readiness.ScoreResult, report map[string]int, detectConflicts bool) (*domain.CheckIn, error) {
	athlete, err := s.userRepo.GetByID(ctx, athleteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !athlete.IsAthlete() {
		return nil, ErrNotAnAthlete
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	checkIn.Date = today

	// A started session freezes the day; resubmission is refused rather
	// than silently dropped.
	if existing, err := s.checkInRepo.GetByAthleteAndDate(ctx, athleteID, today); err == nil {
		if existing.IsLocked() {
			return nil, ErrCheckInLocked
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	checkIn.ReadinessScore = score.Score
	checkIn.TopFactor = score.TopFactor
	checkIn.KeyFactors = score.KeyFactors
	checkIn.Recommendation = score.Recommendation

	// Today's session, if any. Its snapshot is the undo source for every
	// later adaptation.
	var planned *domain.WorkoutSnapshot
	workout, err := s.workoutRepo.GetByAthleteAndDate(ctx, athleteID, today)
	switch {
	case err == nil:
		if workout.Started() {
			now := s.now().UTC()
			checkIn.LockedAt = &now
		}
		snap := workout.Snapshot()
		planned = &snap
		checkIn.WorkoutID = &workout.ID
		checkIn.OriginalWorkout = domain.NewSnapshotPayload(snap)
	case errors.Is(err, repository.ErrNotFound):
		// Rest / no-plan day: score and advise, never adapt.
	default:
		return nil, err
	}

	history, err := s.workoutRepo.GetRange(ctx, athleteID, today.AddDate(0, 0, -loadWindowDays), today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	tctx := readiness.BuildContext(history, planned, today)
	load := readiness.Summarize(history, today, 7)
	guard := readiness.Guardrails(load)

	rec := s.decide(ctx, athlete, checkIn, score, report, planned, tctx, load, guard)
	checkIn.AIDecision = rec.Type.Decision()
	checkIn.AIConfidence = rec.Confidence
	checkIn.AIExplanation = rec.Explanation
	checkIn.AIReason = domain.NewRecommendationPayload(rec)

	if detectConflicts {
		if c := readiness.Detect(score.Score, report[readiness.FactorFatigue], report[readiness.FactorSoreness], planned, load.IntenseCompleted); c != nil {
			checkIn.HasConflict = true
			checkIn.ConflictReason = c.Reason
			suggestion := c.Suggestion
			checkIn.SuggestedChange = &suggestion
		}
	}

	id, err := s.checkInRepo.Upsert(ctx, checkIn)
	if err != nil {
		return nil, err
	}
	checkIn.ID = id

	s.audit(ctx, athleteID, checkIn)
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventCheckInSubmitted, athleteID.Hex(), map[string]interface{}{
		"checkInId": id.Hex(),
		"scale":     string(checkIn.Scale),
		"score":     checkIn.ReadinessScore,
		"decision":  string(checkIn.AIDecision),
		"conflict":  checkIn.HasConflict,
	}))

	// Dispatch: keep and no-change decisions mark the check-in accepted
	// as-is; an apply-now change lands without a confirmation round-trip,
	// downgraded to a proposal when the rigidity gate locks the session.
	if result, err := s.applier.ApplyRecommendation(ctx, checkIn, rec); err != nil {
		// The check-in itself stands; the athlete can still accept
		// manually.
		s.logger.Warn("recommendation dispatch failed",
			zap.String("checkInId", id.Hex()), zap.Error(err))
	} else if result.Proposal != nil {
		s.logger.Info("change deferred behind proposal",
			zap.String("checkInId", id.Hex()),
			zap.String("proposalId", result.Proposal.ID.Hex()))
	}

	s.logger.Info("check-in processed",
		zap.String("athleteId", athleteID.Hex()),
		zap.Int("score", checkIn.ReadinessScore),
		zap.String("decision", string(checkIn.AIDecision)),
		zap.String("source", string(rec.Source)))
	return checkIn, nil
}

// decide produces the day's recommendation: the external adapter when it is
// configured and returns valid output, the deterministic rules otherwise.
func (s *checkInService) decide(ctx context.Context, athlete *domain.User, checkIn *domain.CheckIn, score readiness.ScoreResult, report map[string]int, planned *domain.WorkoutSnapshot, tctx readiness.TrainingContext, load readiness.LoadSummary, guard readiness.GuardrailState) domain.Recommendation {
	// The deterministic baseline is always computed first, so a decision
	// of record exists before the external service is even attempted.
	baseline := readiness.Evaluate(readiness.RuleInput{
		Readiness:  score.Score,
		Fatigue:    report[readiness.FactorFatigue],
		Soreness:   report[readiness.FactorSoreness],
		Stress:     report[readiness.FactorStress],
		Motivation: report[readiness.FactorMotivation],
	}, tctx)

	if s.adviser.Available() {
		result := s.adviser.Recommend(ctx, advisor.Request{
			Date:           checkIn.Date,
			ReadinessScore: score.Score,
			TopFactor:      score.TopFactor,
			KeyFactors:     score.KeyFactors,
			Report:         report,
			Notes:          checkIn.Notes,
			Planned:        planned,
			Load:           load,
			Guardrails:     guard,
			Athlete: advisor.AthleteConstraints{
				WeeklyHoursGoal: athlete.WeeklyHoursGoal,
				Experience:      string(athlete.Experience),
				Zones:           athlete.Zones,
			},
		})
		if result.OK() {
			s.logger.Debug("external recommendation adopted",
				zap.String("baseline", string(baseline.Type)),
				zap.String("advisor", string(result.Recommendation.Type)))
			return *result.Recommendation
		}
		s.logger.Warn("external recommendation unusable, falling back to rules",
			zap.String("reason", result.FailureReason))
	}
	return synthesize(baseline, score, planned)
}

// synthesize turns the rule baseline into a full recommendation. Fallback
// changes are never auto-applied; the athlete confirms explicitly.
func synthesize(baseline readiness.RuleResult, score readiness.ScoreResult, planned *domain.WorkoutSnapshot) domain.Recommendation {
	rec := domain.Recommendation{
		ReadinessScore: score.Score,
		KeyFactors:     score.KeyFactors,
		Type:           baseline.Type,
		Explanation:    baseline.Explanation,
		Confidence:     baseline.Confidence,
		CoachMessage:   score.Recommendation,
		Source:         domain.SourceRules,
	}
	rec.Changes.Rationale = baseline.Reasons
	if planned != nil {
		rec.Changes.Before = *planned
		rec.Changes.After = readiness.ComputeAfter(baseline.Type, *planned)
		if baseline.Type != domain.RecKeep {
			rec.Changes.RequiresConfirmation = true
		}
	} else {
		rec.Type = domain.RecKeep
	}
	return rec
}

func (s *checkInService) GetToday(ctx context.Context, athleteID primitive.ObjectID) (*domain.CheckIn, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	checkIn, err := s.checkInRepo.GetByAthleteAndDate(ctx, athleteID, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoCheckInToday
		}
		return nil, err
	}
	return checkIn, nil
}

func (s *checkInService) ReadinessSeries(ctx context.Context, athleteID primitive.ObjectID, days int) ([]ReadinessPoint, error) {
	if days <= 0 {
		days = defaultStatsWindowDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	checkIns, err := s.checkInRepo.ListByAthleteSince(ctx, athleteID, since)
	if err != nil {
		return nil, err
	}

	series := make([]ReadinessPoint, 0, len(checkIns))
	for i := range checkIns {
		c := &checkIns[i]
		series = append(series, ReadinessPoint{
			Date:     c.Date,
			Score:    c.ReadinessScore,
			Decision: c.AIDecision,
			Accepted: c.UserAccepted,
		})
	}
	return series, nil
}

func (s *checkInService) GateStatus(ctx context.Context, athleteID, workoutID primitive.ObjectID) (*GateInfo, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.AthleteID != athleteID {
		return nil, ErrNotOwner
	}
	athlete, err := s.userRepo.GetByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	rigidity := athlete.Rigidity()
	return &GateInfo{
		WorkoutID: workout.ID,
		Date:      workout.Date,
		Rigidity:  rigidity,
		Locked:    readiness.IsLocked(workout.Date, rigidity, s.now()),
	}, nil
}

// --- Helpers ---

func (s *checkInService) audit(ctx context.Context, athleteID primitive.ObjectID, checkIn *domain.CheckIn) {
	entry := &domain.AuditLogEntry{
		ActorID:    athleteID,
		Action:     domain.AuditCheckInSubmitted,
		TargetType: domain.AuditTargetCheckIn,
		TargetID:   checkIn.ID,
		Summary:    fmt.Sprintf("Check-in submitted, readiness %d", checkIn.ReadinessScore),
		Details: map[string]interface{}{
			"scale":    string(checkIn.Scale),
			"score":    checkIn.ReadinessScore,
			"decision": string(checkIn.AIDecision),
		},
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", zap.Error(err))
	}
}

func validateStandard(in domain.StandardInputs) error {
	for name, v := range map[string]int{
		"sleepDuration":   in.SleepDuration,
		"sleepQuality":    in.SleepQuality,
		"physicalFatigue": in.PhysicalFatigue,
		"mentalReadiness": in.MentalReadiness,
		"motivation":      in.Motivation,
		"stressLevel":     in.StressLevel,
	} {
		if v < 1 || v > 5 {
			return fmt.Errorf("%s must be between 1 and 5, got %d", name, v)
		}
	}
	switch in.MuscleSoreness {
	case domain.SorenessNone, domain.SorenessMild, domain.SorenessModerate, domain.SorenessHigh, domain.SorenessSevere:
		return nil
	}
	return fmt.Errorf("unknown soreness level %q", in.MuscleSoreness)
}

func rescale15(v int) int {
	if v < 1 {
		v = 1
	}
	if v > 5 {
		v = 5
	}
	return (v - 1) * 25
}

func sorenessToPct(s domain.Soreness) int {
	switch s {
	case domain.SorenessMild:
		return 25
	case domain.SorenessModerate:
		return 50
	case domain.SorenessHigh:
		return 75
	case domain.SorenessSevere:
		return 100
	default:
		return 0
	}
}
