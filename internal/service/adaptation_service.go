package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/readiness"
	"pulsecoach/endurance-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrCheckInNotFound        = errors.New("check-in not found")
	ErrWorkoutNotFound        = errors.New("workout not found")
	ErrCheckInLocked          = errors.New("check-in is locked: the session was already started")
	ErrNoDecision             = errors.New("check-in has no recommendation to act on")
	ErrNotOwner               = errors.New("check-in does not belong to this athlete")
	ErrOverrideReasonRequired = errors.New("an override reason is required")
	ErrNothingToUndo          = errors.New("no original workout snapshot to restore")
	ErrNoConflict             = errors.New("check-in has no unresolved conflict")
)

// ApplyResult reports what the applier did with a recommendation.
type ApplyResult struct {
	Mutated  bool                       // session changed in place
	After    *domain.WorkoutSnapshot    // the session's state after a mutation
	Proposal *domain.PlanChangeProposal // set when the change was deferred
}

// --- Decision table ---
//
// The locked-vs-mutate-vs-propose branching is a small state machine over
// (lock status x recommendation type). Keeping it as a literal table makes
// the ten combinations exhaustively visible and testable.

type adaptOutcome int

const (
	outcomeNone    adaptOutcome = iota // no change to the session
	outcomeMutate                      // write the new snapshot directly
	outcomePropose                     // defer behind a proposal
)

type adaptKey struct {
	locked bool
	rec    domain.RecommendationType
}

var adaptTable = map[adaptKey]adaptOutcome{
	{locked: false, rec: domain.RecKeep}:            outcomeNone,
	{locked: true, rec: domain.RecKeep}:             outcomeNone,
	{locked: false, rec: domain.RecReduceIntensity}: outcomeMutate,
	{locked: true, rec: domain.RecReduceIntensity}:  outcomePropose,
	{locked: false, rec: domain.RecReduceVolume}:    outcomeMutate,
	{locked: true, rec: domain.RecReduceVolume}:     outcomePropose,
	{locked: false, rec: domain.RecSwapSession}:     outcomeMutate,
	{locked: true, rec: domain.RecSwapSession}:      outcomePropose,
	{locked: false, rec: domain.RecRest}:            outcomeMutate,
	{locked: true, rec: domain.RecRest}:             outcomePropose,
}

// --- Service Interface ---

type AdaptationService interface {
	// ApplyRecommendation dispatches a freshly decided recommendation: keep
	// and no-change decisions mark the check-in accepted as-is, apply-now
	// changes mutate the session or defer behind a proposal when locked.
	ApplyRecommendation(ctx context.Context, checkIn *domain.CheckIn, rec domain.Recommendation) (*ApplyResult, error)

	// Accept marks the recommendation accepted and applies it if it was not
	// already applied at submit time.
	Accept(ctx context.Context, athleteID, checkInID primitive.ObjectID) (*ApplyResult, error)

	// Override rejects the recommendation, restoring the session if the
	// applier already changed it.
	Override(ctx context.Context, athleteID, checkInID primitive.ObjectID, reason string) error

	// Undo restores the session to the snapshot captured at check-in time.
	Undo(ctx context.Context, athleteID, checkInID primitive.ObjectID) error

	// AcceptConflict applies the conflict detector's suggested change,
	// routed through the same gate/proposal logic as recommendations.
	AcceptConflict(ctx context.Context, athleteID, checkInID primitive.ObjectID) (*ApplyResult, error)

	// DeclineConflict discards the suggestion with no session mutation.
	DeclineConflict(ctx context.Context, athleteID, checkInID primitive.ObjectID) error
}

// --- Service Implementation ---

type adaptationService struct {
	checkInRepo  repository.CheckInRepository
	workoutRepo  repository.WorkoutRepository
	userRepo     repository.UserRepository
	proposalRepo repository.ProposalRepository
	auditRepo    repository.AuditRepository
	insights     InsightService
	sink         analytics.EventSink
	logger       *zap.Logger
	now          func() time.Time
}

// NewAdaptationService creates a new instance of adaptationService.
func NewAdaptationService(
	checkInRepo repository.CheckInRepository,
	workoutRepo repository.WorkoutRepository,
	userRepo repository.UserRepository,
	proposalRepo repository.ProposalRepository,
	auditRepo repository.AuditRepository,
	insights InsightService,
	sink analytics.EventSink,
	logger *zap.Logger,
) AdaptationService {
	return &adaptationService{
		checkInRepo:  checkInRepo,
		workoutRepo:  workoutRepo,
		userRepo:     userRepo,
		proposalRepo: proposalRepo,
		auditRepo:    auditRepo,
		insights:     insights,
		sink:         sink,
		logger:       logger.Named("adaptation"),
		now:          time.Now,
	}
}

// ApplyRecommendation dispatches a recommendation through the decision table.
func (s *adaptationService) ApplyRecommendation(ctx context.Context, checkIn *domain.CheckIn, rec domain.Recommendation) (*ApplyResult, error) {
	if rec.Type == domain.RecKeep || !rec.Changes.Apply {
		// No change requested: the check-in is accepted as-is, with no
		// downstream effect on the session.
		accepted := true
		if err := s.checkInRepo.SetUserAccepted(ctx, checkIn.ID, &accepted, ""); err != nil {
			return nil, err
		}
		checkIn.UserAccepted = &accepted
		return &ApplyResult{}, nil
	}
	if checkIn.WorkoutID == nil {
		// Nothing scheduled; a rest/no-plan day cannot be adapted.
		return &ApplyResult{}, nil
	}
	return s.dispatch(ctx, checkIn, rec.Type, rec.Explanation, rec.Confidence, domain.ProposalSourceRecommendation)
}

// dispatch resolves the lock state and executes the table outcome.
func (s *adaptationService) dispatch(ctx context.Context, checkIn *domain.CheckIn, recType domain.RecommendationType, summary string, confidence int, source domain.ProposalSource) (*ApplyResult, error) {
	workout, err := s.workoutRepo.GetByID(ctx, *checkIn.WorkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	athlete, err := s.userRepo.GetByID(ctx, checkIn.AthleteID)
	if err != nil {
		return nil, err
	}

	locked := readiness.IsLocked(workout.Date, athlete.Rigidity(), s.now())
	before := workout.Snapshot()
	after := readiness.ComputeAfter(recType, before)

	switch adaptTable[adaptKey{locked: locked, rec: recType}] {
	case outcomeNone:
		return &ApplyResult{}, nil

	case outcomeMutate:
		if err := s.workoutRepo.UpdateSnapshot(ctx, workout.ID, after); err != nil {
			return nil, err
		}
		s.markApplied(ctx, checkIn)
		s.audit(ctx, checkIn.AthleteID, domain.AuditWorkoutAdapted, domain.AuditTargetWorkout, workout.ID,
			"Session adapted: "+string(recType), map[string]interface{}{
				"checkInId": checkIn.ID.Hex(),
				"decision":  string(recType.Decision()),
				"before":    before,
				"after":     after,
			})
		s.sink.Publish(ctx, analytics.NewEvent(analytics.EventWorkoutAdapted, checkIn.AthleteID.Hex(), map[string]interface{}{
			"workoutId": workout.ID.Hex(),
			"decision":  string(recType.Decision()),
		}))
		return &ApplyResult{Mutated: true, After: &after}, nil

	case outcomePropose:
		return s.propose(ctx, checkIn, workout, after, summary, confidence, source)
	}
	return &ApplyResult{}, nil
}

// propose creates a PENDING proposal for a locked session, reusing an
// existing pending proposal for the same check-in rather than duplicating it.
func (s *adaptationService) propose(ctx context.Context, checkIn *domain.CheckIn, workout *domain.ScheduledWorkout, after domain.WorkoutSnapshot, summary string, confidence int, source domain.ProposalSource) (*ApplyResult, error) {
	if existing, err := s.proposalRepo.GetPendingByCheckIn(ctx, checkIn.ID); err == nil {
		return &ApplyResult{Proposal: existing}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	proposal := &domain.PlanChangeProposal{
		AthleteID:  checkIn.AthleteID,
		WorkoutID:  workout.ID,
		CheckInID:  checkIn.ID,
		Source:     source,
		Patch:      domain.NewPatchPayload(domain.PatchFromSnapshot(after)),
		Summary:    summary,
		Confidence: confidence,
	}
	id, err := s.proposalRepo.Create(ctx, proposal)
	if err != nil {
		return nil, err
	}
	proposal.ID = id

	s.audit(ctx, checkIn.AthleteID, domain.AuditProposalCreated, domain.AuditTargetProposal, id,
		"Plan change proposed for locked session", map[string]interface{}{
			"checkInId": checkIn.ID.Hex(),
			"workoutId": workout.ID.Hex(),
			"summary":   summary,
		})
	return &ApplyResult{Proposal: proposal}, nil
}

// Accept marks a recommendation accepted and applies any outstanding change.
func (s *adaptationService) Accept(ctx context.Context, athleteID, checkInID primitive.ObjectID) (*ApplyResult, error) {
	checkIn, err := s.loadOwned(ctx, athleteID, checkInID)
	if err != nil {
		return nil, err
	}
	if checkIn.IsLocked() {
		return nil, ErrCheckInLocked
	}
	if !checkIn.HasDecision() || checkIn.AIReason == nil {
		return nil, ErrNoDecision
	}

	accepted := true
	if err := s.checkInRepo.SetUserAccepted(ctx, checkIn.ID, &accepted, ""); err != nil {
		return nil, err
	}

	rec := checkIn.AIReason.Recommendation
	result := &ApplyResult{}

	// The apply-now path may already have changed the session at submit
	// time; accepting then only records the response.
	if checkIn.AdaptationAppliedAt == nil && checkIn.WorkoutID != nil && rec.Type != domain.RecKeep {
		result, err = s.dispatch(ctx, checkIn, rec.Type, rec.Explanation, rec.Confidence, domain.ProposalSourceRecommendation)
		if err != nil {
			// Roll the acceptance back to undecided so the UI does not
			// claim a change that never landed.
			if rbErr := s.checkInRepo.SetUserAccepted(ctx, checkIn.ID, nil, ""); rbErr != nil {
				s.logger.Error("failed to roll back acceptance state",
					zap.String("checkInId", checkIn.ID.Hex()), zap.Error(rbErr))
			}
			return nil, err
		}
	}

	s.audit(ctx, athleteID, domain.AuditRecommendationAccepted, domain.AuditTargetCheckIn, checkIn.ID,
		"Recommendation accepted", map[string]interface{}{
			"decision": string(checkIn.AIDecision),
			"mutated":  result.Mutated,
			"proposed": result.Proposal != nil,
		})
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventRecommendationResult, athleteID.Hex(), map[string]interface{}{
		"checkInId": checkIn.ID.Hex(),
		"response":  "accepted",
		"decision":  string(checkIn.AIDecision),
	}))
	return result, nil
}

// Override records a rejection, restoring the session when the applier had
// already changed it.
func (s *adaptationService) Override(ctx context.Context, athleteID, checkInID primitive.ObjectID, reason string) error {
	if reason == "" {
		return ErrOverrideReasonRequired
	}

	checkIn, err := s.loadOwned(ctx, athleteID, checkInID)
	if err != nil {
		return err
	}
	if checkIn.IsLocked() {
		return ErrCheckInLocked
	}
	if !checkIn.HasDecision() {
		return ErrNoDecision
	}

	rejected := false
	if err := s.checkInRepo.SetUserAccepted(ctx, checkIn.ID, &rejected, reason); err != nil {
		return err
	}

	// An auto-applied change the athlete rejects gets rolled back.
	if checkIn.AdaptationAppliedAt != nil {
		if err := s.restoreOriginal(ctx, checkIn); err != nil {
			return err
		}
	}

	s.audit(ctx, athleteID, domain.AuditRecommendationOverride, domain.AuditTargetCheckIn, checkIn.ID,
		"Recommendation overridden: "+reason, map[string]interface{}{
			"decision": string(checkIn.AIDecision),
			"reason":   reason,
		})
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventRecommendationResult, athleteID.Hex(), map[string]interface{}{
		"checkInId": checkIn.ID.Hex(),
		"response":  "overridden",
		"decision":  string(checkIn.AIDecision),
	}))

	// Repeated overrides feed the behavior tracker; failures there must not
	// fail the override itself.
	if _, err := s.insights.RecordBehaviorSignal(ctx, athleteID); err != nil {
		s.logger.Warn("behavior signal check failed", zap.Error(err))
	}
	return nil
}

// Undo restores all tracked session fields to the snapshot captured at
// check-in time.
func (s *adaptationService) Undo(ctx context.Context, athleteID, checkInID primitive.ObjectID) error {
	checkIn, err := s.loadOwned(ctx, athleteID, checkInID)
	if err != nil {
		return err
	}
	if checkIn.IsLocked() {
		return ErrCheckInLocked
	}
	if err := s.restoreOriginal(ctx, checkIn); err != nil {
		return err
	}

	s.audit(ctx, athleteID, domain.AuditWorkoutUndone, domain.AuditTargetWorkout, *checkIn.WorkoutID,
		"Session restored to original plan", map[string]interface{}{
			"checkInId": checkIn.ID.Hex(),
		})
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventRecommendationResult, athleteID.Hex(), map[string]interface{}{
		"checkInId": checkIn.ID.Hex(),
		"response":  "undone",
	}))
	return nil
}

// restoreOriginal writes the original snapshot back and clears the applied marker.
func (s *adaptationService) restoreOriginal(ctx context.Context, checkIn *domain.CheckIn) error {
	if checkIn.OriginalWorkout == nil || checkIn.WorkoutID == nil {
		return ErrNothingToUndo
	}
	if err := s.workoutRepo.UpdateSnapshot(ctx, *checkIn.WorkoutID, checkIn.OriginalWorkout.Snapshot); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}
	checkIn.AdaptationAppliedAt = nil
	return s.checkInRepo.Update(ctx, checkIn)
}

// AcceptConflict applies the detector's suggested change through the gate.
func (s *adaptationService) AcceptConflict(ctx context.Context, athleteID, checkInID primitive.ObjectID) (*ApplyResult, error) {
	checkIn, err := s.loadOwned(ctx, athleteID, checkInID)
	if err != nil {
		return nil, err
	}
	if checkIn.IsLocked() {
		return nil, ErrCheckInLocked
	}
	if !checkIn.HasConflict || checkIn.SuggestedChange == nil || checkIn.ConflictResolution != "" {
		return nil, ErrNoConflict
	}
	if checkIn.WorkoutID == nil {
		return nil, ErrWorkoutNotFound
	}

	workout, err := s.workoutRepo.GetByID(ctx, *checkIn.WorkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	athlete, err := s.userRepo.GetByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	suggestion := *checkIn.SuggestedChange
	result := &ApplyResult{}

	if readiness.IsLocked(workout.Date, athlete.Rigidity(), s.now()) {
		result, err = s.proposeConflict(ctx, checkIn, workout, suggestion)
	} else {
		err = s.workoutRepo.ApplyPatch(ctx, workout.ID, suggestion.Patch)
		if err == nil {
			result.Mutated = true
			s.markApplied(ctx, checkIn)
		}
	}
	if err != nil {
		return nil, err
	}

	checkIn.ConflictResolution = "accepted"
	if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
		return nil, err
	}

	s.audit(ctx, athleteID, domain.AuditConflictAccepted, domain.AuditTargetCheckIn, checkIn.ID,
		"Conflict suggestion accepted: "+checkIn.ConflictReason, map[string]interface{}{
			"action":   suggestion.Action,
			"mutated":  result.Mutated,
			"proposed": result.Proposal != nil,
		})
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventConflictResolved, athleteID.Hex(), map[string]interface{}{
		"checkInId": checkIn.ID.Hex(),
		"response":  "accepted",
		"reason":    checkIn.ConflictReason,
	}))
	return result, nil
}

func (s *adaptationService) proposeConflict(ctx context.Context, checkIn *domain.CheckIn, workout *domain.ScheduledWorkout, suggestion domain.ConflictSuggestion) (*ApplyResult, error) {
	if existing, err := s.proposalRepo.GetPendingByCheckIn(ctx, checkIn.ID); err == nil {
		return &ApplyResult{Proposal: existing}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	proposal := &domain.PlanChangeProposal{
		AthleteID: checkIn.AthleteID,
		WorkoutID: workout.ID,
		CheckInID: checkIn.ID,
		Source:    domain.ProposalSourceConflict,
		Patch:     domain.NewPatchPayload(suggestion.Patch),
		Summary:   suggestion.Summary,
	}
	id, err := s.proposalRepo.Create(ctx, proposal)
	if err != nil {
		return nil, err
	}
	proposal.ID = id

	s.audit(ctx, checkIn.AthleteID, domain.AuditProposalCreated, domain.AuditTargetProposal, id,
		"Conflict change proposed for locked session", map[string]interface{}{
			"checkInId": checkIn.ID.Hex(),
			"action":    suggestion.Action,
		})
	return &ApplyResult{Proposal: proposal}, nil
}

// DeclineConflict discards the suggestion without touching the session.
func (s *adaptationService) DeclineConflict(ctx context.Context, athleteID, checkInID primitive.ObjectID) error {
	checkIn, err := s.loadOwned(ctx, athleteID, checkInID)
	if err != nil {
		return err
	}
	if checkIn.IsLocked() {
		return ErrCheckInLocked
	}
	if !checkIn.HasConflict || checkIn.ConflictResolution != "" {
		return ErrNoConflict
	}

	checkIn.ConflictResolution = "declined"
	if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
		return err
	}

	s.audit(ctx, athleteID, domain.AuditConflictDeclined, domain.AuditTargetCheckIn, checkIn.ID,
		"Conflict suggestion declined", nil)
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventConflictResolved, athleteID.Hex(), map[string]interface{}{
		"checkInId": checkIn.ID.Hex(),
		"response":  "declined",
	}))
	return nil
}

// --- Helpers ---

func (s *adaptationService) loadOwned(ctx context.Context, athleteID, checkInID primitive.ObjectID) (*domain.CheckIn, error) {
	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}
	if checkIn.AthleteID != athleteID {
		return nil, ErrNotOwner
	}
	return checkIn, nil
}

// markApplied stamps the check-in so a later accept does not re-apply.
func (s *adaptationService) markApplied(ctx context.Context, checkIn *domain.CheckIn) {
	now := s.now().UTC()
	checkIn.AdaptationAppliedAt = &now
	if err := s.checkInRepo.Update(ctx, checkIn); err != nil {
		s.logger.Warn("failed to mark adaptation applied",
			zap.String("checkInId", checkIn.ID.Hex()), zap.Error(err))
	}
}

// audit appends an entry, logging rather than failing when the sink is down.
func (s *adaptationService) audit(ctx context.Context, actorID primitive.ObjectID, action domain.AuditAction, targetType string, targetID primitive.ObjectID, summary string, details map[string]interface{}) {
	entry := &domain.AuditLogEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Summary:    summary,
		Details:    details,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed",
			zap.String("action", string(action)), zap.Error(err))
	}
}
