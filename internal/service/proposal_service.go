package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/repository"
)

var (
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrProposalNotPending = errors.New("proposal was already applied or declined")
)

// --- Service Interface ---

type ProposalService interface {
	// Accept consumes a PENDING proposal: the patch is applied to the target
	// session and the proposal transitions to APPLIED. A proposal is consumed
	// at most once.
	Accept(ctx context.Context, athleteID, proposalID primitive.ObjectID) (*domain.PlanChangeProposal, error)

	// Decline transitions a PENDING proposal to DECLINED without touching
	// the session.
	Decline(ctx context.Context, athleteID, proposalID primitive.ObjectID) error

	// List returns the athlete's proposals, optionally filtered by status
	// (empty status means all).
	List(ctx context.Context, athleteID primitive.ObjectID, status domain.ProposalStatus) ([]domain.PlanChangeProposal, error)
}

// --- Service Implementation ---

type proposalService struct {
	proposalRepo repository.ProposalRepository
	workoutRepo  repository.WorkoutRepository
	checkInRepo  repository.CheckInRepository
	auditRepo    repository.AuditRepository
	sink         analytics.EventSink
	logger       *zap.Logger
}

// NewProposalService creates a new instance of proposalService.
func NewProposalService(
	proposalRepo repository.ProposalRepository,
	workoutRepo repository.WorkoutRepository,
	checkInRepo repository.CheckInRepository,
	auditRepo repository.AuditRepository,
	sink analytics.EventSink,
	logger *zap.Logger,
) ProposalService {
	return &proposalService{
		proposalRepo: proposalRepo,
		workoutRepo:  workoutRepo,
		checkInRepo:  checkInRepo,
		auditRepo:    auditRepo,
		sink:         sink,
		logger:       logger.Named("proposal"),
	}
}

func (s *proposalService) Accept(ctx context.Context, athleteID, proposalID primitive.ObjectID) (*domain.PlanChangeProposal, error) {
	proposal, err := s.loadOwned(ctx, athleteID, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != domain.ProposalPending {
		return nil, ErrProposalNotPending
	}

	// The target session must still exist before the proposal is consumed;
	// otherwise the proposal would burn with nothing applied.
	if _, err := s.workoutRepo.GetByID(ctx, proposal.WorkoutID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}

	// Resolve first: the PENDING-filtered update is the single-consumption
	// barrier, so a concurrent accept loses here rather than double-applying.
	// A crash between resolve and patch loses the change but never applies
	// it twice.
	if err := s.proposalRepo.Resolve(ctx, proposal.ID, domain.ProposalApplied); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, ErrProposalNotPending
		}
		return nil, err
	}
	if err := s.workoutRepo.ApplyPatch(ctx, proposal.WorkoutID, proposal.Patch.Patch); err != nil {
		s.logger.Error("proposal resolved but patch failed",
			zap.String("proposalId", proposal.ID.Hex()), zap.Error(err))
		return nil, err
	}

	proposal.Status = domain.ProposalApplied
	now := time.Now().UTC()
	proposal.ResolvedAt = &now

	// Accepting the proposal is accepting the recommendation behind it.
	accepted := true
	if err := s.checkInRepo.SetUserAccepted(ctx, proposal.CheckInID, &accepted, ""); err != nil {
		s.logger.Warn("failed to mark check-in accepted after proposal apply",
			zap.String("checkInId", proposal.CheckInID.Hex()), zap.Error(err))
	}

	s.audit(ctx, athleteID, domain.AuditProposalApplied, proposal, "Proposal applied to session")
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventProposalResolved, athleteID.Hex(), map[string]interface{}{
		"proposalId": proposal.ID.Hex(),
		"workoutId":  proposal.WorkoutID.Hex(),
		"status":     string(domain.ProposalApplied),
	}))
	return proposal, nil
}

func (s *proposalService) Decline(ctx context.Context, athleteID, proposalID primitive.ObjectID) error {
	proposal, err := s.loadOwned(ctx, athleteID, proposalID)
	if err != nil {
		return err
	}
	if proposal.Status != domain.ProposalPending {
		return ErrProposalNotPending
	}

	if err := s.proposalRepo.Resolve(ctx, proposal.ID, domain.ProposalDeclined); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return ErrProposalNotPending
		}
		return err
	}
	proposal.Status = domain.ProposalDeclined

	s.audit(ctx, athleteID, domain.AuditProposalDeclined, proposal, "Proposal declined")
	s.sink.Publish(ctx, analytics.NewEvent(analytics.EventProposalResolved, athleteID.Hex(), map[string]interface{}{
		"proposalId": proposal.ID.Hex(),
		"status":     string(domain.ProposalDeclined),
	}))
	return nil
}

func (s *proposalService) List(ctx context.Context, athleteID primitive.ObjectID, status domain.ProposalStatus) ([]domain.PlanChangeProposal, error) {
	return s.proposalRepo.ListByAthlete(ctx, athleteID, status)
}

// --- Helpers ---

func (s *proposalService) loadOwned(ctx context.Context, athleteID, proposalID primitive.ObjectID) (*domain.PlanChangeProposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}
	if proposal.AthleteID != athleteID {
		return nil, ErrNotOwner
	}
	return proposal, nil
}

func (s *proposalService) audit(ctx context.Context, athleteID primitive.ObjectID, action domain.AuditAction, proposal *domain.PlanChangeProposal, summary string) {
	entry := &domain.AuditLogEntry{
		ActorID:    athleteID,
		Action:     action,
		TargetType: domain.AuditTargetProposal,
		TargetID:   proposal.ID,
		Summary:    summary,
		Details: map[string]interface{}{
			"workoutId": proposal.WorkoutID.Hex(),
			"checkInId": proposal.CheckInID.Hex(),
			"source":    string(proposal.Source),
		},
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", zap.Error(err))
	}
}
