package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/repository"
)

// --- Service Interface ---

type ProfileService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)

	// UpdateSettings rewrites the athlete profile settings that drive the
	// rigidity gate and the recommendation prompt.
	UpdateSettings(ctx context.Context, userID primitive.ObjectID, rigidity domain.RigiditySetting, weeklyHoursGoal float64, experience domain.ExperienceLevel, zones []domain.TrainingZone) (*domain.User, error)
}

// --- Service Implementation ---

type profileService struct {
	userRepo repository.UserRepository
}

// NewProfileService creates a new instance of profileService.
func NewProfileService(userRepo repository.UserRepository) ProfileService {
	return &profileService{userRepo: userRepo}
}

func (s *profileService) Get(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *profileService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, rigidity domain.RigiditySetting, weeklyHoursGoal float64, experience domain.ExperienceLevel, zones []domain.TrainingZone) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsAthlete() {
		return nil, ErrNotAnAthlete
	}
	if err := validateSettings(rigidity, weeklyHoursGoal, experience); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAthleteSettings(ctx, userID, rigidity, weeklyHoursGoal, experience, zones); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func validateSettings(rigidity domain.RigiditySetting, weeklyHoursGoal float64, experience domain.ExperienceLevel) error {
	switch rigidity {
	case domain.RigidityLockedToday, domain.RigidityLocked1Day, domain.RigidityLocked2Days,
		domain.RigidityLocked3Days, domain.RigidityFlexible:
	default:
		return fmt.Errorf("unknown plan rigidity %q", rigidity)
	}
	if weeklyHoursGoal < 0 || weeklyHoursGoal > 60 {
		return fmt.Errorf("weekly hours goal %v out of range", weeklyHoursGoal)
	}
	switch experience {
	case domain.ExperienceBeginner, domain.ExperienceIntermediate, domain.ExperienceAdvanced, "":
	default:
		return fmt.Errorf("unknown experience level %q", experience)
	}
	return nil
}
