package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
)

// ExperienceLevel categorizes how long the athlete has trained structured.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// RigiditySetting defines how many days ahead the schedule is protected
// from direct edits by the adaptation engine.
type RigiditySetting string

const (
	RigidityLockedToday RigiditySetting = "LOCKED_TODAY"
	RigidityLocked1Day  RigiditySetting = "LOCKED_1_DAY"
	RigidityLocked2Days RigiditySetting = "LOCKED_2_DAYS"
	RigidityLocked3Days RigiditySetting = "LOCKED_3_DAYS"
	RigidityFlexible    RigiditySetting = "FLEXIBLE_WEEK"
)

// TrainingZone is one row of the athlete's heart-rate/power zone table.
type TrainingZone struct {
	Zone     string `bson:"zone" json:"zone"`   // e.g., "Z2"
	Label    string `bson:"label" json:"label"` // e.g., "Endurance"
	MinHR    int    `bson:"minHr" json:"minHr"`
	MaxHR    int    `bson:"maxHr" json:"maxHr"`
	MinWatts int    `bson:"minWatts,omitempty" json:"minWatts,omitempty"`
	MaxWatts int    `bson:"maxWatts,omitempty" json:"maxWatts,omitempty"`
}

// User represents a user in the system (either an Athlete or a Coach).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Athlete profile (drives prompt constraints and the rigidity gate) ---
	WeeklyHoursGoal float64         `bson:"weeklyHoursGoal,omitempty" json:"weeklyHoursGoal,omitempty"`
	Experience      ExperienceLevel `bson:"experience,omitempty" json:"experience,omitempty"`
	Zones           []TrainingZone  `bson:"zones,omitempty" json:"zones,omitempty"`
	PlanRigidity    RigiditySetting `bson:"planRigidity,omitempty" json:"planRigidity,omitempty"`

	// --- Coach-specific ---
	AthleteIDs []primitive.ObjectID `bson:"athleteIds,omitempty" json:"athleteIds,omitempty"`

	// --- Athlete-specific ---
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
}

func (u *User) IsAthlete() bool {
	return u.Role == RoleAthlete
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

// Rigidity returns the athlete's plan-rigidity setting, defaulting to
// LOCKED_TODAY when the profile never configured one.
func (u *User) Rigidity() RigiditySetting {
	if u.PlanRigidity == "" {
		return RigidityLockedToday
	}
	return u.PlanRigidity
}
