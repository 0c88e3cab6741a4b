package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/service"
)

// AuthHandler holds the authentication and profile service dependencies.
type AuthHandler struct {
	authService    service.AuthService
	profileService service.ProfileService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, profileService service.ProfileService) *AuthHandler {
	return &AuthHandler{authService: authService, profileService: profileService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=athlete coach"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Email           string                 `json:"email"`
	Role            domain.Role            `json:"role"`
	CreatedAt       time.Time              `json:"createdAt"`
	PlanRigidity    domain.RigiditySetting `json:"planRigidity,omitempty"`
	WeeklyHoursGoal float64                `json:"weeklyHoursGoal,omitempty"`
	Experience      domain.ExperienceLevel `json:"experience,omitempty"`
	Zones           []domain.TrainingZone  `json:"zones,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type SettingsRequest struct {
	PlanRigidity    domain.RigiditySetting `json:"planRigidity" binding:"required"`
	WeeklyHoursGoal float64                `json:"weeklyHoursGoal" binding:"omitempty,min=0"`
	Experience      domain.ExperienceLevel `json:"experience" binding:"omitempty,oneof=beginner intermediate advanced"`
	Zones           []domain.TrainingZone  `json:"zones"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user (Athlete or Coach)
// @Description Creates a new user account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrHashingFailed) {
			abortWithError(c, http.StatusInternalServerError, "Could not process registration")
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during registration")
		}
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: MapUserToResponse(user)})
}

// GetProfile godoc
// @Summary Get the authenticated user's profile
// @Tags Profile
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	user, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load profile")
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateSettings godoc
// @Summary Update athlete settings
// @Description Updates plan rigidity, weekly hours goal, experience and zones.
// @Tags Profile
// @Accept json
// @Produce json
// @Param settings body SettingsRequest true "Settings"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Not an athlete"
// @Router /profile/settings [put]
func (h *AuthHandler) UpdateSettings(c *gin.Context) {
	userID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.profileService.UpdateSettings(c.Request.Context(), userID, req.PlanRigidity, req.WeeklyHoursGoal, req.Experience, req.Zones)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotAnAthlete):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// --- Mappers ---

// MapUserToResponse converts a domain user to the API shape.
func MapUserToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
	if user.IsAthlete() {
		resp.PlanRigidity = user.Rigidity()
		resp.WeeklyHoursGoal = user.WeeklyHoursGoal
		resp.Experience = user.Experience
		resp.Zones = user.Zones
	}
	return resp
}
