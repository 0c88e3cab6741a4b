package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/service"
)

// CheckInHandler serves the daily readiness flow: submission, decisions,
// accept/override/undo, conflicts, and the trend/statistics views.
type CheckInHandler struct {
	checkInService    service.CheckInService
	adaptationService service.AdaptationService
	insightService    service.InsightService
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(
	checkInService service.CheckInService,
	adaptationService service.AdaptationService,
	insightService service.InsightService,
) *CheckInHandler {
	return &CheckInHandler{
		checkInService:    checkInService,
		adaptationService: adaptationService,
		insightService:    insightService,
	}
}

// --- Request/Response Structs ---

type WellnessCheckInRequest struct {
	SleepQuality int    `json:"sleepQuality" binding:"min=0,max=100"`
	Fatigue      int    `json:"fatigue" binding:"min=0,max=100"`
	Motivation   int    `json:"motivation" binding:"min=0,max=100"`
	Soreness     int    `json:"soreness" binding:"min=0,max=100"`
	Stress       int    `json:"stress" binding:"min=0,max=100"`
	Notes        string `json:"notes" binding:"max=2000"`
}

type StandardCheckInRequest struct {
	SleepDuration   int             `json:"sleepDuration" binding:"required,min=1,max=5"`
	SleepQuality    int             `json:"sleepQuality" binding:"required,min=1,max=5"`
	PhysicalFatigue int             `json:"physicalFatigue" binding:"required,min=1,max=5"`
	MentalReadiness int             `json:"mentalReadiness" binding:"required,min=1,max=5"`
	Motivation      int             `json:"motivation" binding:"required,min=1,max=5"`
	MuscleSoreness  domain.Soreness `json:"muscleSoreness" binding:"required,oneof=none mild moderate high severe"`
	StressLevel     int             `json:"stressLevel" binding:"required,min=1,max=5"`
	Notes           string          `json:"notes" binding:"max=2000"`
}

type OverrideRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ApplyResultResponse reports what an accept did to the session.
type ApplyResultResponse struct {
	Mutated    bool                       `json:"mutated"`
	After      *domain.WorkoutSnapshot    `json:"after,omitempty"`
	ProposalID string                     `json:"proposalId,omitempty"`
	Proposal   *domain.PlanChangeProposal `json:"proposal,omitempty"`
}

// --- Handler Methods ---

// SubmitWellness godoc
// @Summary Submit a 0-100 scale daily check-in
// @Description Scores the self-report, runs the decision pipeline and conflict detection.
// @Tags CheckIns
// @Accept json
// @Produce json
// @Param checkin body WellnessCheckInRequest true "Wellness self-report"
// @Success 200 {object} domain.CheckIn "Scored check-in with decision"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Day is locked (session already started)"
// @Router /checkins/wellness [post]
func (h *CheckInHandler) SubmitWellness(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req WellnessCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	checkIn, err := h.checkInService.SubmitWellness(c.Request.Context(), athleteID, domain.WellnessInputs{
		SleepQuality: req.SleepQuality,
		Fatigue:      req.Fatigue,
		Motivation:   req.Motivation,
		Soreness:     req.Soreness,
		Stress:       req.Stress,
	}, req.Notes)
	if err != nil {
		h.abortSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// SubmitStandard godoc
// @Summary Submit a 1-5 scale daily check-in
// @Tags CheckIns
// @Accept json
// @Produce json
// @Param checkin body StandardCheckInRequest true "Standard self-report"
// @Success 200 {object} domain.CheckIn "Scored check-in with decision"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Day is locked (session already started)"
// @Router /checkins/standard [post]
func (h *CheckInHandler) SubmitStandard(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req StandardCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	checkIn, err := h.checkInService.SubmitStandard(c.Request.Context(), athleteID, domain.StandardInputs{
		SleepDuration:   req.SleepDuration,
		SleepQuality:    req.SleepQuality,
		PhysicalFatigue: req.PhysicalFatigue,
		MentalReadiness: req.MentalReadiness,
		Motivation:      req.Motivation,
		MuscleSoreness:  req.MuscleSoreness,
		StressLevel:     req.StressLevel,
	}, req.Notes)
	if err != nil {
		h.abortSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// GetToday godoc
// @Summary Get today's check-in
// @Tags CheckIns
// @Produce json
// @Success 200 {object} domain.CheckIn
// @Failure 404 {object} gin.H "No check-in submitted today"
// @Router /checkins/today [get]
func (h *CheckInHandler) GetToday(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	checkIn, err := h.checkInService.GetToday(c.Request.Context(), athleteID)
	if err != nil {
		if errors.Is(err, service.ErrNoCheckInToday) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load check-in")
		}
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// GetSeries godoc
// @Summary Get the trailing readiness trend
// @Tags CheckIns
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {array} service.ReadinessPoint
// @Router /checkins/series [get]
func (h *CheckInHandler) GetSeries(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	series, err := h.checkInService.ReadinessSeries(c.Request.Context(), athleteID, days)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load readiness series")
		return
	}
	c.JSON(http.StatusOK, series)
}

// Accept godoc
// @Summary Accept today's recommendation
// @Description Records acceptance and applies the change if it was not applied at submit time.
// @Tags CheckIns
// @Produce json
// @Param id path string true "Check-in ID"
// @Success 200 {object} ApplyResultResponse
// @Failure 404 {object} gin.H "Check-in not found"
// @Failure 409 {object} gin.H "Locked or no decision"
// @Router /checkins/{id}/accept [post]
func (h *CheckInHandler) Accept(c *gin.Context) {
	athleteID, checkInID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	result, err := h.adaptationService.Accept(c.Request.Context(), athleteID, checkInID)
	if err != nil {
		h.abortDecisionError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapApplyResult(result))
}

// Override godoc
// @Summary Override today's recommendation
// @Description Records the rejection with a reason; rolls back an auto-applied change.
// @Tags CheckIns
// @Accept json
// @Produce json
// @Param id path string true "Check-in ID"
// @Param override body OverrideRequest true "Override reason"
// @Success 204 "Override recorded"
// @Failure 400 {object} gin.H "Missing reason"
// @Failure 409 {object} gin.H "Locked or no decision"
// @Router /checkins/{id}/override [post]
func (h *CheckInHandler) Override(c *gin.Context) {
	athleteID, checkInID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.adaptationService.Override(c.Request.Context(), athleteID, checkInID, req.Reason); err != nil {
		h.abortDecisionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Undo godoc
// @Summary Restore the session to its pre-adaptation state
// @Tags CheckIns
// @Produce json
// @Param id path string true "Check-in ID"
// @Success 204 "Session restored"
// @Failure 409 {object} gin.H "Nothing to undo or day locked"
// @Router /checkins/{id}/undo [post]
func (h *CheckInHandler) Undo(c *gin.Context) {
	athleteID, checkInID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.adaptationService.Undo(c.Request.Context(), athleteID, checkInID); err != nil {
		h.abortDecisionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptConflict godoc
// @Summary Accept the conflict detector's suggested change
// @Tags CheckIns
// @Produce json
// @Param id path string true "Check-in ID"
// @Success 200 {object} ApplyResultResponse
// @Failure 409 {object} gin.H "No unresolved conflict"
// @Router /checkins/{id}/conflict/accept [post]
func (h *CheckInHandler) AcceptConflict(c *gin.Context) {
	athleteID, checkInID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	result, err := h.adaptationService.AcceptConflict(c.Request.Context(), athleteID, checkInID)
	if err != nil {
		h.abortDecisionError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapApplyResult(result))
}

// DeclineConflict godoc
// @Summary Decline the conflict detector's suggested change
// @Tags CheckIns
// @Produce json
// @Param id path string true "Check-in ID"
// @Success 204 "Suggestion discarded"
// @Failure 409 {object} gin.H "No unresolved conflict"
// @Router /checkins/{id}/conflict/decline [post]
func (h *CheckInHandler) DeclineConflict(c *gin.Context) {
	athleteID, checkInID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.adaptationService.DeclineConflict(c.Request.Context(), athleteID, checkInID); err != nil {
		h.abortDecisionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOverrideStats godoc
// @Summary Get override behavior statistics
// @Tags Insights
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} service.OverrideStats
// @Router /insights/overrides [get]
func (h *CheckInHandler) GetOverrideStats(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	stats, err := h.insightService.OverrideStats(c.Request.Context(), athleteID, days)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load override statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Helpers ---

func (h *CheckInHandler) pathIDs(c *gin.Context) (athleteID, checkInID primitive.ObjectID, ok bool) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	checkInID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid check-in ID format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return athleteID, checkInID, true
}

func (h *CheckInHandler) abortSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCheckInLocked):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrNotAnAthlete):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		// Scorer range errors surface as 400s.
		abortWithError(c, http.StatusBadRequest, err.Error())
	}
}

func (h *CheckInHandler) abortDecisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCheckInNotFound), errors.Is(err, service.ErrWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrOverrideReasonRequired):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCheckInLocked),
		errors.Is(err, service.ErrNoDecision),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, service.ErrNoConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func mapApplyResult(result *service.ApplyResult) ApplyResultResponse {
	resp := ApplyResultResponse{Mutated: result.Mutated, After: result.After}
	if result.Proposal != nil {
		resp.ProposalID = result.Proposal.ID.Hex()
		resp.Proposal = result.Proposal
	}
	return resp
}
