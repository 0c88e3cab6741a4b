package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/service"
)

// WorkoutHandler serves the scheduled-session surface: scheduling, the
// calendar view, start/complete, and the rigidity-gate status.
type WorkoutHandler struct {
	workoutService service.WorkoutService
	checkInService service.CheckInService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService, checkInService service.CheckInService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, checkInService: checkInService}
}

// --- Request/Response Structs ---

type ScheduleWorkoutRequest struct {
	Date          string `json:"date" binding:"required"` // YYYY-MM-DD
	Title         string `json:"title" binding:"required,max=200"`
	Type          string `json:"type" binding:"required,max=50"`
	DurationMin   int    `json:"durationMin" binding:"min=0,max=1440"`
	TSS           int    `json:"tss" binding:"min=0,max=1000"`
	DescriptionMd string `json:"descriptionMd" binding:"max=10000"`
	Notes         string `json:"notes" binding:"max=2000"`
}

type CompleteWorkoutRequest struct {
	ActualTSS int `json:"actualTss" binding:"min=0,max=1000"`
}

// --- Handler Methods ---

// Schedule godoc
// @Summary Schedule a session on a calendar day
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workout body ScheduleWorkoutRequest true "Session details"
// @Success 201 {object} domain.ScheduledWorkout
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "A session already exists on that day"
// @Router /workouts [post]
func (h *WorkoutHandler) Schedule(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req ScheduleWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	workout, err := h.workoutService.Schedule(c.Request.Context(), athleteID, &domain.ScheduledWorkout{
		Date:          date,
		Title:         req.Title,
		Type:          req.Type,
		DurationMin:   req.DurationMin,
		TSS:           req.TSS,
		DescriptionMd: req.DescriptionMd,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrWorkoutExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusCreated, workout)
}

// GetCalendar godoc
// @Summary Get scheduled sessions plus the trailing load rollup
// @Tags Workouts
// @Produce json
// @Param from query string false "Start date YYYY-MM-DD (default: 28 days ago)"
// @Param to query string false "End date YYYY-MM-DD exclusive (default: 7 days ahead)"
// @Success 200 {object} service.WorkoutWithLoad
// @Router /workouts [get]
func (h *WorkoutHandler) GetCalendar(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -28)
	to := now.AddDate(0, 0, 7)
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' date format, expected YYYY-MM-DD")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' date format, expected YYYY-MM-DD")
			return
		}
	}

	calendar, err := h.workoutService.Calendar(c.Request.Context(), athleteID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load calendar")
		return
	}
	c.JSON(http.StatusOK, calendar)
}

// GetGateStatus godoc
// @Summary Get the rigidity gate's lock status for a session
// @Tags Workouts
// @Produce json
// @Param id path string true "Workout ID"
// @Success 200 {object} service.GateInfo
// @Failure 404 {object} gin.H "Workout not found"
// @Router /workouts/{id}/gate [get]
func (h *WorkoutHandler) GetGateStatus(c *gin.Context) {
	athleteID, workoutID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	gate, err := h.checkInService.GateStatus(c.Request.Context(), athleteID, workoutID)
	if err != nil {
		h.abortWorkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gate)
}

// Start godoc
// @Summary Start a session
// @Description Stamps the session started and freezes today's check-in decision.
// @Tags Workouts
// @Produce json
// @Param id path string true "Workout ID"
// @Success 204 "Session started"
// @Failure 409 {object} gin.H "Already started"
// @Router /workouts/{id}/start [post]
func (h *WorkoutHandler) Start(c *gin.Context) {
	athleteID, workoutID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.workoutService.Start(c.Request.Context(), athleteID, workoutID); err != nil {
		if errors.Is(err, service.ErrAlreadyStarted) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			h.abortWorkoutError(c, err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete godoc
// @Summary Complete a session with its measured load
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Workout ID"
// @Param completion body CompleteWorkoutRequest true "Completion details"
// @Success 204 "Session completed"
// @Router /workouts/{id}/complete [post]
func (h *WorkoutHandler) Complete(c *gin.Context) {
	athleteID, workoutID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.workoutService.Complete(c.Request.Context(), athleteID, workoutID, req.ActualTSS); err != nil {
		h.abortWorkoutError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Helpers ---

func (h *WorkoutHandler) pathIDs(c *gin.Context) (athleteID, workoutID primitive.ObjectID, ok bool) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	workoutID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return athleteID, workoutID, true
}

func (h *WorkoutHandler) abortWorkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
