package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/service"
)

// ProposalHandler serves the deferred plan-change confirmation flow.
type ProposalHandler struct {
	proposalService service.ProposalService
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(proposalService service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// --- Handler Methods ---

// List godoc
// @Summary List the athlete's plan-change proposals
// @Tags Proposals
// @Produce json
// @Param status query string false "Filter by status (PENDING, APPLIED, DECLINED)"
// @Success 200 {array} domain.PlanChangeProposal
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	status := domain.ProposalStatus(c.Query("status"))
	switch status {
	case "", domain.ProposalPending, domain.ProposalApplied, domain.ProposalDeclined:
	default:
		abortWithError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}

	proposals, err := h.proposalService.List(c.Request.Context(), athleteID, status)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load proposals")
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// Accept godoc
// @Summary Accept a pending proposal
// @Description Applies the proposed patch to the target session; a proposal is consumed at most once.
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} domain.PlanChangeProposal
// @Failure 404 {object} gin.H "Proposal not found"
// @Failure 409 {object} gin.H "Proposal already applied or declined"
// @Router /proposals/{id}/accept [post]
func (h *ProposalHandler) Accept(c *gin.Context) {
	athleteID, proposalID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	proposal, err := h.proposalService.Accept(c.Request.Context(), athleteID, proposalID)
	if err != nil {
		h.abortProposalError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// Decline godoc
// @Summary Decline a pending proposal
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 204 "Proposal declined"
// @Failure 409 {object} gin.H "Proposal already applied or declined"
// @Router /proposals/{id}/decline [post]
func (h *ProposalHandler) Decline(c *gin.Context) {
	athleteID, proposalID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	if err := h.proposalService.Decline(c.Request.Context(), athleteID, proposalID); err != nil {
		h.abortProposalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Helpers ---

func (h *ProposalHandler) pathIDs(c *gin.Context) (athleteID, proposalID primitive.ObjectID, ok bool) {
	athleteID, err := userObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	proposalID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid proposal ID format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return athleteID, proposalID, true
}

func (h *ProposalHandler) abortProposalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProposalNotFound), errors.Is(err, service.ErrWorkoutNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrProposalNotPending):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
