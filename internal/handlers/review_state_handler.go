package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peer-eval-pro/peer-review-service/internal/services"
	"github.com/peer-eval-pro/peer-review-service/internal/utils"
)

type ReviewStateHandler struct {
	BaseHandler
	stateService services.ReviewStateService
}

func NewReviewStateHandler(stateService services.ReviewStateService, logger utils.Logger) *ReviewStateHandler {
	return &ReviewStateHandler{
		BaseHandler:  NewBaseHandler(logger),
		stateService: stateService,
	}
}

// GetState returns the current review phase
// @Summary Get review state
// @Tags review-state
// @Produce json
// @Success 200 {object} services.StateResponse
// @Router /review/state [get]
func (h *ReviewStateHandler) GetState(c *gin.Context) {
	state, err := h.stateService.Get(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ChangeState advances the review lifecycle
// @Summary Change review state
// @Description Moves the review phase forward: draft to started, started to published
// @Tags review-state
// @Accept json
// @Produce json
// @Param state body services.ChangeStateRequest true "Target status"
// @Success 200 {object} services.StateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /review/state [post]
func (h *ReviewStateHandler) ChangeState(c *gin.Context) {
	var req services.ChangeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	state, err := h.stateService.ChangeState(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Review state changed", "status", state.Status, "by", actor.Username)
	c.JSON(http.StatusOK, state)
}

// GetDeadline returns the current submission deadline
// @Summary Get submission deadline
// @Tags review-state
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /review/deadline [get]
func (h *ReviewStateHandler) GetDeadline(c *gin.Context) {
	state, err := h.stateService.Get(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission_deadline": state.SubmissionDeadline})
}

// SetDeadline sets or clears the submission deadline
// @Summary Set submission deadline
// @Description Sets the deadline after which submissions are rejected, omit to clear
// @Tags review-state
// @Accept json
// @Produce json
// @Param deadline body services.SetDeadlineRequest true "Deadline"
// @Success 200 {object} services.StateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /review/deadline [put]
func (h *ReviewStateHandler) SetDeadline(c *gin.Context) {
	var req services.SetDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	state, err := h.stateService.SetDeadline(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}
