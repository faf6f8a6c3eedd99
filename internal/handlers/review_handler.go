package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peer-eval-pro/peer-review-service/internal/services"
	"github.com/peer-eval-pro/peer-review-service/internal/utils"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

type ReviewHandler struct {
	BaseHandler
	reviewService services.ReviewService
	validator     *validator.Validator
}

func NewReviewHandler(
	reviewService services.ReviewService,
	validator *validator.Validator,
	logger utils.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
		validator:     validator,
	}
}

// GetForm returns the review form for the caller
// @Summary Get review form
// @Description Returns the criteria set, current phase, and teammates left to rate
// @Tags peer-reviews
// @Produce json
// @Success 200 {object} services.ReviewFormResponse
// @Failure 401 {object} ErrorResponse
// @Router /peer-reviews/form [get]
func (h *ReviewHandler) GetForm(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	form, err := h.reviewService.GetForm(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// SubmitReviews stores or replaces the caller's reviews, one per teammate
// @Summary Submit peer reviews
// @Description Submits one review per teammate, resubmission replaces the previous review for that teammate
// @Tags peer-reviews
// @Accept json
// @Produce json
// @Param reviews body services.SubmitBatchRequest true "Reviews, one per teammate"
// @Success 200 {object} SuccessResponse{data=[]services.ReviewResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /peer-reviews/submit [post]
func (h *ReviewHandler) SubmitReviews(c *gin.Context) {
	var req services.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if len(req.Reviews) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "At least one review is required",
		})
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	// Each review is its own transaction; a failure aborts the batch but
	// leaves earlier reviews stored. Resubmitting the batch is idempotent.
	stored := make([]*services.ReviewResponse, 0, len(req.Reviews))
	for i := range req.Reviews {
		review, err := h.reviewService.Submit(c.Request.Context(), &req.Reviews[i], actor)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		stored = append(stored, review)
	}

	h.LogRequest(c, "Reviews submitted", "reviewer", actor.ID, "count", len(stored))
	c.JSON(http.StatusOK, SuccessResponse{Data: stored})
}

// SubmittedResponse reports whether a review exists for the teammate
type SubmittedResponse struct {
	Submitted bool                     `json:"submitted"`
	Review    *services.ReviewResponse `json:"review,omitempty"`
}

// GetSubmitted returns the caller's stored review of one teammate
// @Summary Get submitted review
// @Description Returns submitted=false when no review has been stored yet
// @Tags peer-reviews
// @Produce json
// @Param teammateId path uint true "Teammate ID"
// @Success 200 {object} SubmittedResponse
// @Router /peer-reviews/submitted/{teammateId} [get]
func (h *ReviewHandler) GetSubmitted(c *gin.Context) {
	teammateID := h.parseIDParam(c, "teammateId")
	if teammateID == 0 {
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	review, err := h.reviewService.GetSubmitted(c.Request.Context(), teammateID, actor)
	if err != nil {
		if errors.Is(err, services.ErrReviewNotFound) {
			c.JSON(http.StatusOK, SubmittedResponse{Submitted: false})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmittedResponse{Submitted: true, Review: review})
}
