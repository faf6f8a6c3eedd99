package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/services"
	"github.com/peer-eval-pro/peer-review-service/internal/utils"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

// ErrorResponse is the error body shape for every endpoint
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps list payloads
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// BaseHandler carries shared handler plumbing
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a request-scoped info line
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// LogError logs a request-scoped error line
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam parses a positive integer path parameter, responding 400 on
// failure. Returns 0 when the response was already written.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// currentActor reads the authenticated caller set by the auth middleware
func (h *BaseHandler) currentActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return models.Actor{}, false
	}
	a, ok := value.(models.Actor)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return models.Actor{}, false
	}
	return a, true
}

// handleServiceError maps the service error taxonomy to HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var permErr *services.PermissionError
	var transErr *services.InvalidTransitionError

	switch {
	// Validation errors
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
	case errors.Is(err, services.ErrSelfReview):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Cannot review yourself",
		})
	case errors.Is(err, services.ErrNotATeammate):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Reviewee is not a teammate",
		})

	// Auth errors
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid username or password",
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.As(err, &permErr), errors.Is(err, services.ErrStudentsOnly):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})

	// Phase gate errors
	case errors.Is(err, services.ErrCriteriaLocked):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Criteria are locked once reviews have started",
		})
	case errors.Is(err, services.ErrReviewsNotOpen):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Reviews have not been started",
		})
	case errors.Is(err, services.ErrReviewsClosed):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Reviews are closed",
		})
	case errors.Is(err, services.ErrDeadlinePassed):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Submission deadline has passed",
		})
	case errors.Is(err, services.ErrResultsNotPublic):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Results have not been published",
		})
	case errors.As(err, &transErr):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: transErr.Error(),
		})

	// Conflicts
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Username already taken",
		})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Email already registered",
		})

	// Not found
	case errors.Is(err, services.ErrCriterionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Criterion not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Review not found",
		})

	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
