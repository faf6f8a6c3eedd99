package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peer-eval-pro/peer-review-service/internal/services"
	"github.com/peer-eval-pro/peer-review-service/internal/utils"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

type CriterionHandler struct {
	BaseHandler
	criterionService services.CriterionService
	validator        *validator.Validator
}

func NewCriterionHandler(
	criterionService services.CriterionService,
	validator *validator.Validator,
	logger utils.Logger,
) *CriterionHandler {
	return &CriterionHandler{
		BaseHandler:      NewBaseHandler(logger),
		criterionService: criterionService,
		validator:        validator,
	}
}

// CreateCriterion creates a new evaluation criterion
// @Summary Create criterion
// @Description Creates a new evaluation criterion, only while reviews are in draft
// @Tags criteria
// @Accept json
// @Produce json
// @Param criterion body services.CreateCriterionRequest true "Criterion data"
// @Success 201 {object} models.Criterion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /criteria [post]
func (h *CriterionHandler) CreateCriterion(c *gin.Context) {
	var req services.CreateCriterionRequest
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

	criterion, err := h.criterionService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, criterion)
}

// GetCriterion retrieves a criterion by ID
// @Summary Get criterion
// @Tags criteria
// @Produce json
// @Param id path uint true "Criterion ID"
// @Success 200 {object} models.Criterion
// @Failure 404 {object} ErrorResponse
// @Router /criteria/{id} [get]
func (h *CriterionHandler) GetCriterion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	criterion, err := h.criterionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, criterion)
}

// ListCriteria lists all evaluation criteria
// @Summary List criteria
// @Tags criteria
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Criterion}
// @Router /criteria [get]
func (h *CriterionHandler) ListCriteria(c *gin.Context) {
	criteria, err := h.criterionService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: criteria})
}

// UpdateCriterion updates an existing criterion
// @Summary Update criterion
// @Description Updates a criterion, only while reviews are in draft
// @Tags criteria
// @Accept json
// @Produce json
// @Param id path uint true "Criterion ID"
// @Param criterion body services.UpdateCriterionRequest true "Fields to update"
// @Success 200 {object} models.Criterion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /criteria/{id} [put]
func (h *CriterionHandler) UpdateCriterion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateCriterionRequest
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

	criterion, err := h.criterionService.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, criterion)
}

// DeleteCriterion removes a criterion
// @Summary Delete criterion
// @Description Deletes a criterion, only while reviews are in draft
// @Tags criteria
// @Param id path uint true "Criterion ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /criteria/{id} [delete]
func (h *CriterionHandler) DeleteCriterion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	if err := h.criterionService.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
