package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/peer-eval-pro/peer-review-service/internal/services"
	"github.com/peer-eval-pro/peer-review-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
	}
}

// GetMyResults returns the caller's received reviews
// @Summary Get own results
// @Description Returns aggregated results for the caller, students only see them once published
// @Tags results
// @Produce json
// @Success 200 {object} services.StudentResultResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /peer-reviews/results/me [get]
func (h *ResultHandler) GetMyResults(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	result, err := h.resultService.GetMyResults(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStudentResults returns one student's aggregated results
// @Summary Get student results
// @Description Instructor view of a single student's results, available in any phase
// @Tags results
// @Produce json
// @Param id path uint true "Student ID"
// @Success 200 {object} services.StudentResultResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /peer-reviews/results/student/{id} [get]
func (h *ResultHandler) GetStudentResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	result, err := h.resultService.GetStudentResults(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary returns the roster overview
// @Summary Get results summary
// @Description Instructor overview with one row per student
// @Tags results
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]services.SummaryRow}
// @Failure 403 {object} ErrorResponse
// @Router /peer-reviews/results/summary [get]
func (h *ResultHandler) GetSummary(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	rows, err := h.resultService.GetSummary(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: rows})
}

// ExportSummary downloads the roster overview as an xlsx workbook
// @Summary Export results
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /peer-reviews/results/export [get]
func (h *ResultHandler) ExportSummary(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	data, err := h.resultService.ExportSummary(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("peer-review-results-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
