package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peer-eval-pro/peer-review-service/internal/auth"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/services"
	"github.com/peer-eval-pro/peer-review-service/internal/utils"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

// HandlerManager wires every handler to the router
type HandlerManager struct {
	authHandler      *AuthHandler
	criterionHandler *CriterionHandler
	stateHandler     *ReviewStateHandler
	reviewHandler    *ReviewHandler
	resultHandler    *ResultHandler

	authMiddleware gin.HandlerFunc
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	tokens *auth.TokenManager,
) *HandlerManager {
	return &HandlerManager{
		authHandler:      NewAuthHandler(serviceManager.Auth(), logger),
		criterionHandler: NewCriterionHandler(serviceManager.Criterion(), validator, logger),
		stateHandler:     NewReviewStateHandler(serviceManager.ReviewState(), logger),
		reviewHandler:    NewReviewHandler(serviceManager.Review(), validator, logger),
		resultHandler:    NewResultHandler(serviceManager.Result(), logger),
		authMiddleware:   AuthMiddleware(tokens),
	}
}

// SetupRoutes registers all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "peer-review-service",
		})
	})

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/signup", hm.authHandler.Signup)
		authRoutes.POST("/login", hm.authHandler.Login)
	}

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware)

	instructorOnly := RequireRoleMiddleware(models.RoleInstructor)

	criteria := v1.Group("/criteria")
	{
		criteria.GET("", hm.criterionHandler.ListCriteria)
		criteria.GET("/:id", hm.criterionHandler.GetCriterion)
		criteria.POST("", instructorOnly, hm.criterionHandler.CreateCriterion)
		criteria.PUT("/:id", instructorOnly, hm.criterionHandler.UpdateCriterion)
		criteria.DELETE("/:id", instructorOnly, hm.criterionHandler.DeleteCriterion)
	}

	review := v1.Group("/review")
	{
		review.GET("/state", hm.stateHandler.GetState)
		review.POST("/state", instructorOnly, hm.stateHandler.ChangeState)
		review.GET("/deadline", hm.stateHandler.GetDeadline)
		review.PUT("/deadline", instructorOnly, hm.stateHandler.SetDeadline)
	}

	peerReviews := v1.Group("/peer-reviews")
	{
		peerReviews.GET("/form", hm.reviewHandler.GetForm)
		peerReviews.POST("/submit", hm.reviewHandler.SubmitReviews)
		peerReviews.GET("/submitted/:teammateId", hm.reviewHandler.GetSubmitted)

		peerReviews.GET("/results/me", hm.resultHandler.GetMyResults)
		peerReviews.GET("/results/summary", instructorOnly, hm.resultHandler.GetSummary)
		peerReviews.GET("/results/student/:id", instructorOnly, hm.resultHandler.GetStudentResults)
		peerReviews.GET("/results/export", instructorOnly, hm.resultHandler.ExportSummary)
	}
}
