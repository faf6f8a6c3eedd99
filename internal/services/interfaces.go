package services

import (
	"context"
	"time"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type SignupRequest = validator.SignupRequest
type LoginRequest = validator.LoginRequest
type CreateCriterionRequest = validator.CriterionCreateRequest
type UpdateCriterionRequest = validator.CriterionUpdateRequest
type ChangeStateRequest = validator.StateChangeRequest
type SetDeadlineRequest = validator.DeadlineRequest
type SubmitReviewRequest = validator.ReviewSubmitRequest
type SubmitBatchRequest = validator.ReviewBatchRequest

type AuthResponse struct {
	Token string          `json:"access_token"`
	Role  models.UserRole `json:"role"`
	User  *UserResponse   `json:"user"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
}

type StateResponse struct {
	Status             models.ReviewStatus `json:"status"`
	SubmissionDeadline *time.Time          `json:"submission_deadline,omitempty"`
	SubmissionOpen     bool                `json:"submission_open"`
	Version            int                 `json:"version"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ReviewFormResponse is what a student needs to fill in a review:
// the criteria set, the current phase, and the teammates left to rate.
type ReviewFormResponse struct {
	Status         models.ReviewStatus `json:"status"`
	Deadline       *time.Time          `json:"submission_deadline,omitempty"`
	SubmissionOpen bool                `json:"submission_open"`
	Criteria       []models.Criterion  `json:"criteria"`
	Teammates      []TeammateEntry     `json:"teammates"`
}

type TeammateEntry struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Submitted bool   `json:"submitted"`
}

type ReviewResponse struct {
	ID          uint             `json:"id"`
	RevieweeID  uint             `json:"reviewee_id"`
	Answers     []AnswerResponse `json:"answers"`
	Comment     *string          `json:"comment,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

type AnswerResponse struct {
	CriterionID uint `json:"criterion_id"`
	Rating      int  `json:"rating"`
}

// ReceivedReview is one review about a student, reviewer anonymized
type ReceivedReview struct {
	Answers     []AnswerResponse `json:"answers"`
	Comment     *string          `json:"comment,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// StudentResultResponse aggregates everything a student received
type StudentResultResponse struct {
	StudentID     uint             `json:"student_id"`
	Username      string           `json:"username"`
	ReviewCount   int              `json:"review_count"`
	WeightedScore *float64         `json:"weighted_score,omitempty"`
	PerCriterion  []CriterionScore `json:"per_criterion"`
	Reviews       []ReceivedReview `json:"reviews,omitempty"`
}

type CriterionScore struct {
	CriterionID uint    `json:"criterion_id"`
	Title       string  `json:"title"`
	Average     float64 `json:"average"`
}

// SummaryRow is one student's line in the instructor roster overview
type SummaryRow struct {
	StudentID       uint     `json:"student_id"`
	Username        string   `json:"username"`
	ReviewsGiven    int64    `json:"reviews_given"`
	ReviewsReceived int      `json:"reviews_received"`
	WeightedScore   *float64 `json:"weighted_score,omitempty"`
}

// ===== SERVICE INTERFACES =====

// AuthService handles account registration and credential login
type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
}

// CriterionService manages the evaluation criteria set. Criteria are
// editable only while the review phase is draft.
type CriterionService interface {
	Create(ctx context.Context, req *CreateCriterionRequest, actor models.Actor) (*models.Criterion, error)
	Update(ctx context.Context, id uint, req *UpdateCriterionRequest, actor models.Actor) (*models.Criterion, error)
	Delete(ctx context.Context, id uint, actor models.Actor) error
	GetByID(ctx context.Context, id uint) (*models.Criterion, error)
	List(ctx context.Context) ([]models.Criterion, error)
}

// ReviewStateService gates the review lifecycle: draft, started, published
type ReviewStateService interface {
	Get(ctx context.Context) (*StateResponse, error)
	ChangeState(ctx context.Context, req *ChangeStateRequest, actor models.Actor) (*StateResponse, error)
	SetDeadline(ctx context.Context, req *SetDeadlineRequest, actor models.Actor) (*StateResponse, error)
}

// ReviewService handles peer review submission and retrieval
type ReviewService interface {
	// Submit stores or replaces the caller's review of a teammate. The phase
	// check and the write happen inside one transaction.
	Submit(ctx context.Context, req *SubmitReviewRequest, actor models.Actor) (*ReviewResponse, error)

	GetForm(ctx context.Context, actor models.Actor) (*ReviewFormResponse, error)
	GetSubmitted(ctx context.Context, teammateID uint, actor models.Actor) (*ReviewResponse, error)
}

// ResultService computes aggregated review results
type ResultService interface {
	// GetMyResults returns the caller's received reviews, students only see
	// them once results are published.
	GetMyResults(ctx context.Context, actor models.Actor) (*StudentResultResponse, error)

	GetStudentResults(ctx context.Context, studentID uint, actor models.Actor) (*StudentResultResponse, error)
	GetSummary(ctx context.Context, actor models.Actor) ([]SummaryRow, error)

	// ExportSummary renders the roster overview as an xlsx workbook
	ExportSummary(ctx context.Context, actor models.Actor) ([]byte, error)
}

// ServiceManager provides access to all services
type ServiceManager interface {
	Initialize(ctx context.Context) error
	Auth() AuthService
	Criterion() CriterionService
	ReviewState() ReviewStateService
	Review() ReviewService
	Result() ResultService
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
