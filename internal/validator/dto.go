package validator

import (
	"time"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
)

// SignupRequest represents the request structure for account registration
type SignupRequest struct {
	Username        string          `json:"username" validate:"required,username_format"`
	Email           string          `json:"email" validate:"required,email,max=255"`
	Password        string          `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string          `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            models.UserRole `json:"role" validate:"omitempty,user_role"`
}

// LoginRequest represents the request structure for credential login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ScaleRequest represents an inclusive rating scale
type ScaleRequest struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CriterionCreateRequest represents the request structure for creating criteria
type CriterionCreateRequest struct {
	Title       string        `json:"title" validate:"required,criterion_title"`
	Description *string       `json:"description" validate:"omitempty,criterion_description"`
	Required    *bool         `json:"required"`
	Scale       *ScaleRequest `json:"scale"`
	Weight      *float64      `json:"weight" validate:"omitempty,gt=0"`
}

// CriterionUpdateRequest represents the request structure for updating criteria
type CriterionUpdateRequest struct {
	Title       *string       `json:"title" validate:"omitempty,criterion_title"`
	Description *string       `json:"description" validate:"omitempty,criterion_description"`
	Required    *bool         `json:"required"`
	Scale       *ScaleRequest `json:"scale"`
	Weight      *float64      `json:"weight" validate:"omitempty,gt=0"`
}

// StateChangeRequest represents a review phase transition request
type StateChangeRequest struct {
	Status models.ReviewStatus `json:"status" validate:"required,review_status"`
}

// DeadlineRequest sets or clears the submission deadline
type DeadlineRequest struct {
	SubmissionDeadline *time.Time `json:"submission_deadline"`
}

// AnswerEntry is a single criterion rating within a review submission
type AnswerEntry struct {
	CriterionID uint `json:"criterion_id" validate:"required"`
	Rating      int  `json:"rating"`
}

// ReviewSubmitRequest represents one peer review within a submission
type ReviewSubmitRequest struct {
	RevieweeID uint          `json:"teammate_id" validate:"required"`
	Answers    []AnswerEntry `json:"answers" validate:"required,min=1,dive"`
	Comment    *string       `json:"comment" validate:"omitempty,max=2000"`
}

// ReviewBatchRequest represents the request structure for submitting reviews,
// one entry per teammate
type ReviewBatchRequest struct {
	Reviews []ReviewSubmitRequest `json:"reviews" validate:"required,min=1,dive"`
}
