package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateSignup validates account registration business rules
func (bv *BusinessValidator) ValidateSignup(req *SignupRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateCriterionCreate validates criterion creation business rules
func (bv *BusinessValidator) ValidateCriterionCreate(req *CriterionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Scale bounds must form a non-empty range
	if req.Scale != nil {
		errors = append(errors, validateScale(req.Scale)...)
	}

	return errors
}

// ValidateCriterionUpdate validates criterion update business rules
func (bv *BusinessValidator) ValidateCriterionUpdate(req *CriterionUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Scale != nil {
		errors = append(errors, validateScale(req.Scale)...)
	}

	return errors
}

// ValidateStateTransition validates review phase transitions
func (bv *BusinessValidator) ValidateStateTransition(currentStatus, newStatus models.ReviewStatus, criterionCount int) ValidationErrors {
	var errors ValidationErrors

	// Define allowed transitions
	allowedTransitions := map[models.ReviewStatus][]models.ReviewStatus{
		models.StatusDraft:     {models.StatusStarted},
		models.StatusStarted:   {models.StatusPublished},
		models.StatusPublished: {}, // No transitions from published
	}

	allowed := false
	for _, allowedStatus := range allowedTransitions[currentStatus] {
		if newStatus == allowedStatus {
			allowed = true
			break
		}
	}

	if !allowed {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", currentStatus, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	// Additional validation for opening (Draft -> Started)
	if newStatus == models.StatusStarted && criterionCount == 0 {
		errors = append(errors, ValidationError{
			Field:   "criteria",
			Message: "at least one criterion must exist before reviews can start",
			Value:   criterionCount,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateDeadline validates a submission deadline change
func (bv *BusinessValidator) ValidateDeadline(req *DeadlineRequest) ValidationErrors {
	var errors ValidationErrors

	if req.SubmissionDeadline != nil && req.SubmissionDeadline.Before(time.Now()) {
		errors = append(errors, ValidationError{
			Field:   "submission_deadline",
			Message: "must be in the future",
			Value:   req.SubmissionDeadline,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateReviewSubmit validates the shape of a review submission and its
// ratings against the loaded criteria set.
func (bv *BusinessValidator) ValidateReviewSubmit(req *ReviewSubmitRequest, criteria []models.Criterion) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	byID := make(map[uint]models.Criterion, len(criteria))
	for _, c := range criteria {
		byID[c.ID] = c
	}

	seen := make(map[uint]bool, len(req.Answers))
	for i, answer := range req.Answers {
		if seen[answer.CriterionID] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].criterion_id", i),
				Message: "duplicate rating for criterion",
				Value:   answer.CriterionID,
				Rule:    "business_logic",
			})
			continue
		}
		seen[answer.CriterionID] = true

		criterion, exists := byID[answer.CriterionID]
		if !exists {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].criterion_id", i),
				Message: "unknown criterion",
				Value:   answer.CriterionID,
				Rule:    "business_logic",
			})
			continue
		}

		if !criterion.InScale(answer.Rating) {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].rating", i),
				Message: fmt.Sprintf("must be between %d and %d", criterion.Scale.Min, criterion.Scale.Max),
				Value:   answer.Rating,
				Rule:    "rating_scale",
			})
		}
	}

	// Every required criterion needs a rating
	for _, c := range criteria {
		if c.Required && !seen[c.ID] {
			errors = append(errors, ValidationError{
				Field:   "answers",
				Message: fmt.Sprintf("missing rating for required criterion %q", c.Title),
				Value:   c.ID,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

func validateScale(scale *ScaleRequest) ValidationErrors {
	var errors ValidationErrors

	if scale.Min >= scale.Max {
		errors = append(errors, ValidationError{
			Field:   "scale",
			Message: "min must be strictly less than max",
			Value:   fmt.Sprintf("[%d, %d]", scale.Min, scale.Max),
			Rule:    "scale_bounds",
		})
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Criterion title validation (1-200 characters)
	bv.validate.RegisterValidation("criterion_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Criterion description validation (max 1000 characters)
	bv.validate.RegisterValidation("criterion_description", func(fl validator.FieldLevel) bool {
		desc := fl.Field().String()
		return len(desc) <= 1000
	})

	// Username validation (3-100 characters, restricted charset)
	bv.validate.RegisterValidation("username_format", func(fl validator.FieldLevel) bool {
		username := fl.Field().String()
		return len(username) >= 3 && len(username) <= 100 && usernamePattern.MatchString(username)
	})

	// user role validation
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		validRoles := []models.UserRole{models.RoleStudent, models.RoleInstructor}
		for _, vr := range validRoles {
			if models.UserRole(role) == vr {
				return true
			}
		}
		return false
	})

	// review status validation
	bv.validate.RegisterValidation("review_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []models.ReviewStatus{models.StatusDraft, models.StatusStarted, models.StatusPublished}
		for _, vs := range validStatuses {
			if models.ReviewStatus(status) == vs {
				return true
			}
		}
		return false
	})
}
