package services

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP statuses by the handlers
var (
	// Auth
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("unauthorized")

	// Lookup
	ErrCriterionNotFound = errors.New("criterion not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrReviewNotFound    = errors.New("review not found")

	// Phase gate
	ErrCriteriaLocked   = errors.New("criteria can only be changed while reviews are in draft")
	ErrReviewsNotOpen   = errors.New("reviews have not been started")
	ErrReviewsClosed    = errors.New("reviews are closed")
	ErrDeadlinePassed   = errors.New("submission deadline has passed")
	ErrResultsNotPublic = errors.New("results have not been published")

	// Submission
	ErrSelfReview   = errors.New("cannot review yourself")
	ErrNotATeammate = errors.New("reviewee is not a teammate")
	ErrStudentsOnly = errors.New("only students submit peer reviews")
	ErrExportFailed = errors.New("failed to export results")
)

// PermissionError carries who tried to do what for the audit log
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is a permission failure
func IsPermissionError(err error) bool {
	var permErr *PermissionError
	return errors.As(err, &permErr)
}

// InvalidTransitionError describes a rejected phase change
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition review state from %s to %s", e.From, e.To)
}
