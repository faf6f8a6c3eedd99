package repositories

import (
	"context"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ReviewFilters struct {
	ReviewerID *uint `json:"reviewer_id"`
	RevieweeID *uint `json:"reviewee_id"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// UserRepository manages user accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListStudents returns every student account ordered by username
	ListStudents(ctx context.Context) ([]models.User, error)

	// ListTeammates returns all students except the given one
	ListTeammates(ctx context.Context, excludeID uint) ([]models.User, error)
}

// CriterionRepository manages the evaluation criteria set
type CriterionRepository interface {
	Create(ctx context.Context, criterion *models.Criterion) error
	GetByID(ctx context.Context, id uint) (*models.Criterion, error)
	Update(ctx context.Context, criterion *models.Criterion) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.Criterion, error)
	Count(ctx context.Context) (int64, error)

	// InvalidateCache drops cached criteria and the results derived from them.
	// Call after the mutating transaction commits, never inside it: a reader
	// racing an in-transaction invalidation could re-cache the pre-commit data.
	InvalidateCache(ctx context.Context) error
}

// ReviewRepository manages submitted peer reviews
type ReviewRepository interface {
	// Upsert replaces the review for (reviewer, reviewee) atomically. Existing
	// answers are discarded, never merged. Call inside a transaction.
	Upsert(ctx context.Context, review *models.PeerReview) error

	GetByPair(ctx context.Context, reviewerID, revieweeID uint) (*models.PeerReview, error)
	ListByReviewer(ctx context.Context, reviewerID uint) ([]models.PeerReview, error)
	ListByReviewee(ctx context.Context, revieweeID uint) ([]models.PeerReview, error)
	List(ctx context.Context, filters ReviewFilters) ([]models.PeerReview, error)
	CountByReviewer(ctx context.Context, reviewerID uint) (int64, error)

	// InvalidateResultCache drops cached aggregates about the reviewee.
	// Call after the upsert transaction commits.
	InvalidateResultCache(ctx context.Context, revieweeID uint) error
}

// ReviewStateRepository manages the singleton review phase row
type ReviewStateRepository interface {
	Get(ctx context.Context) (*models.ReviewState, error)

	// GetForUpdate locks the state row for the duration of the surrounding
	// transaction. Only meaningful inside WithTransaction.
	GetForUpdate(ctx context.Context) (*models.ReviewState, error)

	Update(ctx context.Context, state *models.ReviewState) error

	// InvalidateCache drops the cached phase. Call after the mutating
	// transaction commits, never inside it.
	InvalidateCache(ctx context.Context) error
}

// ReviewEventRepository appends to the audit trail of phase changes
type ReviewEventRepository interface {
	Append(ctx context.Context, event *models.ReviewEvent) error
	List(ctx context.Context, limit int) ([]models.ReviewEvent, error)
}
