package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peer-eval-pro/peer-review-service/internal/cache"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
)

type ReviewPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewReviewPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ReviewRepository {
	return &ReviewPostgreSQL{db: db, cacheManager: cacheManager}
}

// Upsert replaces the review for (reviewer, reviewee). The previous answer set
// is discarded wholesale so a resubmission never merges with stale ratings.
func (r *ReviewPostgreSQL) Upsert(ctx context.Context, review *models.PeerReview) error {
	var existing models.PeerReview
	err := r.db.WithContext(ctx).
		Where("reviewer_id = ? AND reviewee_id = ?", review.ReviewerID, review.RevieweeID).
		First(&existing).Error

	switch {
	case err == nil:
		// Resubmission: drop old answers, update the header row, insert new answers
		if err := r.db.WithContext(ctx).
			Where("review_id = ?", existing.ID).
			Delete(&models.ReviewAnswer{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous answers: %w", err)
		}

		updates := map[string]interface{}{
			"comment":      review.Comment,
			"submitted_at": review.SubmittedAt,
		}
		if err := r.db.WithContext(ctx).Model(&models.PeerReview{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}

		for i := range review.Answers {
			review.Answers[i].ReviewID = existing.ID
		}
		if err := r.db.WithContext(ctx).Create(&review.Answers).Error; err != nil {
			return fmt.Errorf("failed to store answers: %w", err)
		}
		review.ID = existing.ID

	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

	default:
		return fmt.Errorf("failed to look up review: %w", err)
	}
	return nil
}

// InvalidateResultCache drops cached aggregates about the reviewee. Upsert
// runs inside WithTransaction, so the caller invalidates after the commit.
func (r *ReviewPostgreSQL) InvalidateResultCache(ctx context.Context, revieweeID uint) error {
	return r.cacheManager.InvalidateResults(ctx, revieweeID)
}

// GetByPair retrieves the review one student wrote about another
func (r *ReviewPostgreSQL) GetByPair(ctx context.Context, reviewerID, revieweeID uint) (*models.PeerReview, error) {
	var review models.PeerReview
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("Answers.Criterion").
		Where("reviewer_id = ? AND reviewee_id = ?", reviewerID, revieweeID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// ListByReviewer returns every review a student has submitted
func (r *ReviewPostgreSQL) ListByReviewer(ctx context.Context, reviewerID uint) ([]models.PeerReview, error) {
	var reviews []models.PeerReview
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("Reviewee").
		Where("reviewer_id = ?", reviewerID).
		Order("submitted_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by reviewer: %w", err)
	}
	return reviews, nil
}

// ListByReviewee returns every review written about a student with caching.
// InvalidateResultCache drops the entry when the student receives a new review.
func (r *ReviewPostgreSQL) ListByReviewee(ctx context.Context, revieweeID uint) ([]models.PeerReview, error) {
	cacheKey := fmt.Sprintf("reviewee:%d", revieweeID)
	var reviews []models.PeerReview

	err := r.cacheManager.Result.CacheOrExecute(ctx, cacheKey, &reviews, cache.ResultCacheConfig.TTL, func() (interface{}, error) {
		var dbReviews []models.PeerReview
		err := r.db.WithContext(ctx).
			Preload("Answers").
			Preload("Answers.Criterion").
			Preload("Reviewer").
			Where("reviewee_id = ?", revieweeID).
			Order("submitted_at ASC").
			Find(&dbReviews).Error
		if err != nil {
			return nil, err
		}
		return dbReviews, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by reviewee: %w", err)
	}
	return reviews, nil
}

// List returns reviews matching the filters
func (r *ReviewPostgreSQL) List(ctx context.Context, filters repositories.ReviewFilters) ([]models.PeerReview, error) {
	query := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("Reviewer").
		Preload("Reviewee")

	if filters.ReviewerID != nil {
		query = query.Where("reviewer_id = ?", *filters.ReviewerID)
	}
	if filters.RevieweeID != nil {
		query = query.Where("reviewee_id = ?", *filters.RevieweeID)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var reviews []models.PeerReview
	if err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// CountByReviewer returns how many reviews a student has submitted
func (r *ReviewPostgreSQL) CountByReviewer(ctx context.Context, reviewerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PeerReview{}).
		Where("reviewer_id = ?", reviewerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}
