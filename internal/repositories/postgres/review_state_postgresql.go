package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/peer-eval-pro/peer-review-service/internal/cache"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
)

type ReviewStatePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewReviewStatePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ReviewStateRepository {
	return &ReviewStatePostgreSQL{db: db, cacheManager: cacheManager}
}

// Get reads the singleton state row with short-lived caching
func (s *ReviewStatePostgreSQL) Get(ctx context.Context) (*models.ReviewState, error) {
	var state models.ReviewState

	err := s.cacheManager.State.CacheOrExecute(ctx, "current", &state, cache.StateCacheConfig.TTL, func() (interface{}, error) {
		var dbState models.ReviewState
		if err := s.db.WithContext(ctx).First(&dbState, models.ReviewStateID).Error; err != nil {
			return nil, err
		}
		return &dbState, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get review state: %w", err)
	}

	return &state, nil
}

// GetForUpdate locks the singleton row until the surrounding transaction ends.
// Every phase transition and submission serializes on this lock.
func (s *ReviewStatePostgreSQL) GetForUpdate(ctx context.Context) (*models.ReviewState, error) {
	var state models.ReviewState
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&state, models.ReviewStateID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock review state: %w", err)
	}
	return &state, nil
}

// Update persists the state row
func (s *ReviewStatePostgreSQL) Update(ctx context.Context, state *models.ReviewState) error {
	result := s.db.WithContext(ctx).Model(&models.ReviewState{}).
		Where("id = ?", models.ReviewStateID).
		Updates(map[string]interface{}{
			"status":              state.Status,
			"submission_deadline": state.SubmissionDeadline,
			"version":             state.Version,
			"updated_by":          state.UpdatedBy,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update review state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// InvalidateCache drops the cached phase. Update runs inside WithTransaction,
// so invalidating there would let a concurrent Get re-cache the pre-commit
// row for the full cache TTL. Callers invalidate after the commit instead.
func (s *ReviewStatePostgreSQL) InvalidateCache(ctx context.Context) error {
	return s.cacheManager.InvalidateState(ctx)
}
