package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/peer-eval-pro/peer-review-service/internal/cache"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
)

type CriterionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCriterionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CriterionRepository {
	return &CriterionPostgreSQL{db: db, cacheManager: cacheManager}
}

// Create inserts a new criterion
func (c *CriterionPostgreSQL) Create(ctx context.Context, criterion *models.Criterion) error {
	if err := c.db.WithContext(ctx).Create(criterion).Error; err != nil {
		return fmt.Errorf("failed to create criterion: %w", err)
	}
	return nil
}

// GetByID retrieves a criterion by ID with caching
func (c *CriterionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Criterion, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var criterion models.Criterion

	err := c.cacheManager.Criterion.CacheOrExecute(ctx, cacheKey, &criterion, cache.CriterionCacheConfig.TTL, func() (interface{}, error) {
		var dbCriterion models.Criterion
		if err := c.db.WithContext(ctx).First(&dbCriterion, id).Error; err != nil {
			return nil, err
		}
		return &dbCriterion, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get criterion: %w", err)
	}

	return &criterion, nil
}

// Update saves criterion changes
func (c *CriterionPostgreSQL) Update(ctx context.Context, criterion *models.Criterion) error {
	result := c.db.WithContext(ctx).Model(&models.Criterion{}).Where("id = ?", criterion.ID).Updates(map[string]interface{}{
		"title":       criterion.Title,
		"description": criterion.Description,
		"required":    criterion.Required,
		"scale_min":   criterion.Scale.Min,
		"scale_max":   criterion.Scale.Max,
		"weight":      criterion.Weight,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update criterion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete removes a criterion and its stored ratings via cascade
func (c *CriterionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Criterion{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete criterion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// InvalidateCache drops cached criteria and derived results. Mutations run
// inside service-level transactions, so invalidation happens after commit
// rather than in the write methods above.
func (c *CriterionPostgreSQL) InvalidateCache(ctx context.Context) error {
	return c.cacheManager.InvalidateCriteria(ctx)
}

// List returns all criteria in creation order with caching
func (c *CriterionPostgreSQL) List(ctx context.Context) ([]models.Criterion, error) {
	var criteria []models.Criterion

	err := c.cacheManager.Criterion.CacheOrExecute(ctx, "list", &criteria, cache.CriterionCacheConfig.TTL, func() (interface{}, error) {
		var dbCriteria []models.Criterion
		if err := c.db.WithContext(ctx).Order("id ASC").Find(&dbCriteria).Error; err != nil {
			return nil, err
		}
		return dbCriteria, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}

	return criteria, nil
}

// Count returns the number of criteria
func (c *CriterionPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&models.Criterion{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count criteria: %w", err)
	}
	return count, nil
}
