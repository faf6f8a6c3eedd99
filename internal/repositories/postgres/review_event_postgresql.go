package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
)

type ReviewEventPostgreSQL struct {
	db *gorm.DB
}

func NewReviewEventPostgreSQL(db *gorm.DB) repositories.ReviewEventRepository {
	return &ReviewEventPostgreSQL{db: db}
}

// Append stores an audit event
func (e *ReviewEventPostgreSQL) Append(ctx context.Context, event *models.ReviewEvent) error {
	if err := e.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append review event: %w", err)
	}
	return nil
}

// List returns the most recent audit events
func (e *ReviewEventPostgreSQL) List(ctx context.Context, limit int) ([]models.ReviewEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []models.ReviewEvent
	err := e.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list review events: %w", err)
	}
	return events, nil
}
