package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peer-eval-pro/peer-review-service/internal/config"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
)

// InitDatabase opens the postgres connection and migrates the schema.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if cfg.Environment == "production" {
		gormConfig.Logger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Criterion{},
		&models.ReviewState{},
		&models.PeerReview{},
		&models.ReviewAnswer{},
		&models.ReviewEvent{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Seed the singleton state row so every instance reads the same phase.
	state := models.ReviewState{ID: models.ReviewStateID, Status: models.StatusDraft, Version: 1}
	if err := db.Where("id = ?", models.ReviewStateID).FirstOrCreate(&state).Error; err != nil {
		return nil, fmt.Errorf("failed to seed review state: %w", err)
	}

	return db, nil
}
