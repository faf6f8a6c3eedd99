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

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{db: db, cacheManager: cacheManager}
}

// Create inserts a new user account and invalidates cached rosters.
// Signups run outside any transaction, so invalidating here is safe.
func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.cacheManager.InvalidateUsers(ctx)
	return nil
}

// GetByID retrieves a user by ID
func (u *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (u *UserPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// ExistsByUsername checks whether a username is already taken
func (u *UserPostgreSQL) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// ExistsByEmail checks whether an email is already registered
func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// ListStudents returns all student accounts ordered by username with caching
func (u *UserPostgreSQL) ListStudents(ctx context.Context) ([]models.User, error) {
	var users []models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, "students", &users, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUsers []models.User
		err := u.db.WithContext(ctx).
			Where("role = ?", models.RoleStudent).
			Order("username ASC").
			Find(&dbUsers).Error
		if err != nil {
			return nil, err
		}
		return dbUsers, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return users, nil
}

// ListTeammates returns all students except the caller with caching
func (u *UserPostgreSQL) ListTeammates(ctx context.Context, excludeID uint) ([]models.User, error) {
	cacheKey := fmt.Sprintf("teammates:%d", excludeID)
	var users []models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, cacheKey, &users, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUsers []models.User
		err := u.db.WithContext(ctx).
			Where("role = ? AND id <> ?", models.RoleStudent, excludeID).
			Order("username ASC").
			Find(&dbUsers).Error
		if err != nil {
			return nil, err
		}
		return dbUsers, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list teammates: %w", err)
	}
	return users, nil
}
