package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peer-eval-pro/peer-review-service/internal/auth"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	tokens    *auth.TokenManager
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAuthService(repo repositories.Repository, tokens *auth.TokenManager, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
	}
}

// Signup registers a new account. New accounts default to the student role.
func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateSignup(req); len(errs) > 0 {
		return nil, errs
	}

	taken, err := s.repo.User().ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.repo.User().ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		// A concurrent signup can win the race past the exists checks
		if repositories.IsDuplicateError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username, "role", user.Role)

	return s.buildAuthResponse(user)
}

// Login verifies credentials and issues an access token
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByUsername(ctx, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Same error as a bad password, no username probing
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.logger.Warn("Failed login attempt", "username", req.Username)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "user_id", user.ID, "username", user.Username)

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResponse{
		Token: token,
		Role:  user.Role,
		User: &UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	}, nil
}
