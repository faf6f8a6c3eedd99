package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

type criterionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCriterionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CriterionService {
	return &criterionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// Create adds a criterion while the review phase is still draft. The phase
// check and the insert share a transaction holding the state row lock, so a
// concurrent transition to started cannot slip between check and write.
func (s *criterionService) Create(ctx context.Context, req *CreateCriterionRequest, actor models.Actor) (*models.Criterion, error) {
	if !actor.IsInstructor() {
		return nil, NewPermissionError(actor.ID, 0, "criterion", "create", "instructor role required")
	}

	if errs := s.validator.GetBusinessValidator().ValidateCriterionCreate(req); len(errs) > 0 {
		return nil, errs
	}

	criterion := &models.Criterion{
		Title:    req.Title,
		Required: true,
		Scale:    models.Scale{Min: 1, Max: 5},
		Weight:   1.0,
	}
	if req.Description != nil {
		criterion.Description = *req.Description
	}
	if req.Required != nil {
		criterion.Required = *req.Required
	}
	if req.Scale != nil {
		criterion.Scale = models.Scale{Min: req.Scale.Min, Max: req.Scale.Max}
	}
	if req.Weight != nil {
		criterion.Weight = *req.Weight
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.ensureEditable(ctx, txRepo); err != nil {
			return err
		}
		if err := txRepo.Criterion().Create(ctx, criterion); err != nil {
			return fmt.Errorf("failed to create criterion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.Criterion().InvalidateCache(ctx)

	s.logger.Info("Criterion created", "criterion_id", criterion.ID, "title", criterion.Title, "actor_id", actor.ID)
	return criterion, nil
}

// Update modifies a criterion while the review phase is still draft
func (s *criterionService) Update(ctx context.Context, id uint, req *UpdateCriterionRequest, actor models.Actor) (*models.Criterion, error) {
	if !actor.IsInstructor() {
		return nil, NewPermissionError(actor.ID, id, "criterion", "update", "instructor role required")
	}

	if errs := s.validator.GetBusinessValidator().ValidateCriterionUpdate(req); len(errs) > 0 {
		return nil, errs
	}

	var criterion *models.Criterion
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.ensureEditable(ctx, txRepo); err != nil {
			return err
		}

		loaded, err := txRepo.Criterion().GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCriterionNotFound
			}
			return fmt.Errorf("failed to load criterion: %w", err)
		}

		if req.Title != nil {
			loaded.Title = *req.Title
		}
		if req.Description != nil {
			loaded.Description = *req.Description
		}
		if req.Required != nil {
			loaded.Required = *req.Required
		}
		if req.Scale != nil {
			loaded.Scale = models.Scale{Min: req.Scale.Min, Max: req.Scale.Max}
		}
		if req.Weight != nil {
			loaded.Weight = *req.Weight
		}

		if err := txRepo.Criterion().Update(ctx, loaded); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCriterionNotFound
			}
			return fmt.Errorf("failed to update criterion: %w", err)
		}

		criterion = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.Criterion().InvalidateCache(ctx)

	s.logger.Info("Criterion updated", "criterion_id", id, "actor_id", actor.ID)
	return criterion, nil
}

// Delete removes a criterion while the review phase is still draft
func (s *criterionService) Delete(ctx context.Context, id uint, actor models.Actor) error {
	if !actor.IsInstructor() {
		return NewPermissionError(actor.ID, id, "criterion", "delete", "instructor role required")
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.ensureEditable(ctx, txRepo); err != nil {
			return err
		}
		if err := txRepo.Criterion().Delete(ctx, id); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCriterionNotFound
			}
			return fmt.Errorf("failed to delete criterion: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.repo.Criterion().InvalidateCache(ctx)

	s.logger.Info("Criterion deleted", "criterion_id", id, "actor_id", actor.ID)
	return nil
}

// GetByID returns a single criterion
func (s *criterionService) GetByID(ctx context.Context, id uint) (*models.Criterion, error) {
	criterion, err := s.repo.Criterion().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCriterionNotFound
		}
		return nil, fmt.Errorf("failed to get criterion: %w", err)
	}
	return criterion, nil
}

// List returns the full criteria set in creation order
func (s *criterionService) List(ctx context.Context) ([]models.Criterion, error) {
	criteria, err := s.repo.Criterion().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return criteria, nil
}

// ensureEditable rejects criteria changes once reviews have started. It locks
// the state row, so it must run inside WithTransaction with the write that
// depends on the answer.
func (s *criterionService) ensureEditable(ctx context.Context, txRepo repositories.Repository) error {
	state, err := txRepo.ReviewState().GetForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("failed to read review state: %w", err)
	}
	if !state.CriteriaEditable() {
		return ErrCriteriaLocked
	}
	return nil
}
