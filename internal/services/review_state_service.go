package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/peer-eval-pro/peer-review-service/internal/events"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

type reviewStateService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewReviewStateService(repo repositories.Repository, eventPublisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ReviewStateService {
	return &reviewStateService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

// Get returns the current review phase
func (s *reviewStateService) Get(ctx context.Context) (*StateResponse, error) {
	state, err := s.repo.ReviewState().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read review state: %w", err)
	}
	return stateResponse(state), nil
}

// ChangeState advances the review phase. The singleton row is locked for the
// duration of the transaction so concurrent transitions serialize: the loser
// re-reads the already-changed phase and fails the transition check.
func (s *reviewStateService) ChangeState(ctx context.Context, req *ChangeStateRequest, actor models.Actor) (*StateResponse, error) {
	if !actor.IsInstructor() {
		return nil, NewPermissionError(actor.ID, models.ReviewStateID, "review_state", "change", "instructor role required")
	}

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	var updated *models.ReviewState
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		state, err := txRepo.ReviewState().GetForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock review state: %w", err)
		}

		criterionCount, err := txRepo.Criterion().Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count criteria: %w", err)
		}

		// A disallowed edge is an InvalidTransitionError; a legal edge blocked
		// by a business rule keeps the rule's own message so the response says
		// what to fix.
		if errs := s.validator.GetBusinessValidator().ValidateStateTransition(state.Status, req.Status, int(criterionCount)); len(errs) > 0 {
			for _, e := range errs {
				if e.Rule == "status_transition" {
					return &InvalidTransitionError{From: string(state.Status), To: string(req.Status)}
				}
			}
			return errs
		}

		state.Status = req.Status
		state.Version++
		state.UpdatedBy = &actor.ID
		if err := txRepo.ReviewState().Update(ctx, state); err != nil {
			return fmt.Errorf("failed to update review state: %w", err)
		}

		if err := s.appendAuditEvent(ctx, txRepo, actor, "state_changed", map[string]interface{}{
			"status": req.Status,
		}); err != nil {
			return err
		}

		updated = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.ReviewState().InvalidateCache(ctx)

	s.logger.Info("Review state changed", "status", updated.Status, "actor_id", actor.ID)
	s.publishLifecycleEvent(ctx, updated)

	return stateResponse(updated), nil
}

// SetDeadline sets or clears the submission deadline. Allowed until results
// are published.
func (s *reviewStateService) SetDeadline(ctx context.Context, req *SetDeadlineRequest, actor models.Actor) (*StateResponse, error) {
	if !actor.IsInstructor() {
		return nil, NewPermissionError(actor.ID, models.ReviewStateID, "review_state", "set_deadline", "instructor role required")
	}

	if errs := s.validator.GetBusinessValidator().ValidateDeadline(req); len(errs) > 0 {
		return nil, errs
	}

	var updated *models.ReviewState
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		state, err := txRepo.ReviewState().GetForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock review state: %w", err)
		}

		if state.Status == models.StatusPublished {
			return ErrReviewsClosed
		}

		state.SubmissionDeadline = req.SubmissionDeadline
		state.Version++
		state.UpdatedBy = &actor.ID
		if err := txRepo.ReviewState().Update(ctx, state); err != nil {
			return fmt.Errorf("failed to update review state: %w", err)
		}

		if err := s.appendAuditEvent(ctx, txRepo, actor, "deadline_changed", map[string]interface{}{
			"submission_deadline": req.SubmissionDeadline,
		}); err != nil {
			return err
		}

		updated = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.ReviewState().InvalidateCache(ctx)

	s.logger.Info("Submission deadline changed", "deadline", updated.SubmissionDeadline, "actor_id", actor.ID)

	event := events.NewEvent(events.TypeDeadlineChanged, map[string]interface{}{
		"submission_deadline": updated.SubmissionDeadline,
	})
	if err := s.eventPublisher.Publish(ctx, events.LifecycleTopic, event); err != nil {
		s.logger.Error("Failed to publish deadline event", "error", err)
	}

	return stateResponse(updated), nil
}

func (s *reviewStateService) appendAuditEvent(ctx context.Context, txRepo repositories.Repository, actor models.Actor, eventType string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	event := &models.ReviewEvent{
		Type:    eventType,
		ActorID: actor.ID,
		Payload: datatypes.JSON(data),
	}
	if err := txRepo.ReviewEvent().Append(ctx, event); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// publishLifecycleEvent notifies downstream consumers after the transaction
// committed. A broker failure never rolls back a phase change.
func (s *reviewStateService) publishLifecycleEvent(ctx context.Context, state *models.ReviewState) {
	var eventType string
	switch state.Status {
	case models.StatusStarted:
		eventType = events.TypeReviewsStarted
	case models.StatusPublished:
		eventType = events.TypeResultsPublished
	default:
		return
	}

	event := events.NewEvent(eventType, map[string]interface{}{
		"status":  state.Status,
		"version": state.Version,
	})
	if err := s.eventPublisher.Publish(ctx, events.LifecycleTopic, event); err != nil {
		s.logger.Error("Failed to publish lifecycle event", "error", err, "event_type", eventType)
	}
}

func stateResponse(state *models.ReviewState) *StateResponse {
	return &StateResponse{
		Status:             state.Status,
		SubmissionDeadline: state.SubmissionDeadline,
		SubmissionOpen:     state.SubmissionOpen(time.Now()),
		Version:            state.Version,
		UpdatedAt:          state.UpdatedAt,
	}
}
