package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

type reviewService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewReviewService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ReviewService {
	return &reviewService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// Submit stores or replaces the caller's review of a teammate. Resubmission
// discards the previous answers, it never merges. The phase check and the
// write share one transaction holding the state row lock, so a submission
// cannot slip past a concurrent publish.
func (s *reviewService) Submit(ctx context.Context, req *SubmitReviewRequest, actor models.Actor) (*ReviewResponse, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrStudentsOnly
	}

	if req.RevieweeID == actor.ID {
		return nil, ErrSelfReview
	}

	var review *models.PeerReview
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		state, err := txRepo.ReviewState().GetForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("failed to lock review state: %w", err)
		}

		switch state.Status {
		case models.StatusDraft:
			return ErrReviewsNotOpen
		case models.StatusPublished:
			return ErrReviewsClosed
		}
		// Phase is started here, so a closed window means the deadline passed
		if !state.SubmissionOpen(time.Now()) {
			return ErrDeadlinePassed
		}

		reviewee, err := txRepo.User().GetByID(ctx, req.RevieweeID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load reviewee: %w", err)
		}
		if reviewee.Role != models.RoleStudent {
			return ErrNotATeammate
		}

		criteria, err := txRepo.Criterion().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load criteria: %w", err)
		}

		if errs := s.validator.GetBusinessValidator().ValidateReviewSubmit(req, criteria); len(errs) > 0 {
			return errs
		}

		review = &models.PeerReview{
			ReviewerID:  actor.ID,
			RevieweeID:  req.RevieweeID,
			Comment:     req.Comment,
			SubmittedAt: time.Now(),
		}
		for _, answer := range req.Answers {
			review.Answers = append(review.Answers, models.ReviewAnswer{
				CriterionID: answer.CriterionID,
				Rating:      answer.Rating,
			})
		}

		if err := txRepo.Review().Upsert(ctx, review); err != nil {
			return fmt.Errorf("failed to store review: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.Review().InvalidateResultCache(ctx, req.RevieweeID)

	s.logger.Info("Peer review submitted",
		"reviewer_id", actor.ID,
		"reviewee_id", req.RevieweeID,
		"answers", len(req.Answers))

	return reviewResponse(review), nil
}

// GetForm returns everything a student needs to fill in reviews: criteria,
// phase, and teammates annotated with submission status.
func (s *reviewService) GetForm(ctx context.Context, actor models.Actor) (*ReviewFormResponse, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrStudentsOnly
	}

	state, err := s.repo.ReviewState().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read review state: %w", err)
	}

	criteria, err := s.repo.Criterion().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load criteria: %w", err)
	}

	teammates, err := s.repo.User().ListTeammates(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teammates: %w", err)
	}

	submitted, err := s.repo.Review().ListByReviewer(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submitted reviews: %w", err)
	}
	submittedFor := make(map[uint]bool, len(submitted))
	for _, review := range submitted {
		submittedFor[review.RevieweeID] = true
	}

	form := &ReviewFormResponse{
		Status:         state.Status,
		Deadline:       state.SubmissionDeadline,
		SubmissionOpen: state.SubmissionOpen(time.Now()),
		Criteria:       criteria,
		Teammates:      make([]TeammateEntry, 0, len(teammates)),
	}
	for _, teammate := range teammates {
		form.Teammates = append(form.Teammates, TeammateEntry{
			ID:        teammate.ID,
			Username:  teammate.Username,
			Submitted: submittedFor[teammate.ID],
		})
	}

	return form, nil
}

// GetSubmitted returns the caller's own review of a teammate
func (s *reviewService) GetSubmitted(ctx context.Context, teammateID uint, actor models.Actor) (*ReviewResponse, error) {
	if actor.Role != models.RoleStudent {
		return nil, ErrStudentsOnly
	}

	review, err := s.repo.Review().GetByPair(ctx, actor.ID, teammateID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	return reviewResponse(review), nil
}

func reviewResponse(review *models.PeerReview) *ReviewResponse {
	resp := &ReviewResponse{
		ID:          review.ID,
		RevieweeID:  review.RevieweeID,
		Comment:     review.Comment,
		SubmittedAt: review.SubmittedAt,
		Answers:     make([]AnswerResponse, 0, len(review.Answers)),
	}
	for _, answer := range review.Answers {
		resp.Answers = append(resp.Answers, AnswerResponse{
			CriterionID: answer.CriterionID,
			Rating:      answer.Rating,
		})
	}
	return resp
}
