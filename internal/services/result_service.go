package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
)

type resultService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewResultService(repo repositories.Repository, logger *slog.Logger) ResultService {
	return &resultService{
		repo:   repo,
		logger: logger,
	}
}

// GetMyResults returns the reviews the caller received. Students only see
// them once results are published; the gate does not apply to instructors.
func (s *resultService) GetMyResults(ctx context.Context, actor models.Actor) (*StudentResultResponse, error) {
	if !actor.IsInstructor() {
		state, err := s.repo.ReviewState().Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read review state: %w", err)
		}
		if !state.ResultsVisible() {
			return nil, ErrResultsNotPublic
		}
	}

	return s.buildStudentResult(ctx, actor.ID, actor.Username, true)
}

// GetStudentResults returns one student's received reviews, instructors only
func (s *resultService) GetStudentResults(ctx context.Context, studentID uint, actor models.Actor) (*StudentResultResponse, error) {
	if !actor.IsInstructor() {
		return nil, NewPermissionError(actor.ID, studentID, "results", "read", "instructor role required")
	}

	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	return s.buildStudentResult(ctx, student.ID, student.Username, true)
}

// GetSummary returns the roster overview, instructors only
func (s *resultService) GetSummary(ctx context.Context, actor models.Actor) ([]SummaryRow, error) {
	if !actor.IsInstructor() {
		return nil, NewPermissionError(actor.ID, 0, "results", "summarize", "instructor role required")
	}

	students, err := s.repo.User().ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	rows := make([]SummaryRow, 0, len(students))
	for _, student := range students {
		given, err := s.repo.Review().CountByReviewer(ctx, student.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count reviews for student %d: %w", student.ID, err)
		}

		result, err := s.buildStudentResult(ctx, student.ID, student.Username, false)
		if err != nil {
			return nil, err
		}

		rows = append(rows, SummaryRow{
			StudentID:       student.ID,
			Username:        student.Username,
			ReviewsGiven:    given,
			ReviewsReceived: result.ReviewCount,
			WeightedScore:   result.WeightedScore,
		})
	}

	return rows, nil
}

// ExportSummary renders the roster overview as an xlsx workbook
func (s *resultService) ExportSummary(ctx context.Context, actor models.Actor) ([]byte, error) {
	rows, err := s.GetSummary(ctx, actor)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Student ID", "Username", "Reviews Given", "Reviews Received", "Weighted Score"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		values := []interface{}{row.StudentID, row.Username, row.ReviewsGiven, row.ReviewsReceived}
		if row.WeightedScore != nil {
			values = append(values, *row.WeightedScore)
		} else {
			values = append(values, "")
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	s.logger.Info("Results exported", "rows", len(rows), "actor_id", actor.ID)
	return buf.Bytes(), nil
}

// buildStudentResult aggregates everything written about one student.
// includeReviews controls whether the anonymized review bodies are attached.
func (s *resultService) buildStudentResult(ctx context.Context, studentID uint, username string, includeReviews bool) (*StudentResultResponse, error) {
	reviews, err := s.repo.Review().ListByReviewee(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load received reviews: %w", err)
	}

	result := &StudentResultResponse{
		StudentID:   studentID,
		Username:    username,
		ReviewCount: len(reviews),
	}

	var weightedSum, weightTotal float64
	perCriterion := make(map[uint]*criterionAccumulator)

	for _, review := range reviews {
		for _, answer := range review.Answers {
			weight := answer.Criterion.Weight
			weightedSum += float64(answer.Rating) * weight
			weightTotal += weight

			acc, ok := perCriterion[answer.CriterionID]
			if !ok {
				acc = &criterionAccumulator{}
				perCriterion[answer.CriterionID] = acc
			}
			acc.sum += float64(answer.Rating)
			acc.count++
		}

		if includeReviews {
			received := ReceivedReview{
				Comment:     review.Comment,
				SubmittedAt: review.SubmittedAt,
				Answers:     make([]AnswerResponse, 0, len(review.Answers)),
			}
			for _, answer := range review.Answers {
				received.Answers = append(received.Answers, AnswerResponse{
					CriterionID: answer.CriterionID,
					Rating:      answer.Rating,
				})
			}
			result.Reviews = append(result.Reviews, received)
		}
	}

	if weightTotal > 0 {
		score := round2(weightedSum / weightTotal)
		result.WeightedScore = &score
	}

	// Stable output order follows criterion IDs
	criteria, err := s.repo.Criterion().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load criteria: %w", err)
	}
	for _, criterion := range criteria {
		if acc, ok := perCriterion[criterion.ID]; ok {
			result.PerCriterion = append(result.PerCriterion, CriterionScore{
				CriterionID: criterion.ID,
				Title:       criterion.Title,
				Average:     round2(acc.sum / float64(acc.count)),
			})
		}
	}

	return result, nil
}

type criterionAccumulator struct {
	sum   float64
	count int
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
