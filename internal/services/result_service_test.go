package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

// resultFixture seeds three students with reviews submitted about alice:
// bob rates (4, 8), carol rates (2, 6) on criteria weighted 1 and 2.
func resultFixture(t *testing.T) (*fakeRepo, ResultService, models.Actor, models.Actor) {
	t.Helper()
	repo := newFakeRepo()
	reviewSvc := newReviewService(repo)
	service := NewResultService(repo, testLogger())

	alice := repo.addUser("alice", models.RoleStudent).AsActor()
	bob := repo.addUser("bob", models.RoleStudent).AsActor()
	carol := repo.addUser("carol", models.RoleStudent).AsActor()
	prof := repo.addUser("prof", models.RoleInstructor).AsActor()

	repo.addCriterion("Communication", 1, 5, 1, true)
	repo.addCriterion("Reliability", 1, 10, 2, true)
	repo.setStatus(models.StatusStarted)

	ctx := context.Background()
	submit := func(reviewer models.Actor, ratings [2]int) {
		t.Helper()
		req := &SubmitReviewRequest{
			RevieweeID: alice.ID,
			Answers: []validator.AnswerEntry{
				{CriterionID: 1, Rating: ratings[0]},
				{CriterionID: 2, Rating: ratings[1]},
			},
		}
		if _, err := reviewSvc.Submit(ctx, req, reviewer); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	submit(bob, [2]int{4, 8})
	submit(carol, [2]int{2, 6})

	return repo, service, alice, prof
}

func TestResultService_WeightedScore(t *testing.T) {
	repo, service, alice, _ := resultFixture(t)
	repo.setStatus(models.StatusPublished)

	result, err := service.GetMyResults(context.Background(), alice)
	if err != nil {
		t.Fatalf("GetMyResults() error = %v", err)
	}

	if result.ReviewCount != 2 {
		t.Errorf("review count = %d, want 2", result.ReviewCount)
	}

	// (4*1 + 8*2 + 2*1 + 6*2) / (1+2+1+2) = 34/6 = 5.67
	if result.WeightedScore == nil {
		t.Fatal("weighted score missing")
	}
	if *result.WeightedScore != 5.67 {
		t.Errorf("weighted score = %v, want 5.67", *result.WeightedScore)
	}

	if len(result.PerCriterion) != 2 {
		t.Fatalf("per-criterion entries = %d, want 2", len(result.PerCriterion))
	}
	if result.PerCriterion[0].Average != 3 { // (4+2)/2
		t.Errorf("communication average = %v, want 3", result.PerCriterion[0].Average)
	}
	if result.PerCriterion[1].Average != 7 { // (8+6)/2
		t.Errorf("reliability average = %v, want 7", result.PerCriterion[1].Average)
	}

	// Bodies attached but anonymized: no reviewer identity in the response
	if len(result.Reviews) != 2 {
		t.Errorf("review bodies = %d, want 2", len(result.Reviews))
	}
}

func TestResultService_StudentGatedUntilPublished(t *testing.T) {
	_, service, alice, _ := resultFixture(t)

	_, err := service.GetMyResults(context.Background(), alice)
	if !errors.Is(err, ErrResultsNotPublic) {
		t.Errorf("GetMyResults() before publish error = %v, want ErrResultsNotPublic", err)
	}
}

func TestResultService_InstructorSeesBeforePublish(t *testing.T) {
	_, service, alice, prof := resultFixture(t)

	result, err := service.GetStudentResults(context.Background(), alice.ID, prof)
	if err != nil {
		t.Fatalf("GetStudentResults() error = %v", err)
	}
	if result.ReviewCount != 2 {
		t.Errorf("review count = %d, want 2", result.ReviewCount)
	}
}

func TestResultService_GetStudentResults_StudentForbidden(t *testing.T) {
	_, service, alice, _ := resultFixture(t)

	_, err := service.GetStudentResults(context.Background(), 2, alice)
	if !IsPermissionError(err) {
		t.Errorf("GetStudentResults() error = %v, want PermissionError", err)
	}
}

func TestResultService_Summary(t *testing.T) {
	_, service, alice, prof := resultFixture(t)

	rows, err := service.GetSummary(context.Background(), prof)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("summary rows = %d, want 3 students", len(rows))
	}

	byID := make(map[uint]SummaryRow, len(rows))
	for _, row := range rows {
		byID[row.StudentID] = row
	}

	aliceRow := byID[alice.ID]
	if aliceRow.ReviewsReceived != 2 {
		t.Errorf("alice reviews received = %d, want 2", aliceRow.ReviewsReceived)
	}
	if aliceRow.ReviewsGiven != 0 {
		t.Errorf("alice reviews given = %d, want 0", aliceRow.ReviewsGiven)
	}
	if aliceRow.WeightedScore == nil || *aliceRow.WeightedScore != 5.67 {
		t.Errorf("alice weighted score = %v, want 5.67", aliceRow.WeightedScore)
	}

	bobRow := byID[2]
	if bobRow.ReviewsGiven != 1 {
		t.Errorf("bob reviews given = %d, want 1", bobRow.ReviewsGiven)
	}
	if bobRow.WeightedScore != nil {
		t.Errorf("bob weighted score = %v, want nil (no reviews received)", bobRow.WeightedScore)
	}
}

func TestResultService_ExportSummary(t *testing.T) {
	_, service, _, prof := resultFixture(t)

	data, err := service.ExportSummary(context.Background(), prof)
	if err != nil {
		t.Fatalf("ExportSummary() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportSummary() returned empty file")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported file is not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	// Header plus one line per student
	if len(rows) != 4 {
		t.Errorf("workbook rows = %d, want 4", len(rows))
	}
	if rows[0][1] != "Username" {
		t.Errorf("header[1] = %q, want Username", rows[0][1])
	}
}

func TestResultService_ExportSummary_StudentForbidden(t *testing.T) {
	_, service, alice, _ := resultFixture(t)

	_, err := service.ExportSummary(context.Background(), alice)
	if !IsPermissionError(err) {
		t.Errorf("ExportSummary() error = %v, want PermissionError", err)
	}
}
