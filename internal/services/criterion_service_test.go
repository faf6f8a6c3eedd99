package services

import (
	"context"
	"errors"
	"testing"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

func newCriterionService(repo *fakeRepo) CriterionService {
	return NewCriterionService(repo, testLogger(), validator.New())
}

func instructorActor(repo *fakeRepo) models.Actor {
	return repo.addUser("prof", models.RoleInstructor).AsActor()
}

func studentActor(repo *fakeRepo) models.Actor {
	return repo.addUser("student1", models.RoleStudent).AsActor()
}

func TestCriterionService_Create_Defaults(t *testing.T) {
	repo := newFakeRepo()
	service := newCriterionService(repo)
	actor := instructorActor(repo)

	criterion, err := service.Create(context.Background(), &CreateCriterionRequest{Title: "Communication"}, actor)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !criterion.Required {
		t.Error("required should default to true")
	}
	if criterion.Scale.Min != 1 || criterion.Scale.Max != 5 {
		t.Errorf("scale = [%d, %d], want default [1, 5]", criterion.Scale.Min, criterion.Scale.Max)
	}
	if criterion.Weight != 1.0 {
		t.Errorf("weight = %v, want default 1.0", criterion.Weight)
	}
}

func TestCriterionService_Create_StudentForbidden(t *testing.T) {
	repo := newFakeRepo()
	service := newCriterionService(repo)
	actor := studentActor(repo)

	_, err := service.Create(context.Background(), &CreateCriterionRequest{Title: "Communication"}, actor)
	if !IsPermissionError(err) {
		t.Errorf("Create() error = %v, want PermissionError", err)
	}
}

func TestCriterionService_FrozenOutsideDraft(t *testing.T) {
	for _, status := range []models.ReviewStatus{models.StatusStarted, models.StatusPublished} {
		t.Run(string(status), func(t *testing.T) {
			repo := newFakeRepo()
			service := newCriterionService(repo)
			actor := instructorActor(repo)
			existing := repo.addCriterion("Communication", 1, 5, 1, true)
			repo.setStatus(status)

			if _, err := service.Create(context.Background(), &CreateCriterionRequest{Title: "New"}, actor); !errors.Is(err, ErrCriteriaLocked) {
				t.Errorf("Create() error = %v, want ErrCriteriaLocked", err)
			}

			title := "Renamed"
			if _, err := service.Update(context.Background(), existing.ID, &UpdateCriterionRequest{Title: &title}, actor); !errors.Is(err, ErrCriteriaLocked) {
				t.Errorf("Update() error = %v, want ErrCriteriaLocked", err)
			}

			if err := service.Delete(context.Background(), existing.ID, actor); !errors.Is(err, ErrCriteriaLocked) {
				t.Errorf("Delete() error = %v, want ErrCriteriaLocked", err)
			}
		})
	}
}

// stalePhaseRepo serves an outdated phase on the unlocked state read while the
// locked read sees the committed row, like a cache entry outliving a concurrent
// phase transition.
type stalePhaseRepo struct {
	*fakeRepo
	stale models.ReviewStatus
}

func (r *stalePhaseRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *stalePhaseRepo) ReviewState() repositories.ReviewStateRepository {
	return &stalePhaseStateRepo{inner: r.fakeRepo.ReviewState(), stale: r.stale}
}

type stalePhaseStateRepo struct {
	inner repositories.ReviewStateRepository
	stale models.ReviewStatus
}

func (r *stalePhaseStateRepo) Get(ctx context.Context) (*models.ReviewState, error) {
	state, err := r.inner.Get(ctx)
	if err != nil {
		return nil, err
	}
	state.Status = r.stale
	return state, nil
}

func (r *stalePhaseStateRepo) GetForUpdate(ctx context.Context) (*models.ReviewState, error) {
	return r.inner.GetForUpdate(ctx)
}

func (r *stalePhaseStateRepo) Update(ctx context.Context, state *models.ReviewState) error {
	return r.inner.Update(ctx, state)
}

func (r *stalePhaseStateRepo) InvalidateCache(ctx context.Context) error {
	return r.inner.InvalidateCache(ctx)
}

func TestCriterionService_LockedReadGatesWrites(t *testing.T) {
	inner := newFakeRepo()
	actor := instructorActor(inner)
	existing := inner.addCriterion("Communication", 1, 5, 1, true)
	inner.setStatus(models.StatusStarted)

	// The unlocked read still claims draft, only the row lock sees started
	repo := &stalePhaseRepo{fakeRepo: inner, stale: models.StatusDraft}
	service := NewCriterionService(repo, testLogger(), validator.New())
	ctx := context.Background()

	if _, err := service.Create(ctx, &CreateCriterionRequest{Title: "New"}, actor); !errors.Is(err, ErrCriteriaLocked) {
		t.Errorf("Create() error = %v, want ErrCriteriaLocked", err)
	}

	title := "Renamed"
	if _, err := service.Update(ctx, existing.ID, &UpdateCriterionRequest{Title: &title}, actor); !errors.Is(err, ErrCriteriaLocked) {
		t.Errorf("Update() error = %v, want ErrCriteriaLocked", err)
	}

	if err := service.Delete(ctx, existing.ID, actor); !errors.Is(err, ErrCriteriaLocked) {
		t.Errorf("Delete() error = %v, want ErrCriteriaLocked", err)
	}

	criteria, err := inner.Criterion().List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(criteria) != 1 || criteria[0].Title != "Communication" {
		t.Errorf("criteria set changed despite locked phase: %+v", criteria)
	}
}

func TestCriterionService_Update(t *testing.T) {
	repo := newFakeRepo()
	service := newCriterionService(repo)
	actor := instructorActor(repo)
	existing := repo.addCriterion("Communication", 1, 5, 1, true)

	title := "Clear communication"
	weight := 2.5
	updated, err := service.Update(context.Background(), existing.ID, &UpdateCriterionRequest{
		Title:  &title,
		Weight: &weight,
		Scale:  &validator.ScaleRequest{Min: 0, Max: 10},
	}, actor)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
	if updated.Weight != weight {
		t.Errorf("weight = %v, want %v", updated.Weight, weight)
	}
	if updated.Scale.Min != 0 || updated.Scale.Max != 10 {
		t.Errorf("scale = [%d, %d], want [0, 10]", updated.Scale.Min, updated.Scale.Max)
	}
}

func TestCriterionService_Update_NotFound(t *testing.T) {
	repo := newFakeRepo()
	service := newCriterionService(repo)
	actor := instructorActor(repo)

	title := "Renamed"
	_, err := service.Update(context.Background(), 999, &UpdateCriterionRequest{Title: &title}, actor)
	if !errors.Is(err, ErrCriterionNotFound) {
		t.Errorf("Update() error = %v, want ErrCriterionNotFound", err)
	}
}

func TestCriterionService_Delete(t *testing.T) {
	repo := newFakeRepo()
	service := newCriterionService(repo)
	actor := instructorActor(repo)
	existing := repo.addCriterion("Communication", 1, 5, 1, true)

	if err := service.Delete(context.Background(), existing.ID, actor); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := service.GetByID(context.Background(), existing.ID); !errors.Is(err, ErrCriterionNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrCriterionNotFound", err)
	}
}

func TestCriterionService_List(t *testing.T) {
	repo := newFakeRepo()
	service := newCriterionService(repo)
	repo.addCriterion("Communication", 1, 5, 1, true)
	repo.addCriterion("Reliability", 1, 10, 2, true)

	criteria, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(criteria) != 2 {
		t.Fatalf("List() returned %d criteria, want 2", len(criteria))
	}
	if criteria[0].Title != "Communication" || criteria[1].Title != "Reliability" {
		t.Errorf("List() order = [%s, %s], want creation order", criteria[0].Title, criteria[1].Title)
	}
}
