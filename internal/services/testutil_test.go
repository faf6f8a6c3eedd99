package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/repositories"
)

// fakeData is the shared in-memory store behind the fake repository
type fakeData struct {
	mu sync.Mutex

	users    map[uint]*models.User
	criteria map[uint]*models.Criterion
	reviews  map[uint]*models.PeerReview
	state    *models.ReviewState
	events   []*models.ReviewEvent

	nextUserID      uint
	nextCriterionID uint
	nextReviewID    uint
}

func newFakeData() *fakeData {
	return &fakeData{
		users:    make(map[uint]*models.User),
		criteria: make(map[uint]*models.Criterion),
		reviews:  make(map[uint]*models.PeerReview),
		state: &models.ReviewState{
			ID:      models.ReviewStateID,
			Status:  models.StatusDraft,
			Version: 1,
		},
	}
}

// fakeRepo implements repositories.Repository on top of fakeData
type fakeRepo struct {
	data *fakeData
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{data: newFakeData()}
}

func (f *fakeRepo) User() repositories.UserRepository               { return &fakeUserRepo{f.data} }
func (f *fakeRepo) Criterion() repositories.CriterionRepository     { return &fakeCriterionRepo{f.data} }
func (f *fakeRepo) Review() repositories.ReviewRepository           { return &fakeReviewRepo{f.data} }
func (f *fakeRepo) ReviewState() repositories.ReviewStateRepository { return &fakeStateRepo{f.data} }
func (f *fakeRepo) ReviewEvent() repositories.ReviewEventRepository { return &fakeEventRepo{f.data} }

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

// ===== SEED HELPERS =====

func (f *fakeRepo) addUser(username string, role models.UserRole) *models.User {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	f.data.nextUserID++
	user := &models.User{
		ID:       f.data.nextUserID,
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	f.data.users[user.ID] = user
	return user
}

func (f *fakeRepo) addCriterion(title string, min, max int, weight float64, required bool) *models.Criterion {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	f.data.nextCriterionID++
	criterion := &models.Criterion{
		ID:       f.data.nextCriterionID,
		Title:    title,
		Required: required,
		Scale:    models.Scale{Min: min, Max: max},
		Weight:   weight,
	}
	f.data.criteria[criterion.ID] = criterion
	return criterion
}

func (f *fakeRepo) setStatus(status models.ReviewStatus) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	f.data.state.Status = status
}

func (f *fakeRepo) setDeadline(t *time.Time) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()
	f.data.state.SubmissionDeadline = t
}

// ===== USER =====

type fakeUserRepo struct{ data *fakeData }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	for _, existing := range r.data.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.data.nextUserID++
	user.ID = r.data.nextUserID
	r.data.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	user, ok := r.data.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	for _, user := range r.data.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	for _, user := range r.data.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	for _, user := range r.data.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) ListStudents(ctx context.Context) ([]models.User, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var students []models.User
	for id := uint(1); id <= r.data.nextUserID; id++ {
		if user, ok := r.data.users[id]; ok && user.Role == models.RoleStudent {
			students = append(students, *user)
		}
	}
	return students, nil
}

func (r *fakeUserRepo) ListTeammates(ctx context.Context, excludeID uint) ([]models.User, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var teammates []models.User
	for id := uint(1); id <= r.data.nextUserID; id++ {
		if user, ok := r.data.users[id]; ok && user.Role == models.RoleStudent && user.ID != excludeID {
			teammates = append(teammates, *user)
		}
	}
	return teammates, nil
}

// ===== CRITERION =====

type fakeCriterionRepo struct{ data *fakeData }

func (r *fakeCriterionRepo) Create(ctx context.Context, criterion *models.Criterion) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	r.data.nextCriterionID++
	criterion.ID = r.data.nextCriterionID
	r.data.criteria[criterion.ID] = criterion
	return nil
}

func (r *fakeCriterionRepo) GetByID(ctx context.Context, id uint) (*models.Criterion, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	criterion, ok := r.data.criteria[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *criterion
	return &copied, nil
}

func (r *fakeCriterionRepo) Update(ctx context.Context, criterion *models.Criterion) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	if _, ok := r.data.criteria[criterion.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *criterion
	r.data.criteria[criterion.ID] = &copied
	return nil
}

func (r *fakeCriterionRepo) Delete(ctx context.Context, id uint) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	if _, ok := r.data.criteria[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.data.criteria, id)
	return nil
}

func (r *fakeCriterionRepo) List(ctx context.Context) ([]models.Criterion, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var criteria []models.Criterion
	for id := uint(1); id <= r.data.nextCriterionID; id++ {
		if criterion, ok := r.data.criteria[id]; ok {
			criteria = append(criteria, *criterion)
		}
	}
	return criteria, nil
}

func (r *fakeCriterionRepo) Count(ctx context.Context) (int64, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	return int64(len(r.data.criteria)), nil
}

func (r *fakeCriterionRepo) InvalidateCache(ctx context.Context) error { return nil }

// ===== REVIEW =====

type fakeReviewRepo struct{ data *fakeData }

func (r *fakeReviewRepo) Upsert(ctx context.Context, review *models.PeerReview) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	// Fill criterion references the way Preload would
	for i := range review.Answers {
		if criterion, ok := r.data.criteria[review.Answers[i].CriterionID]; ok {
			review.Answers[i].Criterion = *criterion
		}
	}

	for id, existing := range r.data.reviews {
		if existing.ReviewerID == review.ReviewerID && existing.RevieweeID == review.RevieweeID {
			review.ID = id
			copied := *review
			r.data.reviews[id] = &copied
			return nil
		}
	}

	r.data.nextReviewID++
	review.ID = r.data.nextReviewID
	copied := *review
	r.data.reviews[review.ID] = &copied
	return nil
}

func (r *fakeReviewRepo) GetByPair(ctx context.Context, reviewerID, revieweeID uint) (*models.PeerReview, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	for _, review := range r.data.reviews {
		if review.ReviewerID == reviewerID && review.RevieweeID == revieweeID {
			copied := *review
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeReviewRepo) ListByReviewer(ctx context.Context, reviewerID uint) ([]models.PeerReview, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var reviews []models.PeerReview
	for id := uint(1); id <= r.data.nextReviewID; id++ {
		if review, ok := r.data.reviews[id]; ok && review.ReviewerID == reviewerID {
			reviews = append(reviews, *review)
		}
	}
	return reviews, nil
}

func (r *fakeReviewRepo) ListByReviewee(ctx context.Context, revieweeID uint) ([]models.PeerReview, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var reviews []models.PeerReview
	for id := uint(1); id <= r.data.nextReviewID; id++ {
		if review, ok := r.data.reviews[id]; ok && review.RevieweeID == revieweeID {
			reviews = append(reviews, *review)
		}
	}
	return reviews, nil
}

func (r *fakeReviewRepo) List(ctx context.Context, filters repositories.ReviewFilters) ([]models.PeerReview, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var reviews []models.PeerReview
	for id := uint(1); id <= r.data.nextReviewID; id++ {
		review, ok := r.data.reviews[id]
		if !ok {
			continue
		}
		if filters.ReviewerID != nil && review.ReviewerID != *filters.ReviewerID {
			continue
		}
		if filters.RevieweeID != nil && review.RevieweeID != *filters.RevieweeID {
			continue
		}
		reviews = append(reviews, *review)
	}
	return reviews, nil
}

func (r *fakeReviewRepo) InvalidateResultCache(ctx context.Context, revieweeID uint) error {
	return nil
}

func (r *fakeReviewRepo) CountByReviewer(ctx context.Context, reviewerID uint) (int64, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var count int64
	for _, review := range r.data.reviews {
		if review.ReviewerID == reviewerID {
			count++
		}
	}
	return count, nil
}

// ===== STATE =====

type fakeStateRepo struct{ data *fakeData }

func (r *fakeStateRepo) Get(ctx context.Context) (*models.ReviewState, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	copied := *r.data.state
	return &copied, nil
}

func (r *fakeStateRepo) GetForUpdate(ctx context.Context) (*models.ReviewState, error) {
	return r.Get(ctx)
}

func (r *fakeStateRepo) Update(ctx context.Context, state *models.ReviewState) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	copied := *state
	copied.UpdatedAt = time.Now()
	r.data.state = &copied
	return nil
}

func (r *fakeStateRepo) InvalidateCache(ctx context.Context) error { return nil }

// ===== EVENTS =====

type fakeEventRepo struct{ data *fakeData }

func (r *fakeEventRepo) Append(ctx context.Context, event *models.ReviewEvent) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	event.ID = uint(len(r.data.events) + 1)
	r.data.events = append(r.data.events, event)
	return nil
}

func (r *fakeEventRepo) List(ctx context.Context, limit int) ([]models.ReviewEvent, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	var out []models.ReviewEvent
	for i := len(r.data.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.data.events[i])
	}
	return out, nil
}

// testLogger discards output, tests assert on behavior not logs
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
