package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peer-eval-pro/peer-review-service/internal/auth"
	"github.com/peer-eval-pro/peer-review-service/internal/models"
	"github.com/peer-eval-pro/peer-review-service/internal/validator"
)

func newAuthService(repo *fakeRepo) AuthService {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(repo, tokens, testLogger(), validator.New())
}

func TestAuthService_Signup(t *testing.T) {
	repo := newFakeRepo()
	service := newAuthService(repo)
	ctx := context.Background()

	resp, err := service.Signup(ctx, &SignupRequest{
		Username:        "student1",
		Email:           "student1@example.com",
		Password:        "Student123",
		ConfirmPassword: "Student123",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if resp.Token == "" {
		t.Error("Signup() returned empty token")
	}
	if resp.Role != models.RoleStudent {
		t.Errorf("top-level role = %q, want student", resp.Role)
	}
	if resp.User.Role != models.RoleStudent {
		t.Errorf("default role = %q, want student", resp.User.Role)
	}
	if resp.User.ID == 0 {
		t.Error("Signup() user has no ID")
	}
}

func TestAuthService_Signup_InstructorRole(t *testing.T) {
	repo := newFakeRepo()
	service := newAuthService(repo)

	resp, err := service.Signup(context.Background(), &SignupRequest{
		Username:        "prof",
		Email:           "prof@example.com",
		Password:        "Professor1",
		ConfirmPassword: "Professor1",
		Role:            models.RoleInstructor,
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if resp.User.Role != models.RoleInstructor {
		t.Errorf("role = %q, want instructor", resp.User.Role)
	}
}

func TestAuthService_Signup_DuplicateUsername(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser("student1", models.RoleStudent)
	service := newAuthService(repo)

	_, err := service.Signup(context.Background(), &SignupRequest{
		Username:        "student1",
		Email:           "other@example.com",
		Password:        "Student123",
		ConfirmPassword: "Student123",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Signup() error = %v, want ErrUsernameTaken", err)
	}
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser("student1", models.RoleStudent) // email student1@example.com
	service := newAuthService(repo)

	_, err := service.Signup(context.Background(), &SignupRequest{
		Username:        "different",
		Email:           "student1@example.com",
		Password:        "Student123",
		ConfirmPassword: "Student123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Signup() error = %v, want ErrEmailTaken", err)
	}
}

func TestAuthService_Signup_Invalid(t *testing.T) {
	repo := newFakeRepo()
	service := newAuthService(repo)

	_, err := service.Signup(context.Background(), &SignupRequest{
		Username:        "x",
		Email:           "not-an-email",
		Password:        "short",
		ConfirmPassword: "short",
	})

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Signup() error = %T, want ValidationErrors", err)
	}
	if len(verrs) == 0 {
		t.Error("expected validation errors, got none")
	}
}

func TestAuthService_Login(t *testing.T) {
	repo := newFakeRepo()
	service := newAuthService(repo)
	ctx := context.Background()

	if _, err := service.Signup(ctx, &SignupRequest{
		Username:        "student1",
		Email:           "student1@example.com",
		Password:        "Student123",
		ConfirmPassword: "Student123",
	}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	resp, err := service.Login(ctx, &LoginRequest{Username: "student1", Password: "Student123"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" {
		t.Error("Login() returned empty token")
	}
	if resp.Role != models.RoleStudent {
		t.Errorf("Login() role = %q, want student", resp.Role)
	}
	if resp.User.Username != "student1" {
		t.Errorf("Login() username = %q, want student1", resp.User.Username)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newFakeRepo()
	service := newAuthService(repo)
	ctx := context.Background()

	if _, err := service.Signup(ctx, &SignupRequest{
		Username:        "student1",
		Email:           "student1@example.com",
		Password:        "Student123",
		ConfirmPassword: "Student123",
	}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	_, err := service.Login(ctx, &LoginRequest{Username: "student1", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	repo := newFakeRepo()
	service := newAuthService(repo)

	_, err := service.Login(context.Background(), &LoginRequest{Username: "ghost", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials (no username probing)", err)
	}
}
