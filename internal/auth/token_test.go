package auth

import (
	"testing"
	"time"

	"github.com/peer-eval-pro/peer-review-service/internal/models"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Username: "student1", Role: models.RoleStudent}

	token, err := tm.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "student1" {
		t.Errorf("Username = %q, want %q", claims.Username, "student1")
	}
	if claims.Role != models.RoleStudent {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleStudent)
	}

	actor := claims.Actor()
	if actor.ID != 42 || actor.Role != models.RoleStudent {
		t.Errorf("Actor() = %+v, want id 42 student", actor)
	}
}

func TestTokenManager_Parse_Invalid(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.Parse(tt.token); err == nil {
				t.Error("Parse() expected error, got nil")
			}
		})
	}
}

func TestTokenManager_Parse_WrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", time.Hour)
	other := NewTokenManager("secret-b", time.Hour)

	token, err := tm.Issue(&models.User{ID: 1, Username: "inst", Role: models.RoleInstructor})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Error("Parse() with wrong secret expected error, got nil")
	}
}

func TestTokenManager_Parse_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(&models.User{ID: 1, Username: "student1", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := tm.Parse(token); err == nil {
		t.Error("Parse() of expired token expected error, got nil")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Student123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !CheckPasswordHash("Student123", hash) {
		t.Error("CheckPasswordHash() = false for correct password")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("CheckPasswordHash() = true for wrong password")
	}
}
