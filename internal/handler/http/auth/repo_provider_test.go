package auth

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"claim-navigator/internal/domain/entity"
	authservice "claim-navigator/internal/service/auth"
)

type stubUserRepo struct {
	users map[string]*entity.User
	err   error
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, entity.ErrNotFound
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	return string(hash)
}

func TestRepositoryProvider_ValidateCredentials(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*entity.User{
		"dana@example.com": {
			ID:           "user-1",
			Email:        "dana@example.com",
			Role:         entity.RoleUser,
			PasswordHash: "",
		},
	}}
	repo.users["dana@example.com"].PasswordHash = mustHash(t, "a-long-enough-password")

	provider := NewRepositoryAuthProvider(repo, 12)
	ctx := context.Background()

	tests := []struct {
		name        string
		email       string
		password    string
		expectError bool
	}{
		{"valid credentials", "dana@example.com", "a-long-enough-password", false},
		{"wrong password", "dana@example.com", "not-the-right-password", true},
		{"unknown user", "nobody@example.com", "a-long-enough-password", true},
		{"empty credentials", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := provider.ValidateCredentials(ctx, authservice.Credentials{
				Email:    tt.email,
				Password: tt.password,
			})
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestRepositoryProvider_ValidateCredentials_RepoError(t *testing.T) {
	repo := &stubUserRepo{err: fmt.Errorf("connection refused")}
	provider := NewRepositoryAuthProvider(repo, 12)

	err := provider.ValidateCredentials(context.Background(), authservice.Credentials{
		Email:    "dana@example.com",
		Password: "a-long-enough-password",
	})
	if err == nil {
		t.Error("expected error when repository is unavailable")
	}
}

func TestRepositoryProvider_IdentifyUser(t *testing.T) {
	want := &entity.User{ID: "user-1", Email: "dana@example.com", Role: entity.RoleAgent}
	repo := &stubUserRepo{users: map[string]*entity.User{"dana@example.com": want}}
	provider := NewRepositoryAuthProvider(repo, 12)

	got, err := provider.IdentifyUser(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("IdentifyUser() error = %v", err)
	}
	if got.ID != want.ID || got.Role != want.Role {
		t.Errorf("IdentifyUser() = %+v, want %+v", got, want)
	}

	if _, err := provider.IdentifyUser(context.Background(), "nobody@example.com"); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestRepositoryProvider_Name(t *testing.T) {
	provider := NewRepositoryAuthProvider(nil, 12)
	if got := provider.Name(); got != "repository" {
		t.Errorf("Name() = %q, want %q", got, "repository")
	}
}
