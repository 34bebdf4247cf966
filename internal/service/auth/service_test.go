package auth

import (
	"context"
	"errors"
	"testing"

	"claim-navigator/internal/domain/entity"
)

type stubProvider struct {
	validateErr error
	user        *entity.User
	identifyErr error
}

func (s *stubProvider) ValidateCredentials(ctx context.Context, creds Credentials) error {
	return s.validateErr
}

func (s *stubProvider) IdentifyUser(ctx context.Context, email string) (*entity.User, error) {
	return s.user, s.identifyErr
}

func (s *stubProvider) GetRequirements() CredentialRequirements {
	return CredentialRequirements{MinPasswordLength: 12}
}

func (s *stubProvider) Name() string { return "stub" }

func TestAuthService_ValidateCredentials(t *testing.T) {
	creds := Credentials{Email: "dana@example.com", Password: "a-long-enough-password"}

	service := NewAuthService(&stubProvider{}, nil)
	if err := service.ValidateCredentials(context.Background(), creds); err != nil {
		t.Errorf("valid credentials rejected: %v", err)
	}

	wantErr := errors.New("invalid credentials")
	service = NewAuthService(&stubProvider{validateErr: wantErr}, nil)
	if err := service.ValidateCredentials(context.Background(), creds); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want the provider's error", err)
	}
}

func TestAuthService_IdentifyUser(t *testing.T) {
	want := &entity.User{ID: "user-1", Email: "dana@example.com", Role: entity.RoleUser}
	service := NewAuthService(&stubProvider{user: want}, nil)

	got, err := service.IdentifyUser(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("IdentifyUser() error = %v", err)
	}
	if got.ID != want.ID || got.Role != want.Role {
		t.Errorf("IdentifyUser() = %+v, want %+v", got, want)
	}

	service = NewAuthService(&stubProvider{identifyErr: entity.ErrNotFound}, nil)
	if _, err := service.IdentifyUser(context.Background(), "nobody@example.com"); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAuthService_IsPublicEndpoint(t *testing.T) {
	service := NewAuthService(&stubProvider{}, []string{"/healthz", "/metrics", "/auth/token"})

	tests := []struct {
		path string
		want bool
	}{
		{"/healthz", true},
		{"/metrics", true},
		{"/auth/token", true},
		{"/documents/appeal-letter", false},
		{"/claims/usage", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := service.IsPublicEndpoint(tt.path); got != tt.want {
				t.Errorf("IsPublicEndpoint(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
