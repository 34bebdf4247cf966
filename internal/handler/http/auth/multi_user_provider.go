package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"claim-navigator/internal/domain/entity"
	authservice "claim-navigator/internal/service/auth"
)

// MultiUserAuthProvider authenticates against environment-defined
// accounts for deployments without a user database: one admin account
// and an optional demo account with the base user role.
type MultiUserAuthProvider struct {
	minPasswordLength int
	weakPasswords     []string
}

// NewMultiUserAuthProvider creates the provider with the given
// password policy.
func NewMultiUserAuthProvider(minPasswordLength int, weakPasswords []string) *MultiUserAuthProvider {
	return &MultiUserAuthProvider{
		minPasswordLength: minPasswordLength,
		weakPasswords:     weakPasswords,
	}
}

// matchAccount compares both fields in constant time. Comparisons are
// not short-circuited so timing does not reveal which field differed.
func matchAccount(email, password, wantEmail, wantPassword string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(wantEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(wantPassword)) == 1
	return emailOK && passOK
}

// ValidateCredentials checks the submitted credentials against the
// admin account and, when configured, the demo account.
func (p *MultiUserAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("credentials must not be empty")
	}
	if len(creds.Password) < p.minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", p.minPasswordLength)
	}
	for _, weak := range p.weakPasswords {
		if creds.Password == weak || strings.HasPrefix(creds.Password, weak) {
			return fmt.Errorf("weak password detected")
		}
	}

	if matchAccount(creds.Email, creds.Password, os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_USER_PASSWORD")) {
		return nil
	}
	if demoUser := os.Getenv("DEMO_USER"); demoUser != "" {
		if matchAccount(creds.Email, creds.Password, demoUser, os.Getenv("DEMO_USER_PASSWORD")) {
			return nil
		}
	}

	return fmt.Errorf("invalid credentials")
}

// IdentifyUser returns the account for an email address. Env-based
// accounts have no database row, so the email doubles as the user ID.
func (p *MultiUserAuthProvider) IdentifyUser(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email must not be empty")
	}

	if subtle.ConstantTimeCompare([]byte(email), []byte(os.Getenv("ADMIN_USER"))) == 1 {
		return &entity.User{ID: email, Email: email, Role: entity.RoleAdmin}, nil
	}
	if demoUser := os.Getenv("DEMO_USER"); demoUser != "" {
		if subtle.ConstantTimeCompare([]byte(email), []byte(demoUser)) == 1 {
			return &entity.User{ID: email, Email: email, Role: entity.RoleUser}, nil
		}
	}

	return nil, fmt.Errorf("user not found")
}

// GetRequirements returns the password policy this provider enforces.
func (p *MultiUserAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.minPasswordLength,
		WeakPasswords:     p.weakPasswords,
	}
}

// Name returns the provider name.
func (p *MultiUserAuthProvider) Name() string {
	return "multi-user"
}
