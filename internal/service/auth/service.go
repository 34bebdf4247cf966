// Package auth holds the provider-agnostic pieces of credential
// checking. HTTP handlers talk to AuthService; where the accounts
// actually live (environment variables, the users table) is a provider
// concern.
package auth

import (
	"context"
	"strings"

	"claim-navigator/internal/domain/entity"
)

// Credentials is an email and password pair as submitted by a client.
type Credentials struct {
	Email    string
	Password string
}

// CredentialRequirements is the password policy a provider enforces.
type CredentialRequirements struct {
	MinPasswordLength int
	WeakPasswords     []string
}

// AuthProvider validates credentials against some account store.
type AuthProvider interface {
	// ValidateCredentials checks an email and password pair.
	ValidateCredentials(ctx context.Context, creds Credentials) error

	// IdentifyUser returns the account for a validated email.
	IdentifyUser(ctx context.Context, email string) (*entity.User, error)

	// GetRequirements returns the provider's password policy.
	GetRequirements() CredentialRequirements

	// Name identifies the provider in logs.
	Name() string
}

// AuthService fronts a provider and knows which paths skip
// authentication entirely.
type AuthService struct {
	provider        AuthProvider
	publicEndpoints []string
}

func NewAuthService(provider AuthProvider, publicEndpoints []string) *AuthService {
	return &AuthService{
		provider:        provider,
		publicEndpoints: publicEndpoints,
	}
}

// ValidateCredentials checks creds against the configured provider.
func (s *AuthService) ValidateCredentials(ctx context.Context, creds Credentials) error {
	return s.provider.ValidateCredentials(ctx, creds)
}

// IdentifyUser looks up the account for email via the configured
// provider.
func (s *AuthService) IdentifyUser(ctx context.Context, email string) (*entity.User, error) {
	return s.provider.IdentifyUser(ctx, email)
}

// IsPublicEndpoint reports whether path matches a configured public
// prefix.
func (s *AuthService) IsPublicEndpoint(path string) bool {
	for _, endpoint := range s.publicEndpoints {
		if strings.HasPrefix(path, endpoint) {
			return true
		}
	}
	return false
}
