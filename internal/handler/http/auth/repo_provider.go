package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/repository"
	authservice "claim-navigator/internal/service/auth"
)

// RepositoryAuthProvider authenticates against the users table with
// bcrypt password hashes. This is the production provider; the
// environment-based providers exist for development deployments.
type RepositoryAuthProvider struct {
	users             repository.UserRepository
	minPasswordLength int
}

// NewRepositoryAuthProvider creates a repository-backed auth provider.
func NewRepositoryAuthProvider(users repository.UserRepository, minPasswordLength int) *RepositoryAuthProvider {
	return &RepositoryAuthProvider{
		users:             users,
		minPasswordLength: minPasswordLength,
	}
}

// ValidateCredentials checks the password against the stored bcrypt hash.
// Unknown accounts and wrong passwords return the same error so callers
// cannot probe for registered emails.
func (p *RepositoryAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("credentials must not be empty")
	}

	user, err := p.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			// Burn a hash comparison anyway to keep timing uniform
			// between unknown accounts and wrong passwords.
			_ = bcrypt.CompareHashAndPassword(
				[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"),
				[]byte(creds.Password))
			return fmt.Errorf("invalid credentials")
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return fmt.Errorf("invalid credentials")
	}
	return nil
}

// IdentifyUser returns the account for a given email address.
func (p *RepositoryAuthProvider) IdentifyUser(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email must not be empty")
	}
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return user, nil
}

// GetRequirements returns the password requirements.
func (p *RepositoryAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.minPasswordLength,
	}
}

// Name returns the provider name.
func (p *RepositoryAuthProvider) Name() string {
	return "repository"
}
