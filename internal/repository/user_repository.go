package repository

import (
	"context"

	"claim-navigator/internal/domain/entity"
)

// UserRepository looks up accounts for authentication.
type UserRepository interface {
	// GetByEmail retrieves a user by email address.
	// Returns entity.ErrNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByID retrieves a user by ID.
	// Returns entity.ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
