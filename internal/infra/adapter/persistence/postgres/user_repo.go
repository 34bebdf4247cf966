package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/repository"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const query = `
SELECT id, email, role, password_hash, created_at
FROM users
WHERE email = $1
LIMIT 1`
	var user entity.User
	err := repo.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetByEmail: %w", entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return &user, nil
}

func (repo *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const query = `
SELECT id, email, role, password_hash, created_at
FROM users
WHERE id = $1
LIMIT 1`
	var user entity.User
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetByID: %w", entity.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &user, nil
}
