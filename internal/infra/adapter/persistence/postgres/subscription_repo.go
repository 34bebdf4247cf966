package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/repository"
)

type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

func (repo *SubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	const query = `
SELECT id, user_id, plan, status, current_period_end, created_at, updated_at
FROM subscriptions
WHERE user_id = $1
ORDER BY current_period_end DESC
LIMIT 1`
	var sub entity.Subscription
	err := repo.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.Plan, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return &sub, nil
}

func (repo *SubscriptionRepo) Upsert(ctx context.Context, sub *entity.Subscription) error {
	const query = `
INSERT INTO subscriptions (id, user_id, plan, status, current_period_end)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    plan               = EXCLUDED.plan,
    status             = EXCLUDED.status,
    current_period_end = EXCLUDED.current_period_end,
    updated_at         = now()`
	_, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.Plan, sub.Status, sub.CurrentPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}
