package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/repository"
)

type QuotaRepo struct{ db *sql.DB }

func NewQuotaRepo(db *sql.DB) repository.QuotaRepository {
	return &QuotaRepo{db: db}
}

func (repo *QuotaRepo) GetUsage(ctx context.Context, userID, feature, monthKey string) (*entity.UsageRecord, error) {
	const query = `
SELECT id, user_id, feature, month_key, usage_count, created_at, updated_at
FROM feature_usage
WHERE user_id = $1 AND feature = $2 AND month_key = $3
LIMIT 1`
	var record entity.UsageRecord
	err := repo.db.QueryRowContext(ctx, query, userID, feature, monthKey).Scan(
		&record.ID, &record.UserID, &record.Feature, &record.MonthKey,
		&record.UsageCount, &record.CreatedAt, &record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetUsage: %w", err)
	}
	return &record, nil
}

func (repo *QuotaRepo) IncrementUsage(ctx context.Context, userID, feature, monthKey string, delta int) (*entity.UsageRecord, error) {
	// Atomic upsert against the (user_id, feature, month_key) unique
	// constraint so concurrent increments never race or duplicate rows.
	const query = `
INSERT INTO feature_usage (user_id, feature, month_key, usage_count)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, feature, month_key) DO UPDATE SET
    usage_count = feature_usage.usage_count + EXCLUDED.usage_count,
    updated_at  = now()
RETURNING id, user_id, feature, month_key, usage_count, created_at, updated_at`
	var record entity.UsageRecord
	err := repo.db.QueryRowContext(ctx, query, userID, feature, monthKey, delta).Scan(
		&record.ID, &record.UserID, &record.Feature, &record.MonthKey,
		&record.UsageCount, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("IncrementUsage: %w", err)
	}
	return &record, nil
}

func (repo *QuotaRepo) ListUsageForMonth(ctx context.Context, userID, monthKey string) ([]*entity.UsageRecord, error) {
	const query = `
SELECT id, user_id, feature, month_key, usage_count, created_at, updated_at
FROM feature_usage
WHERE user_id = $1 AND month_key = $2
ORDER BY feature ASC`
	rows, err := repo.db.QueryContext(ctx, query, userID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("ListUsageForMonth: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*entity.UsageRecord, 0, 8)
	for rows.Next() {
		var record entity.UsageRecord
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.Feature, &record.MonthKey,
			&record.UsageCount, &record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ListUsageForMonth: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (repo *QuotaRepo) DeleteBefore(ctx context.Context, monthKey string) (int64, error) {
	// month_key sorts lexicographically in chronological order.
	const query = `DELETE FROM feature_usage WHERE month_key < $1`
	res, err := repo.db.ExecContext(ctx, query, monthKey)
	if err != nil {
		return 0, fmt.Errorf("DeleteBefore: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteBefore: %w", err)
	}
	return deleted, nil
}
