package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// StatsRepo reads aggregate table counts for the maintenance worker's
// gauge refresh job.
type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (repo *StatsRepo) CountUsers(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users`
	var count int
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountUsers: %w", err)
	}
	return count, nil
}

func (repo *StatsRepo) CountUsageRecords(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM feature_usage`
	var count int
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountUsageRecords: %w", err)
	}
	return count, nil
}
