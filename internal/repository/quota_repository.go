package repository

import (
	"context"

	"claim-navigator/internal/domain/entity"
)

// QuotaRepository persists per-user monthly feature usage.
type QuotaRepository interface {
	// GetUsage retrieves the usage record for (userID, feature, monthKey).
	// Returns (nil, nil) if no record exists yet; absence means zero usage.
	GetUsage(ctx context.Context, userID, feature, monthKey string) (*entity.UsageRecord, error)
	// IncrementUsage adds delta to the usage count for
	// (userID, feature, monthKey), creating the record if it does not
	// exist. The upsert must be atomic so concurrent requests never
	// lose increments.
	IncrementUsage(ctx context.Context, userID, feature, monthKey string, delta int) (*entity.UsageRecord, error)
	// ListUsageForMonth retrieves all usage records for a user in one month,
	// ordered by feature. Used by the usage summary endpoint.
	ListUsageForMonth(ctx context.Context, userID, monthKey string) ([]*entity.UsageRecord, error)
	// DeleteBefore removes usage records for months older than the given
	// month key. Used by the retention worker.
	DeleteBefore(ctx context.Context, monthKey string) (int64, error)
}
