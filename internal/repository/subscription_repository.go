package repository

import (
	"context"

	"claim-navigator/internal/domain/entity"
)

// SubscriptionRepository looks up a user's subscription state.
type SubscriptionRepository interface {
	// GetByUserID retrieves the most recent subscription for a user.
	// Returns (nil, nil) if the user has no subscription on record.
	GetByUserID(ctx context.Context, userID string) (*entity.Subscription, error)
	// Upsert creates or replaces a subscription record. Used by the
	// billing webhook ingestion path.
	Upsert(ctx context.Context, sub *entity.Subscription) error
}
