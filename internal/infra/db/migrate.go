package db

import (
	"database/sql"
)

// MigrateUp creates the schema: accounts, subscription state, monthly
// feature usage, and shared rate limit windows.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    role          VARCHAR(20) NOT NULL DEFAULT 'user',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS subscriptions (
    id                 TEXT PRIMARY KEY,
    user_id            UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    plan               VARCHAR(50) NOT NULL,
    status             VARCHAR(20) NOT NULL,
    current_period_end TIMESTAMPTZ NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	// month_key is the UTC calendar month ("2024-01"). The unique
	// constraint is what makes IncrementUsage an upsert: at most one
	// live row per (user, feature, month).
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feature_usage (
    id          BIGSERIAL PRIMARY KEY,
    user_id     UUID NOT NULL,
    feature     VARCHAR(64) NOT NULL,
    month_key   CHAR(7) NOT NULL,
    usage_count INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, feature, month_key)
)`); err != nil {
		return err
	}

	// Shared fixed-window counters so rate limit state survives
	// restarts and is consistent across instances.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS rate_windows (
    key           TEXT PRIMARY KEY,
    window_start  TIMESTAMPTZ NOT NULL,
    count         INTEGER NOT NULL DEFAULT 0,
    blocked_until TIMESTAMPTZ,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feature_usage_user_month ON feature_usage(user_id, month_key)`,
		`CREATE INDEX IF NOT EXISTS idx_feature_usage_month_key ON feature_usage(month_key)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_windows_window_start ON rate_windows(window_start)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back the database schema.
// Use with caution: this will delete all data in the affected tables.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS rate_windows`,
		`DROP TABLE IF EXISTS feature_usage`,
		`DROP TABLE IF EXISTS subscriptions`,
		`DROP TABLE IF EXISTS users`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
