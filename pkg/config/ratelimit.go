package config

import (
	"log/slog"
	"time"

	"claim-navigator/pkg/ratelimit"
)

// LoadRateLimitConfig loads rate limiting configuration from environment variables.
//
// This function reads all rate limiting configuration from environment variables
// and returns a validated ratelimit.Config. If any values are invalid, it logs
// warnings and uses safe defaults instead of failing.
//
// Environment variables:
//   - RATELIMIT_ENABLED: Enable/disable rate limiting (default: true)
//   - RATELIMIT_KEY_LIMIT: Per-key limit (requests per window) (default: 60)
//   - RATELIMIT_KEY_WINDOW: Per-key window (default: 1m)
//   - RATELIMIT_IP_LIMIT: Per-IP limit (requests per window) (default: 100)
//   - RATELIMIT_IP_WINDOW: Per-IP window (default: 1m)
//   - RATELIMIT_BURST_LIMIT: Burst limit (requests per window) (default: 50)
//   - RATELIMIT_BURST_WINDOW: Burst window (default: 10s)
//   - RATELIMIT_BLOCK_DURATION: Escalation block for key/IP violations (default: 5m)
//   - RATELIMIT_BURST_BLOCK_DURATION: Escalation block for burst violations (default: 1m)
//   - RATELIMIT_STORE_TIMEOUT: Counter store round-trip budget (default: 2s)
//
// Returns:
//   - ratelimit.Config: Validated configuration with defaults applied
//   - error: Always nil (validation failures result in warnings and defaults)
//
// Example:
//
//	config, err := LoadRateLimitConfig()
//	if err != nil {
//	    return fmt.Errorf("failed to load rate limit config: %w", err)
//	}
func LoadRateLimitConfig() (ratelimit.Config, error) {
	config := ratelimit.Config{}

	config.Enabled = GetEnvBool("RATELIMIT_ENABLED", true)

	keyLimit := GetEnvInt("RATELIMIT_KEY_LIMIT", ratelimit.DefaultKeyLimit)
	if keyLimit <= 0 {
		slog.Warn("invalid RATELIMIT_KEY_LIMIT, using default",
			slog.Int("value", keyLimit),
			slog.Int("default", ratelimit.DefaultKeyLimit))
		keyLimit = ratelimit.DefaultKeyLimit
	}
	config.KeyLimit = keyLimit

	keyWindow := GetEnvDuration("RATELIMIT_KEY_WINDOW", ratelimit.DefaultKeyWindow)
	if err := ValidatePositiveDuration(keyWindow); err != nil {
		slog.Warn("invalid RATELIMIT_KEY_WINDOW, using default",
			slog.String("value", keyWindow.String()),
			slog.String("default", ratelimit.DefaultKeyWindow.String()),
			slog.String("error", err.Error()))
		keyWindow = ratelimit.DefaultKeyWindow
	}
	config.KeyWindow = keyWindow

	ipLimit := GetEnvInt("RATELIMIT_IP_LIMIT", ratelimit.DefaultIPLimit)
	if ipLimit <= 0 {
		slog.Warn("invalid RATELIMIT_IP_LIMIT, using default",
			slog.Int("value", ipLimit),
			slog.Int("default", ratelimit.DefaultIPLimit))
		ipLimit = ratelimit.DefaultIPLimit
	}
	config.IPLimit = ipLimit

	ipWindow := GetEnvDuration("RATELIMIT_IP_WINDOW", ratelimit.DefaultIPWindow)
	if err := ValidatePositiveDuration(ipWindow); err != nil {
		slog.Warn("invalid RATELIMIT_IP_WINDOW, using default",
			slog.String("value", ipWindow.String()),
			slog.String("default", ratelimit.DefaultIPWindow.String()),
			slog.String("error", err.Error()))
		ipWindow = ratelimit.DefaultIPWindow
	}
	config.IPWindow = ipWindow

	burstLimit := GetEnvInt("RATELIMIT_BURST_LIMIT", ratelimit.DefaultBurstLimit)
	if burstLimit <= 0 {
		slog.Warn("invalid RATELIMIT_BURST_LIMIT, using default",
			slog.Int("value", burstLimit),
			slog.Int("default", ratelimit.DefaultBurstLimit))
		burstLimit = ratelimit.DefaultBurstLimit
	}
	config.BurstLimit = burstLimit

	burstWindow := GetEnvDuration("RATELIMIT_BURST_WINDOW", ratelimit.DefaultBurstWindow)
	if err := ValidatePositiveDuration(burstWindow); err != nil {
		slog.Warn("invalid RATELIMIT_BURST_WINDOW, using default",
			slog.String("value", burstWindow.String()),
			slog.String("default", ratelimit.DefaultBurstWindow.String()),
			slog.String("error", err.Error()))
		burstWindow = ratelimit.DefaultBurstWindow
	}
	config.BurstWindow = burstWindow

	blockDuration := GetEnvDuration("RATELIMIT_BLOCK_DURATION", ratelimit.DefaultBlockDuration)
	if err := ValidatePositiveDuration(blockDuration); err != nil {
		slog.Warn("invalid RATELIMIT_BLOCK_DURATION, using default",
			slog.String("value", blockDuration.String()),
			slog.String("default", ratelimit.DefaultBlockDuration.String()),
			slog.String("error", err.Error()))
		blockDuration = ratelimit.DefaultBlockDuration
	}
	config.BlockDuration = blockDuration

	burstBlockDuration := GetEnvDuration("RATELIMIT_BURST_BLOCK_DURATION", ratelimit.DefaultBurstBlockDuration)
	if err := ValidatePositiveDuration(burstBlockDuration); err != nil {
		slog.Warn("invalid RATELIMIT_BURST_BLOCK_DURATION, using default",
			slog.String("value", burstBlockDuration.String()),
			slog.String("default", ratelimit.DefaultBurstBlockDuration.String()),
			slog.String("error", err.Error()))
		burstBlockDuration = ratelimit.DefaultBurstBlockDuration
	}
	config.BurstBlockDuration = burstBlockDuration

	storeTimeout := GetEnvDuration("RATELIMIT_STORE_TIMEOUT", ratelimit.DefaultStoreTimeout)
	if err := ValidateDurationRange(storeTimeout, 100*time.Millisecond, 30*time.Second); err != nil {
		slog.Warn("invalid RATELIMIT_STORE_TIMEOUT, using default",
			slog.String("value", storeTimeout.String()),
			slog.String("default", ratelimit.DefaultStoreTimeout.String()),
			slog.String("error", err.Error()))
		storeTimeout = ratelimit.DefaultStoreTimeout
	}
	config.StoreTimeout = storeTimeout

	// Validate the entire configuration
	if err := config.Validate(); err != nil {
		slog.Warn("rate limit configuration validation failed, applying defaults",
			slog.String("error", err.Error()))
		config.ApplyDefaults()
	}

	return config, nil
}

// StoreConfig contains counter store sizing and maintenance settings.
//
// These settings belong to the store rather than the limiter: the
// in-memory store uses MaxKeys for LRU eviction, and the cleanup
// worker uses CleanupInterval and CleanupMaxAge to prune expired
// windows from whichever store backs the limiter.
type StoreConfig struct {
	// MaxKeys caps the number of keys the in-memory store tracks.
	MaxKeys int

	// CleanupInterval is how often the cleanup worker runs.
	CleanupInterval time.Duration

	// CleanupMaxAge is how far past its window end a counter must be
	// before cleanup removes it.
	CleanupMaxAge time.Duration
}

// LoadStoreConfig loads counter store configuration from environment variables.
//
// Environment variables:
//   - RATELIMIT_MAX_KEYS: Maximum keys in memory (default: 10000)
//   - RATELIMIT_CLEANUP_INTERVAL: Cleanup interval (default: 5m)
//   - RATELIMIT_CLEANUP_MAX_AGE: Age past window end before removal (default: 1h)
//
// Returns:
//   - StoreConfig: Store configuration with defaults applied
//   - error: Always nil (validation failures result in warnings and defaults)
func LoadStoreConfig() (StoreConfig, error) {
	config := StoreConfig{}

	maxKeys := GetEnvInt("RATELIMIT_MAX_KEYS", 10000)
	if maxKeys <= 0 {
		slog.Warn("invalid RATELIMIT_MAX_KEYS, using default",
			slog.Int("value", maxKeys),
			slog.Int("default", 10000))
		maxKeys = 10000
	}
	config.MaxKeys = maxKeys

	cleanupInterval := GetEnvDuration("RATELIMIT_CLEANUP_INTERVAL", 5*time.Minute)
	if err := ValidatePositiveDuration(cleanupInterval); err != nil {
		slog.Warn("invalid RATELIMIT_CLEANUP_INTERVAL, using default",
			slog.String("value", cleanupInterval.String()),
			slog.String("default", "5m"),
			slog.String("error", err.Error()))
		cleanupInterval = 5 * time.Minute
	}
	config.CleanupInterval = cleanupInterval

	cleanupMaxAge := GetEnvDuration("RATELIMIT_CLEANUP_MAX_AGE", 1*time.Hour)
	if err := ValidatePositiveDuration(cleanupMaxAge); err != nil {
		slog.Warn("invalid RATELIMIT_CLEANUP_MAX_AGE, using default",
			slog.String("value", cleanupMaxAge.String()),
			slog.String("default", "1h"),
			slog.String("error", err.Error()))
		cleanupMaxAge = 1 * time.Hour
	}
	config.CleanupMaxAge = cleanupMaxAge

	return config, nil
}
