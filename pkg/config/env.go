// Package config reads guard settings from the environment. Lookups
// never fail: a missing or malformed variable falls back to its
// default, with a warning logged for malformed values so typos in a
// deployment manifest are visible without refusing to boot.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the variable's value, or defaultValue when the
// variable is unset or empty. No validation, no logging.
func GetEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt parses the variable as a base-10 integer. Unparseable
// values are logged and replaced by defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", defaultValue),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return value
}

// GetEnvBool parses the variable with strconv.ParseBool semantics
// ("1", "t", "true" and their variants). Unparseable values are
// logged and replaced by defaultValue.
func GetEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Bool("default", defaultValue))
		return defaultValue
	}
	return value
}

// GetEnvDuration parses the variable with time.ParseDuration, e.g.
// "30s" or "1h30m". Unparseable values are logged and replaced by
// defaultValue.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration value for environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.String("default", defaultValue.String()),
			slog.String("error", err.Error()))
		return defaultValue
	}
	return value
}

// GetEnvStringList splits the variable on commas, trimming whitespace
// and dropping empty entries. A variable that yields no entries falls
// back to defaultValue.
func GetEnvStringList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
