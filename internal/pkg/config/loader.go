// Package config implements fail-open environment configuration for
// long-running components. A missing variable silently takes its
// default; a set-but-invalid variable takes the default and produces a
// warning the caller is expected to log. Startup never aborts on a
// configuration typo: the maintenance worker keeps running on safe
// defaults while operators fix the deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult carries one loaded value together with any fallback
// warnings. FallbackApplied is true only when the variable was set and
// rejected; an unset variable is not a fallback.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallback(envKey, raw string, cause error, def interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, cause, def)},
		FallbackApplied: true,
	}
}

// LoadEnvString reads a plain string variable with no validation.
// Returns defaultValue when the variable is unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback reads a string variable and runs it through
// validator (nil skips validation). Invalid values fall back to
// defaultValue with a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(raw); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: raw}
}

// LoadEnvDuration reads a Go duration string ("30s", "1h30m") and
// validates the parsed value. Parse and validation failures both fall
// back to defaultValue with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(d); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: d}
}

// LoadEnvInt reads a base-10 integer and validates the parsed value.
// Parse and validation failures both fall back to defaultValue with a
// warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(envKey, raw, fmt.Errorf("invalid integer format"), defaultValue)
	}
	if validator != nil {
		if err := validator(n); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: n}
}
