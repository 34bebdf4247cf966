package worker

import (
	"fmt"
	"log/slog"
	"time"

	"claim-navigator/internal/pkg/config"
)

// WorkerConfig controls the maintenance worker: when it runs, how much
// usage history it keeps, and how long a run may take. Every field has
// a default and a validation rule, so the worker starts even when the
// environment is misconfigured.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression,
	// "minute hour day month weekday".
	CronSchedule string

	// Timezone is the IANA zone for the schedule. Quota months roll
	// over at UTC midnight, so the default keeps the retention job
	// aligned with the month boundary.
	Timezone string

	// UsageRetentionMonths is how many months of feature usage
	// history the retention job keeps. Valid range 1 to 120.
	UsageRetentionMonths int

	// JobTimeout cancels a maintenance run that exceeds it.
	JobTimeout time.Duration

	// HealthPort serves the worker's probes. Privileged ports are
	// rejected.
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with production defaults:
// daily maintenance at 03:15 UTC, twelve months of usage history,
// a 10-minute run timeout, and the standard exporter health port.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:         "15 3 * * *",
		Timezone:             "UTC",
		UsageRetentionMonths: 12,
		JobTimeout:           10 * time.Minute,
		HealthPort:           9091,
	}
}

// Validate checks every field and reports all problems at once.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateIntRange(c.UsageRetentionMonths, 1, 120); err != nil {
		errors = append(errors, fmt.Errorf("usage retention months: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.JobTimeout); err != nil {
		errors = append(errors, fmt.Errorf("job timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// envLoader tracks fallbacks across the individual field loads so
// LoadConfigFromEnv stays readable.
type envLoader struct {
	logger   *slog.Logger
	metrics  *WorkerMetrics
	fellBack bool
}

// note records a fallback for one field: a warning per problem plus
// the validation and fallback counters.
func (l *envLoader) note(field, metricName string, result config.ConfigLoadResult) {
	if !result.FallbackApplied {
		return
	}
	l.fellBack = true
	l.metrics.RecordValidationError(metricName)
	l.metrics.RecordFallback(metricName, "default")
	for _, warning := range result.Warnings {
		l.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}
}

// LoadConfigFromEnv reads the worker settings from the environment,
// falling back per field to DefaultConfig when a value is missing or
// invalid. It never returns an error: a bad deployment manifest
// degrades to defaults instead of keeping the worker down.
//
// Variables: CRON_SCHEDULE, WORKER_TIMEZONE, USAGE_RETENTION_MONTHS,
// MAINTENANCE_TIMEOUT (1m to 2h), WORKER_HEALTH_PORT (1024 to 65535).
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	loader := &envLoader{logger: logger, metrics: metrics}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	loader.note("CronSchedule", "cron_schedule", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	loader.note("Timezone", "timezone", result)

	result = config.LoadEnvInt("USAGE_RETENTION_MONTHS", cfg.UsageRetentionMonths, func(v int) error {
		return config.ValidateIntRange(v, 1, 120)
	})
	cfg.UsageRetentionMonths = result.Value.(int)
	loader.note("UsageRetentionMonths", "usage_retention_months", result)

	result = config.LoadEnvDuration("MAINTENANCE_TIMEOUT", cfg.JobTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 2*time.Hour)
	})
	cfg.JobTimeout = result.Value.(time.Duration)
	loader.note("JobTimeout", "job_timeout", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	loader.note("HealthPort", "health_port", result)

	metrics.SetFallbackActive("", loader.fellBack)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
