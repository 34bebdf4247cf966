// Package logging configures the slog loggers used by the API and the
// maintenance worker. Production output is single-line JSON so the log
// pipeline can index fields without parsing; the text variant exists
// for local runs.
package logging

import (
	"context"
	"log/slog"
	"os"

	"claim-navigator/internal/handler/http/requestid"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewLogger builds the production JSON logger. LOG_LEVEL=debug lowers
// the level and, below Warn, source locations are attached to every
// record to make staging traces navigable.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	})
	return slog.New(handler)
}

// NewTextLogger builds a human-readable logger for local development.
func NewTextLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler)
}

// WithRequestID returns the logger with the request ID from ctx bound
// as a field. No-op when the context carries no ID.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}

// WithFields binds a set of fields to the logger.
func WithFields(logger *slog.Logger, fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return logger.With(args...)
}

// WithLogger stores a logger in the context so deeper layers can log
// with the request's bound fields.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the logger stored by WithLogger, or the process
// default when none is present.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
