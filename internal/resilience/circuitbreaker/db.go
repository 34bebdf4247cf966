package circuitbreaker

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// DBCircuitBreaker guards database calls. When Postgres is down every
// guarded call fails fast with ErrOpenState instead of stacking
// timeouts under load.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// DBConfig trips only on consecutive failures: FailureThreshold 1.0
// with MinRequests 5 means five straight errors, so sporadic query
// errors under normal operation never open the circuit.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// NewDBCircuitBreaker wraps db with the standard DBConfig tuning.
func NewDBCircuitBreaker(db *sql.DB) *DBCircuitBreaker {
	return NewDBCircuitBreakerWithConfig(db, DBConfig())
}

// NewDBCircuitBreakerWithConfig wraps db with a custom tuning.
func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(cfg), db: db}
}

// QueryContext runs a guarded multi-row query.
func (dcb *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sql.Rows), nil
}

// ExecContext runs a guarded statement.
func (dcb *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(sql.Result), nil
}

// QueryRowContext is unguarded: sql.Row defers its error to Scan, so
// the breaker cannot observe it here. Prefer QueryRowScanContext.
func (dcb *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return dcb.db.QueryRowContext(ctx, query, args...)
}

// QueryRowScanContext runs a single-row query and scans it inside the
// guarded call, so sql.Row errors count toward the breaker. A missing
// row is a successful round trip: sql.ErrNoRows is returned to the
// caller but never recorded as a failure.
func (dcb *DBCircuitBreaker) QueryRowScanContext(ctx context.Context, query string, args []interface{}, dest ...interface{}) error {
	var scanErr error
	_, err := dcb.cb.Execute(func() (interface{}, error) {
		scanErr = dcb.db.QueryRowContext(ctx, query, args...).Scan(dest...)
		if errors.Is(scanErr, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, scanErr
	})
	if err != nil {
		return err
	}
	return scanErr
}

// State returns the current breaker state.
func (dcb *DBCircuitBreaker) State() gobreaker.State {
	return dcb.cb.State()
}

// IsOpen reports whether the breaker is open.
func (dcb *DBCircuitBreaker) IsOpen() bool {
	return dcb.cb.IsOpen()
}

// DB exposes the raw connection for calls that must bypass the
// breaker, such as health checks that report their own status.
func (dcb *DBCircuitBreaker) DB() *sql.DB {
	return dcb.db
}
