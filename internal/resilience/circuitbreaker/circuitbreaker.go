// Package circuitbreaker wraps github.com/sony/gobreaker with the
// configurations used around the billing provider, the letter
// generation models, and the Postgres store.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config tunes one breaker.
type Config struct {
	Name string

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the breaker,
	// e.g. 0.6 for 60%.
	FailureThreshold float64

	// MinRequests must be seen before the ratio is evaluated.
	MinRequests uint32
}

// DefaultConfig is the general purpose tuning.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BillingAPIConfig tunes the billing provider breaker. A tripped
// billing circuit makes subscription checks fail fast, which the guard
// turns into a denial rather than letting requests pile up.
func BillingAPIConfig() Config {
	return Config{
		Name:             "billing-api",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// GeneratorAPIConfig tunes the letter generation breaker. Generation
// calls are long-running and billed per attempt, so this circuit is
// slower to trip and slower to probe.
func GeneratorAPIConfig() Config {
	return Config{
		Name:             "generator-api",
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          120 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      5,
	}
}

// CircuitBreaker is a thin wrapper holding the configured gobreaker
// instance.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New builds a breaker from cfg. State transitions are logged.
func New(cfg Config) *CircuitBreaker {
	readyToTrip := func(counts gobreaker.Counts) bool {
		if counts.Requests < cfg.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
	}

	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: readyToTrip,
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Execute runs fn through the breaker. While open it returns
// gobreaker.ErrOpenState without calling fn.
func (cb *CircuitBreaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether the breaker is open.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
