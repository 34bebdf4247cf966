// Package entitlement resolves what a caller is allowed to do: whether
// they hold an active subscription and which capabilities their role
// grants.
//
// Subscription lookups go to an external billing provider, so the
// service guards them with a circuit breaker and an outbound rate
// limiter, and caches verdicts for a short TTL. Lookup errors
// propagate to the caller, which is expected to deny.
package entitlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"claim-navigator/internal/domain/entity"
	"claim-navigator/internal/resilience/circuitbreaker"
	"claim-navigator/internal/resilience/retry"
)

// BillingProvider reports subscription state for a user. Implementations
// call out to the billing system of record.
type BillingProvider interface {
	// HasActiveSubscription reports whether the user holds an active
	// or trialing subscription right now.
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)

	// Name returns the provider name for logging.
	Name() string
}

// Clock abstracts time for cache TTL tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config holds entitlement service settings.
type Config struct {
	// CacheTTL is how long a subscription verdict stays fresh.
	CacheTTL time.Duration

	// OutboundRPS caps billing provider calls per second.
	OutboundRPS float64

	// OutboundBurst is the burst allowance on top of OutboundRPS.
	OutboundBurst int
}

// DefaultConfig returns default entitlement settings.
func DefaultConfig() Config {
	return Config{
		CacheTTL:      30 * time.Second,
		OutboundRPS:   50,
		OutboundBurst: 25,
	}
}

type cachedVerdict struct {
	active    bool
	fetchedAt time.Time
}

// Service answers subscription and capability questions.
type Service struct {
	provider BillingProvider
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
	limiter  *rate.Limiter
	clock    Clock
	ttl      time.Duration

	mu    sync.Mutex
	cache map[string]cachedVerdict
}

// NewService creates a Service over the given billing provider. A nil
// clock falls back to the system clock.
func NewService(provider BillingProvider, cfg Config, clock Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{
		provider: provider,
		breaker:  circuitbreaker.New(circuitbreaker.BillingAPIConfig()),
		retryCfg: retry.BillingAPIConfig(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.OutboundRPS), cfg.OutboundBurst),
		clock:    clock,
		ttl:      cfg.CacheTTL,
		cache:    make(map[string]cachedVerdict),
	}
}

// HasActiveSubscription reports whether the user holds an active
// subscription. Fresh cached verdicts are served without touching the
// provider. On provider failure a stale cached verdict is served if
// one exists; otherwise the error propagates and the caller denies.
func (s *Service) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	cached, hasCached := s.cache[userID]
	s.mu.Unlock()

	if hasCached && now.Sub(cached.fetchedAt) < s.ttl {
		return cached.active, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		if hasCached {
			return cached.active, nil
		}
		return false, fmt.Errorf("billing rate limit wait: %w", err)
	}

	// Transient provider failures are retried; an open breaker is not
	// retryable and aborts the backoff loop immediately.
	var result interface{}
	err := retry.WithBackoff(ctx, s.retryCfg, func() error {
		var execErr error
		result, execErr = s.breaker.Execute(func() (interface{}, error) {
			return s.provider.HasActiveSubscription(ctx, userID)
		})
		return execErr
	})
	if err != nil {
		if hasCached {
			return cached.active, nil
		}
		return false, fmt.Errorf("billing provider %s: %w", s.provider.Name(), err)
	}

	active := result.(bool)
	s.mu.Lock()
	s.cache[userID] = cachedVerdict{active: active, fetchedAt: now}
	s.mu.Unlock()

	return active, nil
}

// Invalidate drops the cached verdict for a user. Called when billing
// webhooks report a subscription change.
func (s *Service) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

// Capabilities, by role. Authorization is a role lookup, never a
// comparison against a configured account identifier.
const (
	CapManageClaims  = "manage_claims"
	CapViewAllClaims = "view_all_claims"
	CapAdminPanel    = "admin_panel"
)

var roleCapabilities = map[string]map[string]bool{
	entity.RoleUser: {},
	entity.RoleAgent: {
		CapManageClaims:  true,
		CapViewAllClaims: true,
	},
	entity.RoleAdmin: {
		CapManageClaims:  true,
		CapViewAllClaims: true,
		CapAdminPanel:    true,
	},
}

// HasCapability reports whether a role grants a capability.
func HasCapability(role, capability string) bool {
	return roleCapabilities[role][capability]
}
