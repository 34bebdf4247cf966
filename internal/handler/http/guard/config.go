package guard

import "time"

// RateLimitSpec configures the rate check stage of a guarded route.
type RateLimitSpec struct {
	// Window is the per-key counting window.
	Window time.Duration
	// MaxRequests is the cap within one window.
	MaxRequests int
}

// Config controls which stages run for a guarded route. The zero value
// runs no checks at all and only normalizes the handler's response.
type Config struct {
	// RequireAuth denies unauthenticated requests with 401.
	RequireAuth bool

	// RequireSubscription denies callers without an active
	// subscription with 402. Implies RequireAuth.
	RequireSubscription bool

	// Feature names the metered feature. When set, the quota tracker
	// runs and denials carry the caller's usage count. Implies
	// RequireAuth.
	Feature string

	// FreeLimit is the monthly free-tier cap for Feature.
	FreeLimit int

	// RateLimit, when non-nil, runs the rate limiter before anything
	// else.
	RateLimit *RateLimitSpec
}

// needsIdentity reports whether any configured stage requires a
// resolved caller.
func (c Config) needsIdentity() bool {
	return c.RequireAuth || c.RequireSubscription || c.Feature != ""
}

// Option prefills one aspect of a guard Config. Convenience wrappers
// are compositions of the same orchestrator, never separate logic
// paths.
type Option func(*Config)

// WithAuth requires a resolvable identity.
func WithAuth() Option {
	return func(c *Config) {
		c.RequireAuth = true
	}
}

// WithSubscription requires an active subscription.
func WithSubscription() Option {
	return func(c *Config) {
		c.RequireAuth = true
		c.RequireSubscription = true
	}
}

// WithFeatureAccess meters the named feature against a monthly
// free-tier cap. Subscribers bypass the cap.
func WithFeatureAccess(feature string, freeLimit int) Option {
	return func(c *Config) {
		c.RequireAuth = true
		c.Feature = feature
		c.FreeLimit = freeLimit
	}
}

// WithRateLimit bounds request frequency with the given per-key window
// and cap.
func WithRateLimit(window time.Duration, maxRequests int) Option {
	return func(c *Config) {
		c.RateLimit = &RateLimitSpec{Window: window, MaxRequests: maxRequests}
	}
}

// NewConfig builds a Config from options.
func NewConfig(opts ...Option) Config {
	var c Config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
