package ratelimit

import (
	"fmt"
	"time"
)

// Default limits. The burst tier exists to catch retry storms that a
// one-minute window reacts to too slowly; its violation stamps a
// shorter block than the per-key and per-IP tiers.
const (
	DefaultKeyLimit  = 60
	DefaultKeyWindow = 1 * time.Minute

	DefaultIPLimit  = 100
	DefaultIPWindow = 1 * time.Minute

	DefaultBurstLimit  = 50
	DefaultBurstWindow = 10 * time.Second

	DefaultBlockDuration      = 5 * time.Minute
	DefaultBurstBlockDuration = 1 * time.Minute

	DefaultStoreTimeout = 2 * time.Second
)

// Config holds the limits, windows, and escalation policy for a
// TieredLimiter.
type Config struct {
	// Enabled controls whether the limiter is active. When false,
	// Check always allows.
	Enabled bool

	// KeyLimit and KeyWindow bound requests per identity key.
	KeyLimit  int
	KeyWindow time.Duration

	// IPLimit and IPWindow bound requests per client IP. The IP cap is
	// looser than the key cap because many identities can legitimately
	// share one IP.
	IPLimit  int
	IPWindow time.Duration

	// BurstLimit and BurstWindow bound short request bursts across a
	// tight window.
	BurstLimit  int
	BurstWindow time.Duration

	// BlockDuration is the escalation block stamped when the per-key
	// or per-IP cap is crossed. The asymmetric penalty discourages
	// retry storms.
	BlockDuration time.Duration

	// BurstBlockDuration is the shorter block stamped when the burst
	// cap is crossed.
	BurstBlockDuration time.Duration

	// StoreTimeout bounds every counter store call. On timeout the
	// limiter fails closed.
	StoreTimeout time.Duration
}

// DefaultConfig returns the default limiter configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		KeyLimit:           DefaultKeyLimit,
		KeyWindow:          DefaultKeyWindow,
		IPLimit:            DefaultIPLimit,
		IPWindow:           DefaultIPWindow,
		BurstLimit:         DefaultBurstLimit,
		BurstWindow:        DefaultBurstWindow,
		BlockDuration:      DefaultBlockDuration,
		BurstBlockDuration: DefaultBurstBlockDuration,
		StoreTimeout:       DefaultStoreTimeout,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.KeyLimit <= 0 {
		return fmt.Errorf("key limit must be positive, got %d", c.KeyLimit)
	}
	if c.KeyWindow <= 0 {
		return fmt.Errorf("key window must be positive, got %v", c.KeyWindow)
	}
	if c.IPLimit <= 0 {
		return fmt.Errorf("ip limit must be positive, got %d", c.IPLimit)
	}
	if c.IPWindow <= 0 {
		return fmt.Errorf("ip window must be positive, got %v", c.IPWindow)
	}
	if c.BurstLimit <= 0 {
		return fmt.Errorf("burst limit must be positive, got %d", c.BurstLimit)
	}
	if c.BurstWindow <= 0 {
		return fmt.Errorf("burst window must be positive, got %v", c.BurstWindow)
	}
	if c.BlockDuration <= 0 {
		return fmt.Errorf("block duration must be positive, got %v", c.BlockDuration)
	}
	if c.BurstBlockDuration <= 0 {
		return fmt.Errorf("burst block duration must be positive, got %v", c.BurstBlockDuration)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive, got %v", c.StoreTimeout)
	}
	return nil
}

// ApplyDefaults replaces invalid or zero fields with defaults.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.KeyLimit <= 0 {
		c.KeyLimit = def.KeyLimit
	}
	if c.KeyWindow <= 0 {
		c.KeyWindow = def.KeyWindow
	}
	if c.IPLimit <= 0 {
		c.IPLimit = def.IPLimit
	}
	if c.IPWindow <= 0 {
		c.IPWindow = def.IPWindow
	}
	if c.BurstLimit <= 0 {
		c.BurstLimit = def.BurstLimit
	}
	if c.BurstWindow <= 0 {
		c.BurstWindow = def.BurstWindow
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = def.BlockDuration
	}
	if c.BurstBlockDuration <= 0 {
		c.BurstBlockDuration = def.BurstBlockDuration
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = def.StoreTimeout
	}
}
