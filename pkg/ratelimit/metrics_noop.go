package ratelimit

import "time"

// NoOpMetrics is a Metrics implementation that discards everything.
// It is the default when no metrics collector is wired, and is useful
// in tests.
type NoOpMetrics struct{}

// RecordAllowed does nothing.
func (m *NoOpMetrics) RecordAllowed(scope string) {}

// RecordDenied does nothing.
func (m *NoOpMetrics) RecordDenied(scope, reason string) {}

// RecordBlock does nothing.
func (m *NoOpMetrics) RecordBlock(scope string) {}

// RecordCheckDuration does nothing.
func (m *NoOpMetrics) RecordCheckDuration(duration time.Duration) {}

// SetActiveKeys does nothing.
func (m *NoOpMetrics) SetActiveKeys(count int) {}
