package ratelimit

import (
	"sync"
	"time"
)

// MockClock is a Clock implementation with a controllable current time.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock frozen at the given time.
func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

// Now returns the mock's current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the mock's current time forward.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
