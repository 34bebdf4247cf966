package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"
)

// fastConfig keeps test runs quick.
func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestWithBackoff_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithBackoff_RecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	upstream := &HTTPError{StatusCode: 500, Message: "Server Error"}
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return upstream
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if err == nil || !strings.Contains(err.Error(), "max retry attempts (3) exceeded") {
		t.Errorf("error = %v", err)
	}
	if !errors.Is(err, upstream) {
		t.Error("final error should wrap the last attempt's error")
	}
}

func TestWithBackoff_NonRetryableAbortsImmediately(t *testing.T) {
	calls := 0
	upstream := &HTTPError{StatusCode: 400, Message: "Bad Request"}
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return upstream
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, upstream) {
		t.Errorf("error = %v, want the upstream error unwrapped", err)
	}
}

func TestWithBackoff_ContextCancelBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	cfg := fastConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	var _ net.Error = timeoutErr{}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "network timeout", err: timeoutErr{}, want: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "wrapped syscall error", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: true},
		{name: "http 500", err: &HTTPError{StatusCode: 500, Message: "Internal Server Error"}, want: true},
		{name: "http 503", err: &HTTPError{StatusCode: 503, Message: "Service Unavailable"}, want: true},
		{name: "http 429", err: &HTTPError{StatusCode: 429, Message: "Too Many Requests"}, want: true},
		{name: "http 408", err: &HTTPError{StatusCode: 408, Message: "Request Timeout"}, want: true},
		{name: "http 400", err: &HTTPError{StatusCode: 400, Message: "Bad Request"}, want: false},
		{name: "http 404", err: &HTTPError{StatusCode: 404, Message: "Not Found"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNextDelay_CapsAtMax(t *testing.T) {
	cfg := Config{MaxDelay: 100 * time.Millisecond, Multiplier: 10, JitterFraction: 0}
	if got := nextDelay(50*time.Millisecond, cfg); got != 100*time.Millisecond {
		t.Errorf("nextDelay = %v, want capped at 100ms", got)
	}
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond

	if got := addJitter(base, 0); got != base {
		t.Errorf("zero jitter changed the delay: %v", got)
	}
	for i := 0; i < 20; i++ {
		got := addJitter(base, 0.5)
		if got < base || got > base+base/2 {
			t.Fatalf("jittered delay %v outside [100ms, 150ms]", got)
		}
	}
	// Fractions above 1 are clamped.
	if got := addJitter(base, 5); got > 2*base {
		t.Errorf("clamped jitter produced %v", got)
	}
}

func TestPresetConfigs(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), BillingAPIConfig(), GeneratorAPIConfig(), DBConfig()} {
		if cfg.MaxAttempts < 1 {
			t.Errorf("MaxAttempts = %d", cfg.MaxAttempts)
		}
		if cfg.InitialDelay <= 0 || cfg.MaxDelay < cfg.InitialDelay {
			t.Errorf("delay bounds %v..%v", cfg.InitialDelay, cfg.MaxDelay)
		}
		if cfg.Multiplier < 1 {
			t.Errorf("Multiplier = %f", cfg.Multiplier)
		}
	}
	if BillingAPIConfig().MaxDelay >= GeneratorAPIConfig().MaxDelay {
		t.Error("billing retries should be shorter than generator retries")
	}
}
