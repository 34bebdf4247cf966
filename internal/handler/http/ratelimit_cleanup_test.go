package http

import (
	"context"
	"testing"
	"time"

	"claim-navigator/pkg/ratelimit"
)

func TestStartRateLimitCleanup_RemovesStaleWindows(t *testing.T) {
	store := ratelimit.NewInMemoryCounterStore(ratelimit.InMemoryStoreConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stale := time.Now().Add(-10 * time.Minute)
	if _, err := store.Increment(ctx, "key:stale", stale, time.Minute); err != nil {
		t.Fatalf("Increment() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		StartRateLimitCleanup(ctx, store, 10*time.Millisecond, 5*time.Minute)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		count, err := store.KeyCount(ctx)
		if err != nil {
			t.Fatalf("KeyCount() error = %v", err)
		}
		if count == 0 {
			cancel()
			<-done
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("stale window was not cleaned up within 2s")
}

func TestStartRateLimitCleanup_StopsOnCancel(t *testing.T) {
	store := ratelimit.NewInMemoryCounterStore(ratelimit.InMemoryStoreConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		StartRateLimitCleanup(ctx, store, time.Hour, time.Hour)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop did not stop after context cancellation")
	}
}
