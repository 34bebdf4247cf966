package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// InMemoryCounterStore is a thread-safe in-memory implementation of
// CounterStore.
//
// Counters live in a map keyed by identity. The store bounds memory
// with a maximum key limit and LRU eviction, and supports periodic
// cleanup of expired windows and blocks.
//
// This store is only correct within a single process. Deployments with
// multiple server instances must use a shared store (see the Postgres
// implementation) or accept per-instance limits.
type InMemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	lru     *list.List // front = most recently used
	maxKeys int
	clock   Clock
}

// counterEntry holds the window and block state for one key.
type counterEntry struct {
	window  Window
	elem    *list.Element // position in the LRU list; value is the key
	touched time.Time
}

// InMemoryStoreConfig holds configuration for InMemoryCounterStore.
type InMemoryStoreConfig struct {
	// MaxKeys is the maximum number of keys held in memory. When the
	// limit is reached the least recently used keys are evicted.
	// Default: 10000.
	MaxKeys int

	// Clock provides time operations for testing. Default: SystemClock.
	Clock Clock
}

// NewInMemoryCounterStore creates an in-memory counter store.
func NewInMemoryCounterStore(config InMemoryStoreConfig) *InMemoryCounterStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	return &InMemoryCounterStore{
		entries: make(map[string]*counterEntry),
		lru:     list.New(),
		maxKeys: config.MaxKeys,
		clock:   config.Clock,
	}
}

// Increment records one request against the fixed window containing
// now. An expired window is replaced, not reused: the count restarts
// at 1 with a fresh bucket boundary. The increment and the
// expiry check happen under one lock acquisition, so within this
// process the check-and-count is atomic.
func (s *InMemoryCounterStore) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (*Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := WindowStartFor(now, window)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touch(key, now)
	if e.window.WindowStart.Equal(start) {
		e.window.Count++
	} else {
		// New bucket supersedes the old one. The block stamp survives
		// window turnover.
		e.window.WindowStart = start
		e.window.Count = 1
	}
	w := e.window
	return &w, nil
}

// Block stamps an escalation block on the key. The later expiry wins.
func (s *InMemoryCounterStore) Block(ctx context.Context, key string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.touch(key, s.clock.Now())
	if until.After(e.window.BlockedUntil) {
		e.window.BlockedUntil = until
	}
	return nil
}

// BlockedUntil returns the block expiry for the key, or the zero time
// when the key is unknown or not blocked.
func (s *InMemoryCounterStore) BlockedUntil(ctx context.Context, key string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, nil
	}
	return e.window.BlockedUntil, nil
}

// Cleanup removes entries whose window started before the cutoff and
// whose block has expired. Entries still carrying an active block are
// kept regardless of window age.
func (s *InMemoryCounterStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if e.window.Blocked(now) {
			continue
		}
		if e.window.WindowStart.Before(cutoff) {
			s.lru.Remove(e.elem)
			delete(s.entries, key)
		}
	}
	return nil
}

// KeyCount returns the number of keys currently tracked.
func (s *InMemoryCounterStore) KeyCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// touch returns the entry for key, creating it if needed, moving it to
// the front of the LRU list, and evicting the coldest keys when the
// store is full. Callers must hold the lock.
func (s *InMemoryCounterStore) touch(key string, now time.Time) *counterEntry {
	if e, ok := s.entries[key]; ok {
		e.touched = now
		s.lru.MoveToFront(e.elem)
		return e
	}

	if len(s.entries) >= s.maxKeys {
		s.evictLRU()
	}

	e := &counterEntry{
		window:  Window{Key: key},
		touched: now,
	}
	e.elem = s.lru.PushFront(key)
	s.entries[key] = e
	return e
}

// evictLRU drops 10% of capacity from the cold end of the LRU list so
// eviction does not run on every insert. Callers must hold the lock.
func (s *InMemoryCounterStore) evictLRU() {
	evict := s.maxKeys / 10
	if evict < 1 {
		evict = 1
	}
	for i := 0; i < evict; i++ {
		back := s.lru.Back()
		if back == nil {
			return
		}
		key := back.Value.(string)
		s.lru.Remove(back)
		delete(s.entries, key)
	}
}
