package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/resumex/internal/cache"
)

const (
	defaultRateWindow = time.Minute
	rateSweepInterval = time.Minute
)

// RateStore counts hits for a key within a fixed window.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// MemoryRateStore keeps fixed-window counters in process memory. Expired
// windows are swept on write, at most once per sweep interval.
type MemoryRateStore struct {
	mu        sync.Mutex
	windows   map[string]rateWindow
	now       func() time.Time
	nextSweep time.Time
}

type rateWindow struct {
	hits    int
	resetAt time.Time
}

// NewMemoryRateStore constructs an empty in-process store.
func NewMemoryRateStore() *MemoryRateStore {
	return newMemoryRateStore(time.Now)
}

func newMemoryRateStore(now func() time.Time) *MemoryRateStore {
	return &MemoryRateStore{
		windows: make(map[string]rateWindow),
		now:     now,
	}
}

// Increment records a hit for key and returns the running count and the time left in the window.
func (s *MemoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = defaultRateWindow
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !now.Before(s.nextSweep) {
		s.sweep(now)
	}

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = rateWindow{resetAt: now.Add(window)}
	}
	w.hits++
	s.windows[key] = w

	return w.hits, w.resetAt.Sub(now), nil
}

// Len reports how many windows are tracked.
func (s *MemoryRateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *MemoryRateStore) sweep(now time.Time) {
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
	s.nextSweep = now.Add(rateSweepInterval)
}

// CacheRateStore shares counters across instances through a cache.Counter such as Redis.
type CacheRateStore struct {
	counter cache.Counter
}

// NewCacheRateStore wraps counter, which must not be nil.
func NewCacheRateStore(counter cache.Counter) *CacheRateStore {
	return &CacheRateStore{counter: counter}
}

// Increment delegates to the shared counter.
func (s *CacheRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = defaultRateWindow
	}
	count, ttl, err := s.counter.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
