package verify

import (
	"context"
	"sync"
	"time"
)

// InMemoryThrottle is a sliding-window failure counter keyed by client.
type InMemoryThrottle struct {
	mu          sync.Mutex
	failures    map[string][]time.Time
	maxFailures int
	window      time.Duration
	now         func() time.Time
}

func NewInMemoryThrottle(maxFailures int, window time.Duration) *InMemoryThrottle {
	return &InMemoryThrottle{
		failures:    make(map[string][]time.Time),
		maxFailures: maxFailures,
		window:      window,
		now:         time.Now,
	}
}

func (t *InMemoryThrottle) Allow(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pruneLocked(key)) < t.maxFailures, nil
}

func (t *InMemoryThrottle) RecordFailure(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[key] = append(t.pruneLocked(key), t.now())
	return nil
}

func (t *InMemoryThrottle) Reset(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.failures, key)
	return nil
}

// pruneLocked drops failures that slid out of the window.
func (t *InMemoryThrottle) pruneLocked(key string) []time.Time {
	cutoff := t.now().Add(-t.window)
	kept := t.failures[key][:0]
	for _, at := range t.failures[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(t.failures, key)
		return nil
	}
	t.failures[key] = kept
	return kept
}
