package audit

import "sync"

// DefaultTrailCap bounds the in-memory session trail. The client-side
// original prepended to an unbounded array; a long-lived process cannot, so
// the trail is a ring buffer and anything older is served from the store.
const DefaultTrailCap = 512

// Trail is the bounded, most-recent-first view of the current session's
// audit entries. It is a read model only: appends also go to the durable
// store via the Publisher, and nothing ever removes an entry from history —
// old entries merely fall out of this window.
type Trail struct {
	mu      sync.RWMutex
	entries []Entry // ring buffer, oldest at head
	head    int
	size    int
}

// NewTrail creates a trail with the given capacity (DefaultTrailCap if <= 0).
func NewTrail(capacity int) *Trail {
	if capacity <= 0 {
		capacity = DefaultTrailCap
	}
	return &Trail{entries: make([]Entry, capacity)}
}

// Append records an entry, evicting the oldest when full.
func (t *Trail) Append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := (t.head + t.size) % len(t.entries)
	t.entries[idx] = e
	if t.size < len(t.entries) {
		t.size++
	} else {
		t.head = (t.head + 1) % len(t.entries)
	}
}

// Snapshot returns the trail newest-first. The slice is a copy; callers can
// never corrupt the trail through it.
func (t *Trail) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, t.size)
	for i := 0; i < t.size; i++ {
		// newest-first: walk back from the last written slot
		idx := (t.head + t.size - 1 - i) % len(t.entries)
		out[i] = t.entries[idx]
	}
	return out
}

// Len returns the number of entries currently held.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}
