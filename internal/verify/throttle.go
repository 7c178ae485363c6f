package verify

import (
	"context"
	"time"
)

// Throttle bounds failed verification attempts per client. The seed is the
// only secret gating third-party access, so the public endpoint cannot be
// left open to unbounded guessing.
type Throttle interface {
	// Allow reports whether the client may attempt a verification now.
	Allow(ctx context.Context, key string) (bool, error)

	// RecordFailure counts one failed attempt against the client.
	RecordFailure(ctx context.Context, key string) error

	// Reset clears the client's failure window after a success.
	Reset(ctx context.Context, key string) error
}

// Throttle defaults: a handful of typos is fine, a guessing loop is not.
const (
	DefaultMaxFailures = 5
	DefaultWindow      = 15 * time.Minute
)
