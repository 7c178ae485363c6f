// Package console orchestrates one owner's vault session: open the vault,
// load the latest record, run the review check, and route wizard output to
// the persistence boundary.
package console

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"heritage/internal/protocol/models"
	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
	"heritage/pkg/platform/sentinel"
)

// DefaultLoadTimeout bounds the initial record fetch. A slow store degrades
// to an empty vault rather than a hung session.
const DefaultLoadTimeout = 5 * time.Second

// Loader fetches the latest record with a safety timeout. Concurrent loads
// for the same owner are deduplicated: the second caller waits on the first
// fetch instead of issuing its own.
type Loader struct {
	records store.RecordStore
	logger  *slog.Logger
	timeout time.Duration
	group   singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoadTimeout overrides the safety timeout.
func WithLoadTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = timeout }
}

// WithLoaderLogger sets the structured logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader constructs a loader over the record store.
func NewLoader(records store.RecordStore, opts ...LoaderOption) *Loader {
	l := &Loader{
		records: records,
		logger:  slog.Default(),
		timeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the owner's active record and true, or the zero record and
// false when none exists or the store cannot answer in time. It never
// returns an error: a store outage reads as "no record yet", and the caller
// renders the empty vault.
func (l *Loader) Load(ctx context.Context, userID id.UserID) (models.SuccessionRecord, bool) {
	result, err, _ := l.group.Do(userID.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		type outcome struct {
			record models.SuccessionRecord
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			record, err := l.records.ActiveByUser(fetchCtx, userID)
			done <- outcome{record, err}
		}()

		select {
		case out := <-done:
			return out.record, out.err
		case <-fetchCtx.Done():
			return models.SuccessionRecord{}, fetchCtx.Err()
		}
	})
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			l.logger.WarnContext(ctx, "record load degraded to empty vault",
				"user_id", userID.String(), "error", err)
		}
		return models.SuccessionRecord{}, false
	}
	return result.(models.SuccessionRecord), true
}
