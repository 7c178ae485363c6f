package audit

import (
	"context"
	"log/slog"
)

// Worker drains audit entries from an inbox into the durable store. The
// registry emits synchronously; wiring a worker between publisher and store
// keeps slow storage off the vault's hot path without changing append order
// (single consumer, single channel). Store failures are logged and the
// entry is dropped; durable persistence is best-effort by the publisher's
// contract, never a reason to stop consuming.
type Worker struct {
	store  Store
	inbox  <-chan UserEntry
	logger *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the structured logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

// NewWorker constructs a worker over the store and inbox channel.
func NewWorker(store Store, inbox <-chan UserEntry, opts ...WorkerOption) *Worker {
	w := &Worker{store: store, inbox: inbox, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.store.Append(ctx, entry.UserID, entry.Entry); err != nil {
				w.logger.WarnContext(ctx, "failed to persist audit entry",
					"action", entry.Action,
					"error", err,
				)
			}
		}
	}
}
