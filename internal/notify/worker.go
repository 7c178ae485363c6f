package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "heritage_notification_deliveries_total",
	Help: "Notification delivery attempts by outcome.",
}, []string{"outcome"})

// EventPublisher mirrors delivered notifications onto the event stream so
// downstream consumers (CRM, compliance) see them without polling the outbox.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Worker drains the outbox: each pending notification is emailed, mirrored
// to the event stream, and marked sent. Failures increment the attempt
// counter and the row is retried on the next sweep, which is what makes the
// queue at-least-once rather than exactly-once.
type Worker struct {
	queue     Queue
	mailer    Mailer
	events    EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	maxTries  int
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

// WithInterval overrides the sweep interval.
func WithInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) { w.interval = interval }
}

// WithEventPublisher mirrors deliveries onto an event stream. Optional; the
// worker functions without one.
func WithEventPublisher(events EventPublisher) WorkerOption {
	return func(w *Worker) { w.events = events }
}

// NewWorker constructs a delivery worker over the outbox.
func NewWorker(queue Queue, mailer Mailer, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:     queue,
		mailer:    mailer,
		logger:    slog.Default(),
		interval:  30 * time.Second,
		batchSize: 50,
		maxTries:  5,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run sweeps the outbox until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep delivers one batch of pending notifications.
func (w *Worker) Sweep(ctx context.Context) {
	pending, err := w.queue.NextPending(ctx, w.batchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to load pending notifications", "error", err)
		return
	}

	for _, notification := range pending {
		w.deliver(ctx, notification)
	}
}

func (w *Worker) deliver(ctx context.Context, n Notification) {
	if err := w.mailer.Send(n); err != nil {
		terminal := n.Attempts+1 >= w.maxTries
		deliveriesTotal.WithLabelValues("failed").Inc()
		w.logger.WarnContext(ctx, "notification delivery failed",
			"notification_id", n.ID.String(),
			"attempt", n.Attempts+1,
			"terminal", terminal,
			"error", err,
		)
		if err := w.queue.MarkFailed(ctx, n.ID, terminal); err != nil {
			w.logger.ErrorContext(ctx, "failed to record delivery failure", "error", err)
		}
		return
	}

	if w.events != nil {
		if payload, err := json.Marshal(n); err == nil {
			if err := w.events.Publish(ctx, n.UserID.String(), payload); err != nil {
				w.logger.WarnContext(ctx, "failed to mirror notification event", "error", err)
			}
		}
	}

	deliveriesTotal.WithLabelValues("sent").Inc()
	if err := w.queue.MarkSent(ctx, n.ID, time.Now()); err != nil {
		// The email went out but the stamp did not stick; the next sweep
		// re-sends. At-least-once, by contract.
		w.logger.ErrorContext(ctx, "failed to mark notification sent", "error", err)
	}
}
