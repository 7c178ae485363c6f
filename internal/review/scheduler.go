package review

import (
	"context"
	"log/slog"
	"time"

	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
)

// RecipientResolver maps a user to the email address their notices go to.
type RecipientResolver interface {
	Email(ctx context.Context, userID id.UserID) (string, error)
}

// Scheduler sweeps every active record once per interval so reviews fire
// even for owners who never open their vault. The per-record check is the
// same idempotent CheckAndTrigger the console runs, so the two paths can
// never double-fire within a window.
type Scheduler struct {
	service    *Service
	records    store.RecordStore
	recipients RecipientResolver
	logger     *slog.Logger
	interval   time.Duration
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the structured logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// WithSweepInterval overrides the default daily sweep.
func WithSweepInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = interval }
}

// NewScheduler constructs the sweep loop.
func NewScheduler(service *Service, records store.RecordStore, recipients RecipientResolver, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		service:    service,
		records:    records,
		recipients: recipients,
		logger:     slog.Default(),
		interval:   24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs the review check across every active record. Per-record
// failures are logged and skipped; one bad record never stalls the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	records, err := s.records.AllActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "review sweep failed to list active records", "error", err)
		return
	}

	for _, record := range records {
		email, err := s.recipients.Email(ctx, record.UserID)
		if err != nil {
			s.logger.WarnContext(ctx, "review sweep could not resolve recipient",
				"user_id", record.UserID.String(), "error", err)
			continue
		}
		if _, err := s.service.CheckAndTrigger(ctx, email, record); err != nil {
			s.logger.WarnContext(ctx, "review check failed",
				"record_id", record.ID.String(), "error", err)
		}
	}
}
