// Package review implements the annual-review temporal policy: decide
// whether a designation is due for re-confirmation and, when it is, run the
// queue → audit → stamp sequence exactly once per window.
package review

import (
	"context"
	"log/slog"
	"time"

	"heritage/internal/audit"
	"heritage/internal/notify"
	"heritage/internal/protocol/models"
	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
	"heritage/pkg/requestcontext"
)

// DueAfter is how long after the reference date a review becomes due. The
// 340-day trigger against a 365-day anniversary leaves a fixed 25-day lead
// for the owner to act before the annual mark is missed.
const DueAfter = 340 * 24 * time.Hour

// IsDue reports whether a review is due at now, given the reference date
// (last notice, or record creation when no notice has gone out).
func IsDue(ref, now time.Time) bool {
	return now.Sub(ref) >= DueAfter
}

// Auditor is the slice of the audit publisher the service needs.
type Auditor interface {
	Emit(ctx context.Context, userID id.UserID, entry audit.Entry) error
}

// Service runs the review check against a loaded record.
type Service struct {
	queue   notify.Queue
	records store.RecordStore
	auditor Auditor
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs the review service.
func NewService(queue notify.Queue, records store.RecordStore, auditor Auditor, opts ...Option) *Service {
	s := &Service{queue: queue, records: records, auditor: auditor, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndTrigger runs the review policy against the record. Inside the
// window it is a strict no-op: no notification, no audit entry, no mutation.
// When due, it queues a notice (best-effort, a queue failure never blocks
// the caller), audits it, and stamps lastAnnualNoticeAt — the stamp is what
// prevents re-firing. If the stamp fails to persist, the returned data is
// unstamped and the next check fires again: at-least-once, not exactly-once.
func (s *Service) CheckAndTrigger(ctx context.Context, email string, record models.SuccessionRecord) (models.ProtocolData, error) {
	now := requestcontext.Now(ctx)
	if !IsDue(record.ReviewReference(), now) {
		return record.Data, nil
	}

	notification := notify.Notification{
		ID:        id.NewNotificationID(),
		UserID:    record.UserID,
		RecordID:  record.ID,
		Type:      notify.TypeAnnualReviewDue,
		Recipient: email,
		Payload: notify.Payload{
			SuccessorName: record.Data.SuccessorName(),
			PrincipalName: record.Data.PrincipalName(),
			ProtocolSeed:  record.Data.ProtocolSeed,
		},
		Status:   notify.StatusQueued,
		QueuedAt: now,
	}
	if err := s.queue.Enqueue(ctx, notification); err != nil {
		s.logger.WarnContext(ctx, "failed to queue annual review notice",
			"record_id", record.ID.String(), "error", err)
	}

	if err := s.auditor.Emit(ctx, record.UserID, audit.Entry{
		Action:  audit.ActionAnnualReviewNotice,
		Details: "annual review notice queued for " + record.Data.SuccessorName(),
		Time:    now,
		Actor:   audit.ActorSystem,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to audit annual review notice", "error", err)
	}

	data := record.Data
	if err := s.records.StampAnnualNotice(ctx, record.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to stamp annual notice; review will re-fire",
			"record_id", record.ID.String(), "error", err)
		return data, nil
	}
	stamp := now
	data.LastAnnualNoticeAt = &stamp
	return data, nil
}
