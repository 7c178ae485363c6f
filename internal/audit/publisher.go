package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/requestcontext"
)

var entriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "heritage_audit_entries_total",
	Help: "Audit entries emitted, by action.",
}, []string{"action"})

// Publisher is the single write path into the audit trail. It appends to the
// session trail synchronously (the trail is what the console and the ledger
// read) and to the durable store best-effort: a store outage must never
// block vault access, but it is logged and visible in metrics.
type Publisher struct {
	store  Store
	trail  *Trail
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithTrail attaches a session trail that mirrors every emitted entry.
func WithTrail(trail *Trail) Option {
	return func(p *Publisher) { p.trail = trail }
}

// NewPublisher constructs a publisher over the durable store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Trail exposes the session trail (nil if none was attached).
func (p *Publisher) Trail() *Trail { return p.trail }

// Emit records an entry for a user. The entry's time defaults to the
// request-scoped clock; its actor defaults to the owner. Invalid actions are
// rejected before anything is written — the closed action set is what keeps
// the ledger renderable.
func (p *Publisher) Emit(ctx context.Context, userID id.UserID, entry Entry) error {
	if !entry.Action.IsValid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown audit action %q", entry.Action)
	}
	if entry.Time.IsZero() {
		entry.Time = requestcontext.Now(ctx)
	}
	if entry.Actor == "" {
		entry.Actor = ActorOwner
	}

	if p.trail != nil {
		p.trail.Append(entry)
	}
	entriesTotal.WithLabelValues(string(entry.Action)).Inc()
	p.logger.InfoContext(ctx, "audit entry",
		"action", entry.Action,
		"details", entry.Details,
		"actor", entry.Actor,
		"user_id", userID.String(),
		"log_type", "audit",
	)

	if err := p.store.Append(ctx, userID, entry); err != nil {
		p.logger.WarnContext(ctx, "failed to persist audit entry",
			"action", entry.Action,
			"error", err,
		)
		return nil // durable append is best-effort by contract
	}
	return nil
}

// History returns the durable history for a user, newest-first.
func (p *Publisher) History(ctx context.Context, userID id.UserID) ([]Entry, error) {
	entries, err := p.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load audit history")
	}
	return entries, nil
}
