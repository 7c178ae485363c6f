// Package service owns the persistence boundary of the succession protocol:
// seed assignment, supersession, and the audit entries that anchor a record
// into the chain of custody.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"heritage/internal/audit"
	"heritage/internal/protocol/models"
	"heritage/internal/protocol/store"
	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/platform/sentinel"
	"heritage/pkg/requestcontext"
	"heritage/pkg/seed"
)

// Auditor is the slice of the audit publisher the service needs.
type Auditor interface {
	Emit(ctx context.Context, userID id.UserID, entry audit.Entry) error
}

// Service anchors finalized designations into the record store.
type Service struct {
	records store.RecordStore
	auditor Auditor
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs the protocol service.
func NewService(records store.RecordStore, auditor Auditor, opts ...Option) *Service {
	s := &Service{
		records: records,
		auditor: auditor,
		logger:  slog.Default(),
		tracer:  otel.Tracer("heritage/protocol"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Anchor commits a finalized designation as the user's active record.
//
// The seed is assigned here, once per record lifecycle: a payload arriving
// with a seed keeps it, a payload without one gets a fresh seed. The store
// upsert is attempted first; stores without a uniqueness constraint report
// sentinel.ErrNoUpsertSupport and the service falls back to an explicit
// supersede-then-insert. Either way the prior active record is retained as
// superseded, never deleted, and the supersession audit entry is timestamped
// strictly before the anchor entry so causal order holds even when both land
// in the same tick.
func (s *Service) Anchor(ctx context.Context, userID id.UserID, data models.ProtocolData) (models.SuccessionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "protocol.Anchor",
		trace.WithAttributes(attribute.String("protocol.type", data.Type.String())))
	defer span.End()

	if userID.IsNil() {
		return models.SuccessionRecord{}, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if err := data.Validate(); err != nil {
		return models.SuccessionRecord{}, err
	}
	if data.ProtocolSeed == "" {
		generated, err := seed.New()
		if err != nil {
			return models.SuccessionRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate protocol seed")
		}
		data.ProtocolSeed = generated
	}

	now := requestcontext.Now(ctx)

	prior, err := s.records.ActiveByUser(ctx, userID)
	hadPrior := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return models.SuccessionRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "load active record")
	}

	record := models.SuccessionRecord{
		ID:        id.NewRecordID(),
		UserID:    userID,
		Data:      data,
		Status:    models.StatusActive,
		CreatedAt: now,
	}

	if err := s.persist(ctx, userID, record, now); err != nil {
		return models.SuccessionRecord{}, err
	}

	if hadPrior {
		s.emit(ctx, userID, audit.Entry{
			Action:  audit.ActionProtocolSuperseded,
			Details: "prior designation " + prior.ID.String() + " superseded",
			Time:    now.Add(-time.Millisecond),
		})
	}
	s.emit(ctx, userID, audit.Entry{
		Action:  audit.ActionKineticAnchorSecured,
		Details: "designation " + record.ID.String() + " committed (" + data.Type.String() + ")",
		Time:    now,
	})

	s.logger.InfoContext(ctx, "protocol anchored",
		"record_id", record.ID.String(),
		"protocol_type", data.Type.String(),
		"superseded_prior", hadPrior,
	)
	return record, nil
}

func (s *Service) persist(ctx context.Context, userID id.UserID, record models.SuccessionRecord, now time.Time) error {
	err := s.records.Upsert(ctx, record)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrNoUpsertSupport) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "upsert succession record")
	}

	// Documented fallback for stores without a uniqueness constraint.
	if err := s.records.MarkSuperseded(ctx, userID, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "supersede active record")
	}
	if err := s.records.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "active record already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "insert succession record")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, userID id.UserID, entry audit.Entry) {
	if err := s.auditor.Emit(ctx, userID, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit entry", "action", entry.Action, "error", err)
	}
}

// Active returns the user's active record.
func (s *Service) Active(ctx context.Context, userID id.UserID) (models.SuccessionRecord, error) {
	record, err := s.records.ActiveByUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.SuccessionRecord{}, dErrors.New(dErrors.CodeNotFound, "no active designation")
	}
	if err != nil {
		return models.SuccessionRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "load active record")
	}
	return record, nil
}

// History returns every record for the user, newest first. Superseded records
// are part of the chain of custody and are always included.
func (s *Service) History(ctx context.Context, userID id.UserID) ([]models.SuccessionRecord, error) {
	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list succession records")
	}
	return records, nil
}
