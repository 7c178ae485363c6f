// Package verify implements third-party verification: a holder of the seed
// printed on the paper document proves the digital record is (or is not) the
// authoritative version, and receives the audit ledger.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
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

// Rejections are deliberately non-specific: one message for a malformed
// seed, an unknown seed, and an internal failure, so the endpoint leaks
// nothing about the seed space.
const rejectionMessage = "cryptographic seed rejected"

// Auditor is the slice of the audit publisher the service needs.
type Auditor interface {
	Emit(ctx context.Context, userID id.UserID, entry audit.Entry) error
	History(ctx context.Context, userID id.UserID) ([]audit.Entry, error)
}

// Verification is the read-only view returned on a successful match.
type Verification struct {
	RecordID     id.RecordID         `json:"record_id"`
	ProtocolType models.ProtocolType `json:"protocol_type"`
	FinalizedAt  time.Time           `json:"finalized_at"`
	Summary      string              `json:"summary"`

	// Authoritative is the supersession-status statement: true only when
	// the record holding this seed is still the active designation.
	Authoritative bool   `json:"authoritative"`
	Statement     string `json:"statement"`

	// Ledger is the audit history, newest-first for on-screen display.
	Ledger []audit.Entry `json:"ledger"`

	// SessionToken authorizes follow-up reads (the printable ledger)
	// without retyping the seed.
	SessionToken string `json:"session_token"`
}

// Service runs the verification flow.
type Service struct {
	records  store.RecordStore
	auditor  Auditor
	throttle Throttle
	tokens   *TokenService
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs the verification service.
func NewService(records store.RecordStore, auditor Auditor, throttle Throttle, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		records:  records,
		auditor:  auditor,
		throttle: throttle,
		tokens:   tokens,
		logger:   slog.Default(),
		tracer:   otel.Tracer("heritage/verify"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify checks a hand-typed seed against the record store. Every failure
// mode — malformed input, unknown seed, store outage, throttled client —
// fails closed with the same rejection; a throttled client additionally
// learns it is throttled (that is rate-limit metadata, not seed metadata).
// Only a successful, post-authentication verification is written to the
// record's audit trail.
func (s *Service) Verify(ctx context.Context, input string) (Verification, error) {
	ctx, span := s.tracer.Start(ctx, "verify.Verify")
	defer span.End()

	clientKey := requestcontext.ClientIP(ctx)
	if clientKey == "" {
		clientKey = "unknown"
	}

	allowed, err := s.throttle.Allow(ctx, clientKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "throttle check failed; denying", "error", err)
		return Verification{}, dErrors.New(dErrors.CodeRateLimited, "verification temporarily unavailable")
	}
	if !allowed {
		return Verification{}, dErrors.New(dErrors.CodeRateLimited, "too many failed attempts")
	}

	normalized := seed.Normalize(input)
	if len(normalized) != seed.Length {
		return Verification{}, s.reject(ctx, clientKey)
	}

	record, err := s.records.BySeed(ctx, normalized)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "seed lookup failed; denying", "error", err)
		}
		return Verification{}, s.reject(ctx, clientKey)
	}
	if !seed.Match(input, record.Data.ProtocolSeed) {
		return Verification{}, s.reject(ctx, clientKey)
	}

	if err := s.throttle.Reset(ctx, clientKey); err != nil {
		s.logger.WarnContext(ctx, "failed to reset throttle window", "error", err)
	}

	now := requestcontext.Now(ctx)
	s.emit(ctx, record.UserID, audit.Entry{
		Action:  audit.ActionExternalVerification,
		Details: "seed verification for record " + record.ID.String(),
		Time:    now,
		Actor:   audit.ActorExternal,
		IP:      requestcontext.ClientIP(ctx),
		Origin:  requestcontext.Origin(ctx),
	})

	ledger, err := s.auditor.History(ctx, record.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load ledger for verification", "error", err)
		ledger = nil
	}

	token, err := s.tokens.Issue(record.ID, now)
	if err != nil {
		return Verification{}, err
	}

	return Verification{
		RecordID:      record.ID,
		ProtocolType:  record.Data.Type,
		FinalizedAt:   record.Data.FinalizedAt,
		Summary:       summarize(record),
		Authoritative: record.Status == models.StatusActive,
		Statement:     statement(record),
		Ledger:        ledger,
		SessionToken:  token,
	}, nil
}

// Ledger returns the audit history for a previously verified session.
func (s *Service) Ledger(ctx context.Context, token string) (models.SuccessionRecord, []audit.Entry, error) {
	recordID, err := s.tokens.Validate(token)
	if err != nil {
		return models.SuccessionRecord{}, nil, err
	}

	record, err := s.records.ByID(ctx, recordID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.SuccessionRecord{}, nil, dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	if err != nil {
		return models.SuccessionRecord{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load record")
	}

	ledger, err := s.auditor.History(ctx, record.UserID)
	if err != nil {
		return models.SuccessionRecord{}, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load ledger")
	}
	return record, ledger, nil
}

func (s *Service) reject(ctx context.Context, clientKey string) error {
	if err := s.throttle.RecordFailure(ctx, clientKey); err != nil {
		s.logger.WarnContext(ctx, "failed to record throttle failure", "error", err)
	}
	// Pre-auth failures never touch the record's trail.
	return dErrors.New(dErrors.CodeUnauthorized, rejectionMessage)
}

func (s *Service) emit(ctx context.Context, userID id.UserID, entry audit.Entry) {
	if err := s.auditor.Emit(ctx, userID, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to audit verification", "error", err)
	}
}

func summarize(record models.SuccessionRecord) string {
	data := record.Data
	switch data.Type {
	case models.ProtocolWill:
		return "Last Will and Testament of " + data.PrincipalName() +
			", executor " + data.SuccessorName()
	case models.ProtocolTrust:
		return "Living Trust of " + data.PrincipalName() +
			", successor trustee " + data.SuccessorName()
	}
	return ""
}

func statement(record models.SuccessionRecord) string {
	if record.Status == models.StatusActive {
		return "This is the authoritative, non-superseded designation of record."
	}
	return "This designation has been SUPERSEDED by a newer record and is retained for audit only."
}
