package identity

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/platform/sentinel"
	"heritage/pkg/requestcontext"
)

// PIN length accepted at provisioning. Four digits matches what fits on the
// printed vault card; the bcrypt hash is what's stored.
const (
	pinMinLen = 4
	pinMaxLen = 8
)

// Service provisions owners and checks PINs. Every failure path answers
// "denied": a missing owner row, a store outage, and a wrong PIN are
// indistinguishable to the caller.
type Service struct {
	store  OwnerStore
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs the identity service.
func NewService(store OwnerStore, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provision stores an owner's email and PIN. The PIN is hashed here and the
// plaintext is discarded immediately.
func (s *Service) Provision(ctx context.Context, userID id.UserID, email, pin string) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if email == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if len(pin) < pinMinLen || len(pin) > pinMaxLen {
		return dErrors.Newf(dErrors.CodeInvalidInput, "pin must be %d-%d characters", pinMinLen, pinMaxLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash pin")
	}
	owner := Owner{
		UserID:    userID,
		Email:     email,
		PINHash:   string(hash),
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, owner); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save owner")
	}
	return nil
}

// VerifyPIN reports whether the PIN matches the owner's stored hash. Fail
// closed: any error on the lookup is a denial, never a pass-through.
func (s *Service) VerifyPIN(ctx context.Context, userID id.UserID, pin string) bool {
	owner, err := s.store.ByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "pin lookup failed; denying", "error", err)
		}
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(owner.PINHash), []byte(pin)) == nil
}

// Email resolves the owner's notification address.
func (s *Service) Email(ctx context.Context, userID id.UserID) (string, error) {
	owner, err := s.store.ByUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeNotFound, "owner not provisioned")
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "load owner")
	}
	return owner.Email, nil
}
