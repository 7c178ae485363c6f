// Package vault implements the session state machine guarding access to the
// succession documents: Closed → OpenLocked → OpenUnlocked, with a PIN gate
// between the last two.
package vault

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"heritage/internal/audit"
	"heritage/internal/protocol/models"
	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
)

// State is the vault's position in the access lifecycle.
type State string

const (
	StateClosed       State = "closed"
	StateOpenLocked   State = "open_locked"
	StateOpenUnlocked State = "open_unlocked"
)

// Snapshot is the immutable view handed to subscribers. It carries values
// only, never references into registry internals.
type Snapshot struct {
	State      State               `json:"state"`
	IsOpen     bool                `json:"is_open"`
	IsUnlocked bool                `json:"is_unlocked"`
	Protocol   models.ProtocolType `json:"protocol,omitempty"` // empty when no designation is selected
}

// Subscriber receives a snapshot after every mutating operation.
type Subscriber func(Snapshot)

// PINVerifier checks a PIN against the owner's provisioned credential. It
// must fail closed: any internal failure reads as a mismatch.
type PINVerifier interface {
	VerifyPIN(ctx context.Context, userID id.UserID, pin string) bool
}

// Auditor is the slice of the audit publisher the registry needs.
type Auditor interface {
	Emit(ctx context.Context, userID id.UserID, entry audit.Entry) error
}

// Registry is one owner's vault session. Its public contract is that
// operations do not fail: internal errors are logged and absorbed so a store
// hiccup can never strand the user in a broken session. The one exception is
// SetProtocol's allow-list, which is a hard validation error.
type Registry struct {
	mu         sync.Mutex
	userID     id.UserID
	isOpen     bool
	isUnlocked bool
	protocol   models.ProtocolType

	pins        PINVerifier
	auditor     Auditor
	logger      *slog.Logger
	subscribers map[int]Subscriber
	nextSubID   int

	// pinDelay models the handshake latency of a real credential check so
	// the locked gate cannot be timing-probed for instant rejections.
	pinDelay time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithPINDelay overrides the simulated handshake latency. Tests set zero.
func WithPINDelay(delay time.Duration) Option {
	return func(r *Registry) { r.pinDelay = delay }
}

// NewRegistry constructs a closed vault session for the given owner.
func NewRegistry(userID id.UserID, pins PINVerifier, auditor Auditor, opts ...Option) *Registry {
	r := &Registry{
		userID:      userID,
		pins:        pins,
		auditor:     auditor,
		logger:      slog.Default(),
		subscribers: make(map[int]Subscriber),
		pinDelay:    400 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the current state as values.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() Snapshot {
	state := StateClosed
	switch {
	case r.isOpen && r.isUnlocked:
		state = StateOpenUnlocked
	case r.isOpen:
		state = StateOpenLocked
	}
	return Snapshot{
		State:      state,
		IsOpen:     r.isOpen,
		IsUnlocked: r.isUnlocked,
		Protocol:   r.protocol,
	}
}

// Subscribe registers a subscriber and returns its cancel function.
// Subscribers are invoked synchronously after every mutating operation.
func (r *Registry) Subscribe(fn Subscriber) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	subID := r.nextSubID
	r.nextSubID++
	r.subscribers[subID] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, subID)
	}
}

func (r *Registry) notifyLocked() {
	snapshot := r.snapshotLocked()
	for _, fn := range r.subscribers {
		fn(snapshot)
	}
}

// Open transitions to OpenLocked. A vault opened from Closed always arrives
// locked; close() is what guarantees unlocked state never survives a session.
func (r *Registry) Open(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.isOpen = true
	r.emit(ctx, audit.Entry{Action: audit.ActionVaultOpened, Details: "vault session opened"})
	r.notifyLocked()
}

// Close transitions to Closed and forcibly clears the unlock. This is the
// single point enforcing that unlocked state is never persisted.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.isOpen = false
	r.isUnlocked = false
	r.emit(ctx, audit.Entry{Action: audit.ActionVaultClosed, Details: "vault session closed"})
	r.notifyLocked()
}

// SetUnlocked toggles the lock without changing whether the vault is open.
func (r *Registry) SetUnlocked(ctx context.Context, unlocked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.isUnlocked = unlocked
	action := audit.ActionManualLock
	details := "vault manually locked"
	if unlocked {
		action = audit.ActionManualUnlock
		details = "vault manually unlocked"
	}
	r.emit(ctx, audit.Entry{Action: action, Details: details})
	r.notifyLocked()
}

// SetProtocol selects the designation type in play. The empty type clears
// the selection; anything outside the allow-list is a hard validation error
// and no state changes.
func (r *Registry) SetProtocol(ctx context.Context, protocol models.ProtocolType) error {
	if protocol != "" && !protocol.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid protocol type %q", protocol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.protocol = protocol
	details := "protocol selection cleared"
	if protocol != "" {
		details = "protocol set to " + protocol.String()
	}
	r.emit(ctx, audit.Entry{Action: audit.ActionProtocolTransition, Details: details})
	r.notifyLocked()
	return nil
}

// ValidatePIN checks the PIN against the owner's provisioned credential. On
// match the vault transitions to OpenUnlocked; on mismatch (including any
// identity store failure, which the verifier reads as a mismatch) the lock
// state is untouched and the denial is audited.
func (r *Registry) ValidatePIN(ctx context.Context, pin string) bool {
	if r.pinDelay > 0 {
		select {
		case <-time.After(r.pinDelay):
		case <-ctx.Done():
			return false
		}
	}

	ok := r.pins.VerifyPIN(ctx, r.userID, pin)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !ok {
		r.emit(ctx, audit.Entry{Action: audit.ActionPINDenied, Details: "pin rejected"})
		r.notifyLocked()
		return false
	}

	r.isOpen = true
	r.isUnlocked = true
	r.emit(ctx, audit.Entry{Action: audit.ActionPINVerified, Details: "pin verified"})
	r.notifyLocked()
	return true
}

// ProvisionBypass force-unlocks the vault in development builds. In release
// binaries the bypass is compiled out and this is an audited no-op refusal.
func (r *Registry) ProvisionBypass(ctx context.Context) bool {
	if !bypassEnabled {
		r.logger.WarnContext(ctx, "bypass requested but not compiled in")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.isOpen = true
	r.isUnlocked = true
	r.emit(ctx, audit.Entry{Action: audit.ActionBypassActivated, Details: "development bypass engaged"})
	r.notifyLocked()
	return true
}

// emit forwards to the auditor, absorbing failures: a broken audit pipeline
// must not break vault operations.
func (r *Registry) emit(ctx context.Context, entry audit.Entry) {
	if err := r.auditor.Emit(ctx, r.userID, entry); err != nil {
		r.logger.ErrorContext(ctx, "failed to emit vault audit entry",
			"action", entry.Action, "error", err)
	}
}
