package console

import (
	"context"
	"log/slog"
	"sync"

	"heritage/internal/protocol/models"
	"heritage/internal/protocol/wizard"
	"heritage/internal/vault"
	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/requestcontext"
)

// Anchorer commits finalized designations.
type Anchorer interface {
	Anchor(ctx context.Context, userID id.UserID, data models.ProtocolData) (models.SuccessionRecord, error)
}

// Reviewer runs the annual review policy against a loaded record.
type Reviewer interface {
	CheckAndTrigger(ctx context.Context, email string, record models.SuccessionRecord) (models.ProtocolData, error)
}

// EmailResolver maps the owner to their notice address.
type EmailResolver interface {
	Email(ctx context.Context, userID id.UserID) (string, error)
}

// View is what the session renders: the locked gate or the document list.
type View struct {
	Vault      vault.Snapshot           `json:"vault"`
	HasRecord  bool                     `json:"has_record"`
	Record     *models.SuccessionRecord `json:"record,omitempty"`
	WizardStep int                      `json:"wizard_step,omitempty"`
	WizardType models.ProtocolType      `json:"wizard_type,omitempty"`
}

// Console is one owner's vault session. It is the only component permitted
// to drive the registry and the persistence boundary together; everything a
// UI reads flows through View and the registry's snapshot subscription.
type Console struct {
	userID   id.UserID
	registry *vault.Registry
	loader   *Loader
	anchors  Anchorer
	reviews  Reviewer
	emails   EmailResolver
	logger   *slog.Logger

	mu     sync.Mutex
	record *models.SuccessionRecord
	wiz    *wizard.Wizard
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) { c.logger = logger }
}

// NewConsole constructs a session for the given owner.
func NewConsole(userID id.UserID, registry *vault.Registry, loader *Loader, anchors Anchorer, reviews Reviewer, emails EmailResolver, opts ...Option) *Console {
	c := &Console{
		userID:   userID,
		registry: registry,
		loader:   loader,
		anchors:  anchors,
		reviews:  reviews,
		emails:   emails,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open starts the session: open the vault, load the latest record under the
// safety timeout, and run the review check against whatever loaded. Review
// failures are logged and absorbed; opening the vault is never blocked by
// the notice machinery.
func (c *Console) Open(ctx context.Context) View {
	c.registry.Open(ctx)

	record, ok := c.loader.Load(ctx, c.userID)
	c.mu.Lock()
	defer c.mu.Unlock()

	if !ok {
		c.record = nil
		return c.viewLocked()
	}

	if email, err := c.emails.Email(ctx, c.userID); err == nil {
		if data, err := c.reviews.CheckAndTrigger(ctx, email, record); err == nil {
			record.Data = data
		} else {
			c.logger.WarnContext(ctx, "annual review check failed", "error", err)
		}
	} else {
		c.logger.WarnContext(ctx, "could not resolve notice address; skipping review check", "error", err)
	}

	c.record = &record
	return c.viewLocked()
}

// Close ends the session and discards any in-flight wizard.
func (c *Console) Close(ctx context.Context) {
	c.registry.Close(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wiz = nil
}

// Unlock submits a PIN to the registry's gate.
func (c *Console) Unlock(ctx context.Context, pin string) bool {
	return c.registry.ValidatePIN(ctx, pin)
}

// Lock manually relocks the open vault without ending the session.
func (c *Console) Lock(ctx context.Context) {
	c.registry.SetUnlocked(ctx, false)
}

// StartWizard opens a designation wizard. The vault must be unlocked; the
// wizard is UI state, but it leads to the document, so it sits behind the
// same gate as the document list.
func (c *Console) StartWizard(ctx context.Context, protocolType models.ProtocolType) error {
	if c.registry.Snapshot().State != vault.StateOpenUnlocked {
		return dErrors.New(dErrors.CodeForbidden, "vault is locked")
	}
	w, err := wizard.New(protocolType)
	if err != nil {
		return err
	}
	if err := c.registry.SetProtocol(ctx, protocolType); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.wiz = w
	return nil
}

// Wizard exposes the in-flight wizard for step updates, or an error when
// none is running.
func (c *Console) Wizard() (*wizard.Wizard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wiz == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "no wizard in progress")
	}
	return c.wiz, nil
}

// Finalize completes the wizard and anchors the result. The wizard produces
// the payload; supersession and audit belong to the anchor service.
func (c *Console) Finalize(ctx context.Context) (models.SuccessionRecord, error) {
	w, err := c.Wizard()
	if err != nil {
		return models.SuccessionRecord{}, err
	}

	data, err := w.Finalize(requestcontext.Now(ctx))
	if err != nil {
		return models.SuccessionRecord{}, err
	}

	record, err := c.anchors.Anchor(ctx, c.userID, data)
	if err != nil {
		return models.SuccessionRecord{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.record = &record
	c.wiz = nil
	if err := c.registry.SetProtocol(ctx, ""); err != nil {
		c.logger.WarnContext(ctx, "failed to clear protocol selection", "error", err)
	}
	return record, nil
}

// View returns the current render state.
func (c *Console) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Console) viewLocked() View {
	view := View{
		Vault:     c.registry.Snapshot(),
		HasRecord: c.record != nil,
	}
	if c.record != nil && view.Vault.State == vault.StateOpenUnlocked {
		record := *c.record
		view.Record = &record
	}
	if c.wiz != nil {
		view.WizardStep = c.wiz.Step()
		view.WizardType = c.wiz.Type()
	}
	return view
}
