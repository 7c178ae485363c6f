// Package handler exposes the owner's vault session over HTTP. The handler
// is a thin translation layer: the console owns the session semantics, the
// registry owns the state machine.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"heritage/internal/audit"
	"heritage/internal/console"
	"heritage/internal/protocol/models"
	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/platform/httputil"
	"heritage/pkg/requestcontext"
)

// Historian reads the owner's durable audit history.
type Historian interface {
	History(ctx context.Context, userID id.UserID) ([]audit.Entry, error)
}

// Handler drives one owner's console session.
type Handler struct {
	console *console.Console
	userID  id.UserID
	history Historian
	logger  *slog.Logger
}

// New creates a console Handler.
func New(c *console.Console, userID id.UserID, history Historian, logger *slog.Logger) *Handler {
	return &Handler{
		console: c,
		userID:  userID,
		history: history,
		logger:  logger,
	}
}

// Register mounts the session routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/vault", h.handleView)
	r.Post("/vault/open", h.handleOpen)
	r.Post("/vault/close", h.handleClose)
	r.Post("/vault/unlock", h.handleUnlock)
	r.Post("/vault/lock", h.handleLock)

	r.Post("/wizard", h.handleStartWizard)
	r.Put("/wizard/will", h.handleSetWill)
	r.Put("/wizard/trust", h.handleSetTrust)
	r.Post("/wizard/next", h.handleNext)
	r.Post("/wizard/back", h.handleBack)
	r.Post("/wizard/finalize", h.handleFinalize)

	r.Get("/audit", h.handleAudit)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.console.View())
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	view := h.console.Open(r.Context())
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.console.Close(r.Context())
	httputil.WriteJSON(w, http.StatusOK, h.console.View())
}

type unlockRequest struct {
	PIN string `json:"pin"`
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	if !h.console.Unlock(ctx, req.PIN) {
		h.logger.WarnContext(ctx, "vault unlock denied",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "access code rejected"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.console.View())
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	h.console.Lock(r.Context())
	httputil.WriteJSON(w, http.StatusOK, h.console.View())
}

type startWizardRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleStartWizard(w http.ResponseWriter, r *http.Request) {
	var req startWizardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	protocolType, err := models.ParseProtocolType(req.Type)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.console.StartWizard(r.Context(), protocolType); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.console.View())
}

func (h *Handler) handleSetWill(w http.ResponseWriter, r *http.Request) {
	var data models.WillData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.wizardOp(w, func(wz wizardOps) error { return wz.SetWill(data) })
}

func (h *Handler) handleSetTrust(w http.ResponseWriter, r *http.Request) {
	var data models.TrustData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	h.wizardOp(w, func(wz wizardOps) error { return wz.SetTrust(data) })
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.wizardOp(w, func(wz wizardOps) error { return wz.Next() })
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	h.wizardOp(w, func(wz wizardOps) error { wz.Back(); return nil })
}

// wizardOps is the slice of the wizard the step handlers touch.
type wizardOps interface {
	SetWill(models.WillData) error
	SetTrust(models.TrustData) error
	Next() error
	Back()
}

func (h *Handler) wizardOp(w http.ResponseWriter, op func(wizardOps) error) {
	wz, err := h.console.Wizard()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := op(wz); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.console.View())
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	record, err := h.console.Finalize(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.history.History(ctx, h.userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit history fetch failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
