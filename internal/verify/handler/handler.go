// Package handler exposes the public third-party verification endpoints.
// These routes are unauthenticated by design: the seed is the credential,
// and the short-lived session token covers follow-up ledger fetches.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"heritage/internal/verify"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/platform/httputil"
	"heritage/pkg/requestcontext"
)

// Handler serves the verification surface.
type Handler struct {
	verify *verify.Service
	logger *slog.Logger
}

// New creates a verification Handler.
func New(service *verify.Service, logger *slog.Logger) *Handler {
	return &Handler{verify: service, logger: logger}
}

// Register mounts the public verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify", h.handleVerify)
	r.Get("/verify/ledger", h.handleLedger)
	r.Get("/verify/ledger/print", h.handlePrint)
}

type verifyRequest struct {
	Seed string `json:"seed"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	result, err := h.verify.Verify(ctx, req.Seed)
	if err != nil {
		// Rejections and throttling share one path on purpose; nothing
		// beyond the error code may differ between failure causes.
		h.logger.InfoContext(ctx, "verification refused",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	record, entries, err := h.verify.Ledger(r.Context(), bearerToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"record_id": record.ID,
		"status":    record.Status,
		"entries":   entries,
	})
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, entries, err := h.verify.Ledger(ctx, bearerToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := verify.RenderPrintable(record, entries, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "printable ledger render failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "render failed"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func bearerToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}
