// Package handler exposes owner provisioning. The routes sit behind the
// admin token middleware; there is no self-service path to set a PIN.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/platform/httputil"
	"heritage/pkg/requestcontext"
)

// Provisioner sets up an owner's credential and notice address.
type Provisioner interface {
	Provision(ctx context.Context, userID id.UserID, email, pin string) error
}

// Handler serves the admin provisioning surface.
type Handler struct {
	identity Provisioner
	logger   *slog.Logger
}

// New creates a provisioning Handler.
func New(identity Provisioner, logger *slog.Logger) *Handler {
	return &Handler{identity: identity, logger: logger}
}

// Register mounts the provisioning routes. The caller applies the admin
// token middleware to the router passed in.
func (h *Handler) Register(r chi.Router) {
	r.Post("/owners", h.handleProvision)
}

type provisionRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	PIN    string `json:"pin"`
}

type provisionResponse struct {
	UserID string `json:"user_id"`
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	userID := id.NewUserID()
	if req.UserID != "" {
		parsed, err := id.ParseUserID(req.UserID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		userID = parsed
	}

	if err := h.identity.Provision(ctx, userID, req.Email, req.PIN); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "owner provisioned",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, provisionResponse{UserID: userID.String()})
}
