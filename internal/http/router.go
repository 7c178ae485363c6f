// Package httpapi assembles the HTTP surface: the owner's console session,
// the public verification endpoints, the admin provisioning surface, and
// the health/metrics plumbing.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	consolehandler "heritage/internal/console/handler"
	identityhandler "heritage/internal/identity/handler"
	"heritage/internal/platform/metrics"
	"heritage/internal/platform/middleware"
	verifyhandler "heritage/internal/verify/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Console    *consolehandler.Handler
	Verify     *verifyhandler.Handler
	Identity   *identityhandler.Handler
	Metrics    *metrics.Metrics
	AdminToken string
	Logger     *slog.Logger
}

// NewRouter wires the middleware chain and all route groups.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		deps.Console.Register(r)
		deps.Verify.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
			deps.Identity.Register(r)
		})
	})

	return r
}
