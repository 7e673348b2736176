// Package http assembles the chi router: middleware chain, public probes,
// and the authenticated API surface. Handlers register their own routes;
// this package only decides ordering and what sits behind auth.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "reguard/internal/platform/metrics"
	"reguard/pkg/platform/httputil"
	"reguard/pkg/platform/middleware/metadata"
	"reguard/pkg/platform/middleware/requestid"
	"reguard/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every area handler.
type Registrar interface {
	Register(chi.Router)
}

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Auth     func(http.Handler) http.Handler
	Metrics  *platformmetrics.HTTP
	Handlers []Registrar
	Health   map[string]HealthCheck
}

// New assembles the router. The metrics middleware wraps everything so
// unauthenticated probes are measured too; auth guards only the API routes.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(deps.Metrics.Middleware)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth)
		}
		for _, h := range deps.Handlers {
			h.Register(r)
		}
	})

	return r
}

// healthHandler reports per-dependency status; any failing check turns the
// response into a 503 so load balancers stop routing here.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks)+1)
		report["status"] = "ok"
		for name, check := range checks {
			if err := check(ctx); err != nil {
				report[name] = err.Error()
				report["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}

		httputil.WriteJSON(w, status, report)
	}
}
