// Package httptransport assembles the HTTP surface: middleware chain, route
// groups, and the serialization guard around them.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakeport/internal/platform/guard"
	"stakeport/internal/platform/middleware"
	"stakeport/pkg/platform/httputil"
)

// Registrar is implemented by every domain handler: query routes are public,
// mutation routes require a caller and the write guard.
type Registrar interface {
	RegisterQueries(r chi.Router)
	RegisterMutations(r chi.Router)
}

// HealthChecker reports the health of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config carries router-level dependencies.
type Config struct {
	Logger          *slog.Logger
	Guard           *guard.Guard
	CallerValidator middleware.CallerValidator
	RequestTimeout  time.Duration

	// Checks run on /healthz; a nil checker is skipped.
	Checks map[string]HealthChecker
}

// NewRouter builds the full route tree. Every request gets the shared
// middleware chain; mutations additionally authenticate the caller and hold
// the write guard, queries hold the read guard.
func NewRouter(cfg Config, handlers ...Registrar) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", healthHandler(cfg.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(queries chi.Router) {
		queries.Use(middleware.ReadGuard(cfg.Guard))
		for _, h := range handlers {
			h.RegisterQueries(queries)
		}
	})

	r.Group(func(mutations chi.Router) {
		mutations.Use(middleware.RequireCaller(cfg.CallerValidator, cfg.Logger))
		mutations.Use(middleware.WriteGuard(cfg.Guard))
		for _, h := range handlers {
			h.RegisterMutations(mutations)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
