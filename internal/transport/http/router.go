// Package httptransport assembles the HTTP surface. It owns no business
// logic: domain handlers register their own routes and this package only
// decides mounting and the shared middleware chain.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"residora/internal/platform/middleware"
	"residora/pkg/platform/httputil"
	"residora/pkg/platform/middleware/metadata"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter mounts all domain handlers under /api/v1 behind the shared
// middleware chain, plus the operational endpoints.
func NewRouter(registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)

	r.Route("/api/v1", func(api chi.Router) {
		for _, registrar := range registrars {
			registrar.Register(api)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
