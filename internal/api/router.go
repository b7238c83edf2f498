// Package api serves the licence-management admin API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jobmanager/helper/internal/helper"
	"github.com/jobmanager/helper/internal/rest"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the admin API serves from.
type Deps struct {
	Helper     *helper.Helper
	Transients helper.TransientStore
	Health     func(ctx context.Context) error // optional readiness probe
	Version    string
	Now        func() time.Time
}

// Handler holds the admin API's dependencies.
type Handler struct {
	helper     *helper.Helper
	transients helper.TransientStore
	health     func(ctx context.Context) error
	version    string
	now        func() time.Time
	env        *rest.Environment
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		helper:     deps.Helper,
		transients: deps.Transients,
		health:     deps.Health,
		version:    deps.Version,
		now:        now,
		env:        rest.NewEnvironment(),
	}
}

// NewRouter mounts every admin API route.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	r.Use(networkAdminMiddleware)

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/licences", func(r chi.Router) {
			r.Get("/", h.listLicences)
			r.Post("/{slug}/activate", h.activateLicence)
			r.Post("/{slug}/deactivate", h.deactivateLicence)
			r.Post("/{slug}/dismiss-notice", h.dismissKeyNotice)
		})
		r.Route("/updates", func(r chi.Router) {
			r.Get("/", h.getUpdates)
			r.Post("/check", h.checkUpdates)
		})
		r.Get("/plugins/{slug}/information", h.pluginInformation)
		r.Post("/plugins/{slug}/information", h.pluginInformation)
	})

	r.Get("/rest/job-types/schema", h.jobTypesSchema)
	return r
}
