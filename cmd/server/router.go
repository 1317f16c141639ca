package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/applypilot/applypilot-api/internal/api"
	apimiddleware "github.com/applypilot/applypilot-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	taskHandler := api.NewTaskHandler(app.queue)
	poolHandler := api.NewPoolHandler(app.pool)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)
	adminMiddleware := apimiddleware.NewAdminMiddleware(app.config.Auth.AdminKeyHash)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/tasks", taskHandler.Submit)
			r.Get("/tasks/{id}", taskHandler.Status)
			r.Post("/tasks/{id}/cancel", taskHandler.Cancel)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware.Require)
			r.Get("/admin/pool", poolHandler.Stats)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(adminMiddleware.Require)
		r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
