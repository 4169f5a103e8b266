package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-deck/internal/panel"
)

// healthCheckTimeout bounds each dependency check in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Browser view of the deck
	r.Handle("/panel/*", http.StripPrefix("/panel", panel.Handler(s.cfg.PanelDir)))
	r.Handle("/panel", http.RedirectHandler("/panel/", http.StatusMovedPermanently))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/state", s.handleGetState)

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", s.handleListPages)
			r.Post("/{name}/load", s.handleLoadPage)
			r.Post("/{name}/unload", s.handleUnloadPage)
		})

		r.Route("/buttons", func(r chi.Router) {
			r.Get("/", s.handleListButtons)
			r.Put("/{name}/up-face", s.handleSetUpFace)
		})

		r.Route("/slots/{slot}", func(r chi.Router) {
			r.Post("/press", s.handlePressSlot)
			r.Post("/release", s.handleReleaseSlot)
			r.Get("/face.png", s.handleSlotFace)
		})

		r.Get("/history", s.handleListHistory)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth runs every registered dependency check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	checks := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
