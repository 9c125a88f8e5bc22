package flow

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/chview-io/chview/internal/engine"
	"github.com/chview-io/chview/internal/ui/notifier"
)

// SetupRoutes registers the lineage flow routes.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(eng, sessionStore, notify, logger)

	// SSE route (live updates only)
	router.Get("/lineage/updates", handlers.Updates)

	router.Route("/api/lineage", func(r chi.Router) {
		r.Get("/", handlers.LineageJSON)
		r.Get("/stats", handlers.StatsJSON)
		r.Post("/select", handlers.SelectNode)
		r.Post("/positions", handlers.SavePositions)
		r.Delete("/positions", handlers.ResetPositions)
	})

	router.Post("/api/refresh", handlers.Refresh)

	return nil
}
