// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/chview-io/chview/internal/engine"
	flowFeature "github.com/chview-io/chview/internal/ui/features/flow"
	"github.com/chview-io/chview/internal/ui/notifier"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	eng *engine.Engine,
	sessionStore *sessions.CookieStore,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return flowFeature.SetupRoutes(router, eng, sessionStore, notify, logger)
}
