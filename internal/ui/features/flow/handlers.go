package flow

import (
	"encoding/gob"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/chview-io/chview/internal/engine"
	"github.com/chview-io/chview/internal/lineage"
	"github.com/chview-io/chview/internal/ui/notifier"
)

const (
	sessionName   = "chview"
	highlightKey  = "lineage_highlight"
	positionsKey  = "lineage_positions"
	sessionMaxAge = 86400 * 30
)

func init() {
	// Dragged node positions are persisted in the cookie session.
	gob.Register(map[string]lineage.Position{})
}

// Handlers provides HTTP handlers for the lineage flow feature.
type Handlers struct {
	engine       *engine.Engine
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	return &Handlers{
		engine:       eng,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
	}
}

// LineageJSON returns the full flow state for the current session:
// computed layout overlaid with dragged positions, dimming applied from
// the highlighted node's connected subgraph.
func (h *Handlers) LineageJSON(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, sessionName)
	snap := h.engine.Snapshot()

	positions := engine.MergePositions(snap.Positions, sessionPositions(session))

	highlight := sessionHighlight(session)
	var connected map[string]struct{}
	if highlight != "" && snap.Graph.HasNode(highlight) {
		connected = lineage.ConnectedSubgraph(snap.Graph, highlight)
	} else if highlight != "" {
		// Stale highlight from a previous graph; drop it.
		delete(session.Values, highlightKey)
		_ = session.Save(r, w)
		highlight = ""
	}

	state := buildFlowState(snap.Graph, positions, snap.ErrorViews, connected, highlight)
	writeJSON(w, http.StatusOK, state)
}

// SelectNode toggles the highlighted node for this session. Clicking the
// highlighted node again clears the highlight.
func (h *Handlers) SelectNode(w http.ResponseWriter, r *http.Request) {
	var signals selectSignals
	if err := json.NewDecoder(r.Body).Decode(&signals); err != nil {
		http.Error(w, "invalid selection payload", http.StatusBadRequest)
		return
	}

	session, _ := h.sessionStore.Get(r, sessionName)
	highlight := sessionHighlight(session)

	if signals.ID == "" || signals.ID == highlight {
		delete(session.Values, highlightKey)
		highlight = ""
	} else {
		session.Values[highlightKey] = signals.ID
		highlight = signals.ID
	}

	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", "error", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"highlight": highlight})
}

// SavePositions stores dragged node positions in the session so they
// survive highlight changes and refreshes.
func (h *Handlers) SavePositions(w http.ResponseWriter, r *http.Request) {
	var positions map[string]lineage.Position
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		http.Error(w, "invalid positions payload", http.StatusBadRequest)
		return
	}

	session, _ := h.sessionStore.Get(r, sessionName)
	session.Values[positionsKey] = positions
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", "error", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetPositions discards the session's dragged positions, restoring the
// computed layout on the next fetch.
func (h *Handlers) ResetPositions(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, sessionName)
	delete(session.Values, positionsKey)
	if err := session.Save(r, w); err != nil {
		h.logger.Error("failed to save session", "error", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatsJSON returns summary counters for the current snapshot.
func (h *Handlers) StatsJSON(w http.ResponseWriter, _ *http.Request) {
	snap := h.engine.Snapshot()

	stats := Stats{
		Nodes:      snap.Graph.NodeCount(),
		Edges:      snap.Graph.EdgeCount(),
		Views:      len(snap.Graph.MVNames),
		ErrorViews: len(snap.ErrorViews),
	}
	if !snap.RefreshedAt.IsZero() {
		stats.RefreshedAt = snap.RefreshedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, stats)
}

// Refresh triggers an immediate data refresh. Subscribers are pinged via
// the engine's refresh callback.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Refresh(r.Context()); err != nil {
		h.logger.Error("manual refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Updates streams a refresh signal to the frontend whenever the snapshot
// changes, prompting it to re-fetch the lineage payload.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-updates:
			signal := map[string]any{
				"lineageVersion": time.Now().UnixMilli(),
			}
			if err := sse.MarshalAndPatchSignals(signal); err != nil {
				_ = sse.ConsoleError(err)
				return
			}
		}
	}
}

// sessionHighlight reads the highlighted node ID, if any.
func sessionHighlight(session *sessions.Session) string {
	if v, ok := session.Values[highlightKey].(string); ok {
		return v
	}
	return ""
}

// sessionPositions reads the dragged positions map, if any.
func sessionPositions(session *sessions.Session) map[string]lineage.Position {
	if v, ok := session.Values[positionsKey].(map[string]lineage.Position); ok {
		return v
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
