package agent

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/lox/blef/internal/game"
)

const maxViewBytes = 1 << 20

// Handler serves the registry's deciders as a decision service:
// POST /agents/{name} with a view answers {"action_id": n}. An HTTPDecider
// pointed at it plays exactly like the in-process agent.
type Handler struct {
	registry *Registry
	logger   *log.Logger
	mux      *http.ServeMux
}

// NewHandler creates the decision service handler.
func NewHandler(registry *Registry, logger *log.Logger) *Handler {
	h := &Handler{
		registry: registry,
		logger:   logger.WithPrefix("decide"),
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /agents/{name}", h.decide)
	h.mux.HandleFunc("GET /agents", h.list)
	h.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"agents": h.registry.Names()})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	decider, ok := h.registry.Decider(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown agent " + name})
		return
	}

	var view game.View
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewBytes)).Decode(&view); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be a game view"})
		return
	}

	id, err := decider.Decide(r.Context(), view)
	if err != nil {
		h.logger.Error("Decision failed", "agent", name, "game", view.GameID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "decision failed"})
		return
	}
	h.logger.Debug("Decided", "agent", name, "game", view.GameID, "action", game.ActionName(id))
	writeJSON(w, http.StatusOK, Decision{ActionID: &id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
