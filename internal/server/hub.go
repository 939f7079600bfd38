package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/blef/internal/game"
)

// Message types pushed to watchers. A resolved round is pushed to game
// watchers with every hand revealed, just before the view of the next one.
const (
	MessageGame  = "game"
	MessageRound = "round"
	MessageLobby = "lobby"
)

// Message is the envelope for everything sent over /ws.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func encodeMessage(typ string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Data: data})
}

// Hub pushes censored game views to game watchers and the public game list
// to lobby watchers after every committed change.
type Hub struct {
	service  *GameService
	clock    quartz.Clock
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	watchers map[*Connection]struct{}
}

// NewHub creates a hub that reads views from service.
func NewHub(service *GameService, clock quartz.Clock, logger *log.Logger) *Hub {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Hub{
		service: service,
		clock:   clock,
		logger:  logger.WithPrefix("hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		watchers: make(map[*Connection]struct{}),
	}
}

// ServeWS upgrades a watcher. With game_uuid (and optionally player_uuid) it
// follows that game; with neither it follows the public lobby.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gameID, playerID := q.Get("game_uuid"), q.Get("player_uuid")

	var initial []byte
	switch {
	case gameID == "" && playerID != "":
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Kind: game.KindValidation.String(), Message: "player_uuid requires game_uuid"}})
		return
	case gameID == "":
		list, err := h.service.ListPublic(r.Context())
		if err == nil {
			initial, err = encodeMessage(MessageLobby, list)
		}
		if err != nil {
			h.logger.Error("Failed to build lobby snapshot", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	default:
		if code, msg := validateWatchIDs(gameID, playerID); code != 0 {
			writeJSON(w, code, errorBody{Error: errorDetail{Kind: game.KindValidation.String(), Message: msg}})
			return
		}
		view, err := h.service.View(r.Context(), gameID, playerID, 0)
		if err != nil {
			kind := game.KindOf(err)
			writeJSON(w, statusFor(kind), errorBody{Error: errorDetail{Kind: kind.String(), Message: err.Error()}})
			return
		}
		if initial, err = encodeMessage(MessageGame, view); err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	c := newConnection(ws, gameID, playerID, h.clock, h.logger.With("game", gameID))
	h.register(c)
	c.start()
	_ = c.Enqueue(initial)

	go func() {
		<-c.Done()
		h.unregister(c)
	}()
}

func validateWatchIDs(gameID, playerID string) (int, string) {
	if _, err := uuid.Parse(gameID); err != nil {
		return http.StatusBadRequest, "invalid game_uuid"
	}
	if playerID != "" {
		if _, err := uuid.Parse(playerID); err != nil {
			return http.StatusBadRequest, "invalid player_uuid"
		}
	}
	return 0, ""
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.watchers[c] = struct{}{}
	total := len(h.watchers)
	h.mu.Unlock()
	h.logger.Debug("Watcher connected", "game", c.gameID, "total", total)
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	_, ok := h.watchers[c]
	delete(h.watchers, c)
	total := len(h.watchers)
	h.mu.Unlock()
	if ok {
		h.logger.Debug("Watcher disconnected", "game", c.gameID, "total", total)
	}
}

// Watchers returns the number of connected watchers.
func (h *Hub) Watchers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Notify implements Notifier.
func (h *Hub) Notify(ctx context.Context, u game.Update) {
	g := u.After
	if g == nil {
		return
	}

	h.mu.RLock()
	var gameWatchers, lobbyWatchers []*Connection
	for c := range h.watchers {
		switch {
		case c.Lobby():
			lobbyWatchers = append(lobbyWatchers, c)
		case c.gameID == g.ID:
			gameWatchers = append(gameWatchers, c)
		}
	}
	h.mu.RUnlock()

	var resolved []byte
	if u.Archive != nil && len(gameWatchers) > 0 {
		var err error
		if resolved, err = encodeMessage(MessageRound, game.ViewOfRound(u.Archive, g)); err != nil {
			h.logger.Error("Failed to encode round", "game", g.ID, "round", u.Archive.RoundNumber, "error", err)
		}
	}

	for _, c := range gameWatchers {
		if resolved != nil {
			h.deliver(c, resolved)
		}
		viewer := ""
		if c.playerID != "" {
			if i := g.PlayerByID(c.playerID); i >= 0 {
				viewer = g.Players[i].Nickname
			}
		}
		data, err := encodeMessage(MessageGame, game.ViewFor(g, viewer))
		if err != nil {
			h.logger.Error("Failed to encode view", "game", g.ID, "error", err)
			continue
		}
		h.deliver(c, data)
	}

	wasPublic := u.Before != nil && u.Before.Public
	if len(lobbyWatchers) == 0 || !(g.Public || wasPublic) {
		return
	}
	list, err := h.service.ListPublic(ctx)
	if err != nil {
		h.logger.Error("Failed to list public games", "error", err)
		return
	}
	data, err := encodeMessage(MessageLobby, list)
	if err != nil {
		h.logger.Error("Failed to encode lobby", "error", err)
		return
	}
	for _, c := range lobbyWatchers {
		h.deliver(c, data)
	}
}

func (h *Hub) deliver(c *Connection, data []byte) {
	if err := c.Enqueue(data); err != nil {
		h.logger.Warn("Dropping watcher", "game", c.gameID, "error", err)
		_ = c.Close()
		h.unregister(c)
	}
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	watchers := h.watchers
	h.watchers = make(map[*Connection]struct{})
	h.mu.Unlock()
	for c := range watchers {
		_ = c.Close()
	}
}
