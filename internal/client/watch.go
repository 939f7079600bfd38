package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/server"
)

// Event is one message from the watcher stream. Exactly one field is set.
// Round carries a just resolved round with every hand revealed.
type Event struct {
	View  *game.View
	Round *game.View
	Lobby []game.Summary
}

// Watcher receives pushed views over a websocket.
type Watcher struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
	logger *log.Logger

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

// Watch follows gameID, as playerID if it is set. An empty gameID follows
// the public lobby instead.
func (c *Client) Watch(ctx context.Context, gameID, playerID string) (*Watcher, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := url.Values{}
	if gameID != "" {
		q.Set("game_uuid", gameID)
	}
	if playerID != "" {
		q.Set("player_uuid", playerID)
	}
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			var envelope struct {
				Error APIError `json:"error"`
			}
			if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error.Kind != "" {
				envelope.Error.Status = resp.StatusCode
				return nil, &envelope.Error
			}
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	w := &Watcher{
		conn:   conn,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		logger: c.logger.With("game", gameID),
	}
	go w.readPump()
	return w, nil
}

// Events is closed when the stream ends; Err then reports why.
func (w *Watcher) Events() <-chan Event { return w.events }

// Err returns the error that ended the stream, or nil after a normal close.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close ends the stream.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		_ = w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = w.conn.Close()
	})
	return err
}

func (w *Watcher) readPump() {
	defer close(w.events)
	for {
		var msg server.Message
		if err := w.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				w.setErr(err)
			}
			return
		}

		var ev Event
		switch msg.Type {
		case server.MessageGame:
			var v game.View
			if err := json.Unmarshal(msg.Data, &v); err != nil {
				w.setErr(fmt.Errorf("decode view: %w", err))
				return
			}
			ev.View = &v
		case server.MessageRound:
			var v game.View
			if err := json.Unmarshal(msg.Data, &v); err != nil {
				w.setErr(fmt.Errorf("decode round: %w", err))
				return
			}
			ev.Round = &v
		case server.MessageLobby:
			if err := json.Unmarshal(msg.Data, &ev.Lobby); err != nil {
				w.setErr(fmt.Errorf("decode lobby: %w", err))
				return
			}
			if ev.Lobby == nil {
				ev.Lobby = []game.Summary{}
			}
		default:
			w.logger.Debug("Ignoring message", "type", msg.Type)
			continue
		}
		select {
		case w.events <- ev:
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}
