// Package client talks to a blef server: the HTTP game API and the /ws
// watcher stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blef/internal/game"
)

// APIError is an error envelope returned by the server.
type APIError struct {
	Status  int
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// IsKind reports whether err is an APIError of the given kind, such as
// "out_of_turn".
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Client calls the game API of one server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.WithPrefix("client"),
	}
}

// BaseURL returns the server root.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Kind == "" {
			return &APIError{Status: resp.StatusCode, Kind: "internal", Message: resp.Status}
		}
		envelope.Error.Status = resp.StatusCode
		return &envelope.Error
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func gamePath(gameID string, rest ...string) string {
	return "/games/" + url.PathEscape(gameID) + strings.Join(rest, "")
}

// CreateGame creates a game and returns its id.
func (c *Client) CreateGame(ctx context.Context) (string, error) {
	var resp struct {
		GameID string `json:"game_uuid"`
	}
	if err := c.do(ctx, http.MethodPost, "/games", nil, &resp); err != nil {
		return "", err
	}
	return resp.GameID, nil
}

// JoinGame joins gameID and returns the new player's secret id.
func (c *Client) JoinGame(ctx context.Context, gameID, nickname string) (string, error) {
	var resp struct {
		PlayerID string `json:"player_uuid"`
	}
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/join"), map[string]string{"nickname": nickname}, &resp)
	if err != nil {
		return "", err
	}
	return resp.PlayerID, nil
}

// StartGame deals the first round.
func (c *Client) StartGame(ctx context.Context, gameID, adminID string) error {
	return c.do(ctx, http.MethodPost, gamePath(gameID, "/start"), map[string]string{"admin_uuid": adminID}, nil)
}

type messageResponse struct {
	Message string `json:"message"`
}

// MakePublic lists the game in the lobby and returns the server's message.
func (c *Client) MakePublic(ctx context.Context, gameID, adminID string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/public"), map[string]string{"admin_uuid": adminID}, &resp)
	return resp.Message, err
}

// InviteAgent seats a configured agent and returns the server's message.
func (c *Client) InviteAgent(ctx context.Context, gameID, adminID, agent string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/agents"),
		map[string]string{"admin_uuid": adminID, "agent_name": agent}, &resp)
	return resp.Message, err
}

// Play submits an action for playerID.
func (c *Client) Play(ctx context.Context, gameID, playerID string, actionID int) error {
	return c.do(ctx, http.MethodPost, gamePath(gameID, "/play"),
		map[string]any{"player_uuid": playerID, "action_id": actionID}, nil)
}

// Game fetches a view of gameID. playerID may be empty for a spectator
// view; round 0 means the current round.
func (c *Client) Game(ctx context.Context, gameID, playerID string, round int) (game.View, error) {
	q := url.Values{}
	if playerID != "" {
		q.Set("player_uuid", playerID)
	}
	if round > 0 {
		q.Set("round", strconv.Itoa(round))
	}
	path := gamePath(gameID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var v game.View
	err := c.do(ctx, http.MethodGet, path, nil, &v)
	return v, err
}

// ListPublic returns the recently active public games.
func (c *Client) ListPublic(ctx context.Context) ([]game.Summary, error) {
	var list []game.Summary
	err := c.do(ctx, http.MethodGet, "/games", nil, &list)
	return list, err
}

// CountActive returns the number of recently active games.
func (c *Client) CountActive(ctx context.Context) (int, error) {
	var resp struct {
		Active int `json:"active_games"`
	}
	err := c.do(ctx, http.MethodGet, "/games/active", nil, &resp)
	return resp.Active, err
}
