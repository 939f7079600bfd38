// Package agent runs computer players. A Dispatcher watches committed game
// changes and, whenever an agent holds the turn, asks that agent's Decider
// for an action and submits it.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lox/blef/internal/game"
)

var (
	// ErrUnavailable indicates the decision service could not be reached or
	// answered with a server error.
	ErrUnavailable = errors.New("agent: decision service unavailable")

	// ErrBadDecision indicates the decision service answered with something
	// other than an action id.
	ErrBadDecision = errors.New("agent: malformed decision")
)

// Decider picks the next action for the player whose view it is given. The
// view is censored for that player, so it only holds their own hand.
type Decider interface {
	Decide(ctx context.Context, view game.View) (int, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, view game.View) (int, error)

// Decide implements Decider.
func (f DeciderFunc) Decide(ctx context.Context, view game.View) (int, error) {
	return f(ctx, view)
}

// Decision is the body returned by a decision service.
type Decision struct {
	ActionID *int `json:"action_id"`
}

// HTTPDecider asks an external service for decisions by POSTing the view as
// JSON and reading back {"action_id": n}.
type HTTPDecider struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPDecider creates a decider that calls url. A zero timeout leaves the
// deadline to the caller's context.
func NewHTTPDecider(url string, timeout time.Duration) *HTTPDecider {
	return &HTTPDecider{
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Decide implements Decider.
func (d *HTTPDecider) Decide(ctx context.Context, view game.View) (int, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	body, err := json.Marshal(view)
	if err != nil {
		return 0, fmt.Errorf("marshal view: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: status %d: %s", ErrBadDecision, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decision Decision
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&decision); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadDecision, err)
	}
	if decision.ActionID == nil {
		return 0, fmt.Errorf("%w: action_id missing", ErrBadDecision)
	}
	return *decision.ActionID, nil
}
