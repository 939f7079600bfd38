package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/store"
)

const maxBodyBytes = 64 << 10

// params merges a request's JSON body, path values and query string. Later
// sources win.
type params map[string]string

func readParams(r *http.Request, pathKeys ...string) (params, error) {
	p := params{}
	if r.Body != nil && r.ContentLength != 0 {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, &requestError{msg: fmt.Sprintf("reading body: %v", err)}
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			var raw map[string]json.RawMessage
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, &requestError{msg: "request body must be a JSON object"}
			}
			for k, v := range raw {
				var s string
				if err := json.Unmarshal(v, &s); err == nil {
					p[k] = s
					continue
				}
				p[k] = strings.TrimSpace(string(v))
			}
		}
	}
	for _, k := range pathKeys {
		if v := r.PathValue(k); v != "" {
			p[k] = v
		}
	}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p, nil
}

func (p params) uuid(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return "", &requestError{msg: fmt.Sprintf("%s missing - please supply it", key)}
	}
	if _, err := uuid.Parse(v); err != nil {
		return "", fmt.Errorf("%w: %s %q", game.ErrInvalidID, key, v)
	}
	return v, nil
}

func (p params) optionalUUID(key string) (string, error) {
	if p[key] == "" {
		return "", nil
	}
	return p.uuid(key)
}

func (p params) integer(key string) (int, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return 0, &requestError{msg: fmt.Sprintf("%s missing - please supply it", key)}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &requestError{msg: fmt.Sprintf("%s must be an integer", key)}
	}
	return n, nil
}

// requestError is a malformed request that maps to a validation failure.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func statusFor(kind game.Kind) int {
	switch kind {
	case game.KindValidation, game.KindIllegalAction:
		return http.StatusBadRequest
	case game.KindUnauthorized:
		return http.StatusForbidden
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindWrongStatus, game.KindOutOfTurn, game.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := game.KindOf(err)
	msg := err.Error()

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		kind = game.KindValidation
	}
	if kind == game.KindInternal {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	} else {
		s.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, statusFor(kind), errorBody{Error: errorDetail{Kind: kind.String(), Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Client may have gone away
}

type handlerFunc func(r *http.Request) (any, error)

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return store.RetryOnConflict(ctx, s.cfg.ConflictRetries+1, fn)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", s.handle(s.createGame))
	mux.HandleFunc("GET /games", s.handle(s.listPublicGames))
	mux.HandleFunc("GET /games/active", s.handle(s.countActiveGames))
	mux.HandleFunc("GET /games/{game_uuid}", s.handle(s.getGame))
	mux.HandleFunc("POST /games/{game_uuid}/join", s.handle(s.joinGame))
	mux.HandleFunc("POST /games/{game_uuid}/start", s.handle(s.startGame))
	mux.HandleFunc("POST /games/{game_uuid}/public", s.handle(s.makePublic))
	mux.HandleFunc("POST /games/{game_uuid}/agents", s.handle(s.inviteAgent))
	mux.HandleFunc("POST /games/{game_uuid}/play", s.handle(s.play))
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("GET /health", s.handleHealth)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) createGame(r *http.Request) (any, error) {
	id, err := s.service.CreateGame(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]string{"game_uuid": id}, nil
}

func (s *Server) listPublicGames(r *http.Request) (any, error) {
	return s.service.ListPublic(r.Context())
}

func (s *Server) countActiveGames(r *http.Request) (any, error) {
	n, err := s.service.CountActive(r.Context())
	if err != nil {
		return nil, err
	}
	return map[string]int{"active_games": n}, nil
}

func (s *Server) getGame(r *http.Request) (any, error) {
	p, err := readParams(r, "game_uuid")
	if err != nil {
		return nil, err
	}
	gameID, err := p.uuid("game_uuid")
	if err != nil {
		return nil, err
	}
	playerID, err := p.optionalUUID("player_uuid")
	if err != nil {
		return nil, err
	}
	round := 0
	if p["round"] != "" {
		if round, err = p.integer("round"); err != nil {
			return nil, fmt.Errorf("%w: %v", game.ErrInvalidRound, err)
		}
		if round < 1 {
			return nil, fmt.Errorf("%w: rounds start at 1", game.ErrInvalidRound)
		}
	}
	return s.service.View(r.Context(), gameID, playerID, round)
}

func (s *Server) joinGame(r *http.Request) (any, error) {
	p, err := readParams(r, "game_uuid")
	if err != nil {
		return nil, err
	}
	gameID, err := p.uuid("game_uuid")
	if err != nil {
		return nil, err
	}
	nickname, ok := p["nickname"]
	if !ok {
		return nil, &requestError{msg: "nickname missing - please supply it"}
	}
	var playerID string
	err = s.retry(r.Context(), func(ctx context.Context) error {
		playerID, err = s.service.JoinGame(ctx, gameID, nickname)
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"player_uuid": playerID}, nil
}

func (s *Server) startGame(r *http.Request) (any, error) {
	p, err := readParams(r, "game_uuid")
	if err != nil {
		return nil, err
	}
	gameID, err := p.uuid("game_uuid")
	if err != nil {
		return nil, err
	}
	adminID, err := p.uuid("admin_uuid")
	if err != nil {
		return nil, err
	}
	err = s.retry(r.Context(), func(ctx context.Context) error {
		return s.service.StartGame(ctx, gameID, adminID)
	})
	if err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

func (s *Server) makePublic(r *http.Request) (any, error) {
	p, err := readParams(r, "game_uuid")
	if err != nil {
		return nil, err
	}
	gameID, err := p.uuid("game_uuid")
	if err != nil {
		return nil, err
	}
	adminID, err := p.uuid("admin_uuid")
	if err != nil {
		return nil, err
	}
	var changed bool
	err = s.retry(r.Context(), func(ctx context.Context) error {
		changed, err = s.service.MakePublic(ctx, gameID, adminID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return messageResponse{Message: "Request redundant - game already public"}, nil
	}
	return messageResponse{Message: "Game made public"}, nil
}

func (s *Server) inviteAgent(r *http.Request) (any, error) {
	p, err := readParams(r, "game_uuid")
	if err != nil {
		return nil, err
	}
	gameID, err := p.uuid("game_uuid")
	if err != nil {
		return nil, err
	}
	adminID, err := p.uuid("admin_uuid")
	if err != nil {
		return nil, err
	}
	agentName := p["agent_name"]
	if agentName == "" {
		return nil, &requestError{msg: "agent_name missing - please supply it"}
	}
	var nickname string
	err = s.retry(r.Context(), func(ctx context.Context) error {
		nickname, err = s.service.InviteAgent(ctx, gameID, adminID, agentName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messageResponse{Message: nickname + " joined the game"}, nil
}

func (s *Server) play(r *http.Request) (any, error) {
	p, err := readParams(r, "game_uuid")
	if err != nil {
		return nil, err
	}
	gameID, err := p.uuid("game_uuid")
	if err != nil {
		return nil, err
	}
	playerID, err := p.uuid("player_uuid")
	if err != nil {
		return nil, err
	}
	actionID, err := p.integer("action_id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrOutOfRange, err)
	}
	err = s.retry(r.Context(), func(ctx context.Context) error {
		return s.service.Play(ctx, gameID, playerID, actionID)
	})
	if err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}
