package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/gameid"
	"github.com/lox/blef/internal/randutil"
	"github.com/lox/blef/internal/store"
)

// ActiveWindow is how recently a game must have changed to count as active.
const ActiveWindow = 30 * time.Minute

// Notifier is told about every committed change.
type Notifier interface {
	Notify(ctx context.Context, u game.Update)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, u game.Update)

func (f NotifierFunc) Notify(ctx context.Context, u game.Update) { f(ctx, u) }

// AgentCatalog reports which agent names can be invited.
type AgentCatalog interface {
	Has(name string) bool
}

// ServiceConfig wires a GameService.
type ServiceConfig struct {
	Games    store.GameRepository
	Archives store.ArchiveRepository
	Agents   AgentCatalog
	Clock    quartz.Clock
	Rand     game.Rand
	// IDs issues game and player ids; defaults to one on Clock.
	IDs    *gameid.Generator
	Logger *log.Logger
}

// GameService loads games, applies session operations and commits the
// result with optimistic concurrency. It never retries a conflicting save;
// callers decide whether to try again.
type GameService struct {
	games    store.GameRepository
	archives store.ArchiveRepository
	agents   AgentCatalog
	clock    quartz.Clock
	rng      game.Rand
	ids      *gameid.Generator
	logger   *log.Logger

	mu        sync.RWMutex
	notifiers []Notifier
}

// NewGameService creates a service. Games and Archives are required.
func NewGameService(cfg ServiceConfig) *GameService {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.NewLocked(nil)
	}
	if cfg.IDs == nil {
		cfg.IDs = gameid.NewGenerator(cfg.Clock, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &GameService{
		games:    cfg.Games,
		archives: cfg.Archives,
		agents:   cfg.Agents,
		clock:    cfg.Clock,
		rng:      cfg.Rand,
		ids:      cfg.IDs,
		logger:   cfg.Logger.WithPrefix("games"),
	}
}

// Subscribe registers n for every future committed change.
func (s *GameService) Subscribe(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

func (s *GameService) publish(ctx context.Context, u game.Update) {
	s.mu.RLock()
	notifiers := append([]Notifier(nil), s.notifiers...)
	s.mu.RUnlock()
	for _, n := range notifiers {
		n.Notify(ctx, u)
	}
}

// CreateGame stores a new empty game and returns its id.
func (s *GameService) CreateGame(ctx context.Context) (string, error) {
	g := game.New(s.ids.Game())
	g.LastModified = s.clock.Now()
	if _, err := s.games.Create(ctx, g); err != nil {
		return "", err
	}
	s.logger.Info("Game created", "game", g.ID)
	s.publish(ctx, game.Update{After: g, Events: []game.Event{{Type: game.EventGameCreated}}})
	return g.ID, nil
}

// apply runs op against the stored game and commits the outcome. The
// archive, if any, is written before the live record under a key derived
// from the loaded version, and the key is committed with the game. An
// archive whose save lost a race is therefore never referenced.
func (s *GameService) apply(ctx context.Context, gameID string, op func(*game.Game) (*game.Outcome, error)) (*game.Outcome, error) {
	before, version, err := s.games.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	out, err := op(before)
	if err != nil {
		return nil, err
	}
	if out.Noop {
		return out, nil
	}

	now := s.clock.Now()
	out.Game.LastModified = now
	if out.Archive != nil {
		out.Archive.ArchivedAt = now
		out.Archive.Key = store.ArchiveKey(version)
		out.Game.ArchiveKeys = append(out.Game.ArchiveKeys, out.Archive.Key)
		if err := s.archives.SaveRound(ctx, out.Archive); err != nil {
			return nil, err
		}
	}
	if _, err := s.games.Save(ctx, out.Game, version); err != nil {
		return nil, err
	}

	logger := s.logger.With("game", gameID)
	for _, e := range out.Events {
		logger.Debug("Game event", "type", e.Type, "round", e.Round, "player", e.Player)
	}
	if out.Archive != nil {
		res := out.Archive.Resolution
		logger.Info("Round resolved", "round", out.Archive.RoundNumber, "loser", res.Loser, "set_exists", res.SetExists, "eliminated", res.Eliminated)
	}

	s.publish(ctx, game.Update{Before: before, After: out.Game, Archive: out.Archive, Events: out.Events})
	return out, nil
}

// JoinGame seats nickname and returns the new player's id.
func (s *GameService) JoinGame(ctx context.Context, gameID, nickname string) (string, error) {
	playerID := s.ids.Player()
	if _, err := s.apply(ctx, gameID, func(g *game.Game) (*game.Outcome, error) {
		return game.Join(g, playerID, nickname)
	}); err != nil {
		return "", err
	}
	return playerID, nil
}

// InviteAgent seats a configured agent and returns its nickname.
func (s *GameService) InviteAgent(ctx context.Context, gameID, adminID, agentName string) (string, error) {
	if s.agents == nil || !s.agents.Has(agentName) {
		return "", fmt.Errorf("%w: %q", game.ErrUnknownAgent, agentName)
	}
	playerID := s.ids.Player()
	out, err := s.apply(ctx, gameID, func(g *game.Game) (*game.Outcome, error) {
		return game.InviteAgent(g, adminID, playerID, agentName)
	})
	if err != nil {
		return "", err
	}
	return out.Game.Players[len(out.Game.Players)-1].Nickname, nil
}

// MakePublic lists the game in the lobby. It reports whether anything changed.
func (s *GameService) MakePublic(ctx context.Context, gameID, adminID string) (bool, error) {
	out, err := s.apply(ctx, gameID, func(g *game.Game) (*game.Outcome, error) {
		return game.MakePublic(g, adminID)
	})
	if err != nil {
		return false, err
	}
	return !out.Noop, nil
}

// StartGame deals the first round.
func (s *GameService) StartGame(ctx context.Context, gameID, adminID string) error {
	_, err := s.apply(ctx, gameID, func(g *game.Game) (*game.Outcome, error) {
		return game.Start(g, adminID, s.rng)
	})
	return err
}

// Play submits an action for the player with playerID.
func (s *GameService) Play(ctx context.Context, gameID, playerID string, actionID int) error {
	_, err := s.apply(ctx, gameID, func(g *game.Game) (*game.Outcome, error) {
		return game.Play(g, playerID, actionID, s.rng)
	})
	return err
}

// View returns the censored game as seen by playerID ("" for spectators).
// round 0 means the current round.
func (s *GameService) View(ctx context.Context, gameID, playerID string, round int) (game.View, error) {
	g, _, err := s.games.Load(ctx, gameID)
	if err != nil {
		return game.View{}, err
	}
	viewer := ""
	if playerID != "" {
		i := g.PlayerByID(playerID)
		if i < 0 {
			return game.View{}, game.ErrPlayerNotFound
		}
		viewer = g.Players[i].Nickname
	}

	// The last round of a finished game is resolved, so it is served from
	// the archive like any earlier round.
	if round == 0 || (round == g.RoundNumber && g.Status != game.StatusFinished) {
		return game.ViewFor(g, viewer), nil
	}
	if round < 1 || round > g.RoundNumber {
		return game.View{}, fmt.Errorf("%w: %d is outside 1..%d", game.ErrInvalidRound, round, g.RoundNumber)
	}
	key, ok := g.ArchiveKey(round)
	if !ok {
		return game.View{}, fmt.Errorf("round %d of %s: %w", round, gameID, game.ErrRoundNotFound)
	}
	a, err := s.archives.LoadRound(ctx, gameID, round, key)
	if err != nil {
		return game.View{}, err
	}
	return game.ViewOfRound(a, g), nil
}

// Snapshot returns the uncensored game. It is meant for in-process
// collaborators such as the agent dispatcher, never for clients.
func (s *GameService) Snapshot(ctx context.Context, gameID string) (*game.Game, error) {
	g, _, err := s.games.Load(ctx, gameID)
	return g, err
}

// ListPublic returns recently active public games, newest first.
func (s *GameService) ListPublic(ctx context.Context) ([]game.Summary, error) {
	games, err := s.recent(ctx)
	if err != nil {
		return nil, err
	}
	out := []game.Summary{}
	for _, g := range games {
		if g.Public {
			out = append(out, game.Summarize(g))
		}
	}
	return out, nil
}

// CountActive returns the number of games changed within ActiveWindow.
func (s *GameService) CountActive(ctx context.Context) (int, error) {
	games, err := s.recent(ctx)
	if err != nil {
		return 0, err
	}
	return len(games), nil
}

// AwaitingAgents returns recently active running games in which an agent
// holds the turn.
func (s *GameService) AwaitingAgents(ctx context.Context) ([]string, error) {
	games, err := s.recent(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, g := range games {
		if p, ok := g.Current(); ok && g.Status == game.StatusRunning && p.Agent != "" {
			ids = append(ids, g.ID)
		}
	}
	return ids, nil
}

func (s *GameService) recent(ctx context.Context) ([]*game.Game, error) {
	all, err := s.games.List(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.clock.Now().Add(-ActiveWindow)
	var recent []*game.Game
	for _, g := range all {
		if g.LastModified.After(cutoff) {
			recent = append(recent, g)
		}
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].LastModified.After(recent[j].LastModified) })
	return recent, nil
}
