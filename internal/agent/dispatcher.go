package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/store"
)

// Games is the part of the game service the dispatcher drives.
type Games interface {
	Snapshot(ctx context.Context, gameID string) (*game.Game, error)
	Play(ctx context.Context, gameID, playerID string, actionID int) error
}

// Options tune a Dispatcher.
type Options struct {
	Workers int
	// Timeout bounds each decision. A decider that misses it forfeits the
	// turn to the fallback action.
	Timeout         time.Duration
	ConflictRetries int
	Clock           quartz.Clock
	Logger          *log.Logger
}

// Dispatcher plays agent turns. It is notified of every committed change and
// keeps at most one pending job per game, so a burst of updates collapses
// into a single decision against the latest state.
type Dispatcher struct {
	games    Games
	registry *Registry
	opts     Options
	clock    quartz.Clock
	logger   *log.Logger

	mu      sync.Mutex
	queue   []string
	pending map[string]bool
	wake    chan struct{}
}

// NewDispatcher creates a dispatcher. Call Run to start its workers.
func NewDispatcher(games Games, registry *Registry, opts Options) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ConflictRetries < 0 {
		opts.ConflictRetries = 0
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Dispatcher{
		games:    games,
		registry: registry,
		opts:     opts,
		clock:    opts.Clock,
		logger:   opts.Logger.WithPrefix("agents"),
		pending:  make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
}

// Notify queues a decision when the update leaves an agent to act.
func (d *Dispatcher) Notify(_ context.Context, u game.Update) {
	g := u.After
	if g == nil || g.Status != game.StatusRunning {
		return
	}
	p, ok := g.Current()
	if !ok || p.Agent == "" {
		return
	}
	d.enqueue(g.ID)
}

func (d *Dispatcher) enqueue(gameID string) {
	d.mu.Lock()
	if !d.pending[gameID] {
		d.pending[gameID] = true
		d.queue = append(d.queue, gameID)
	}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) next(ctx context.Context) (string, bool) {
	for {
		d.mu.Lock()
		if len(d.queue) > 0 {
			id := d.queue[0]
			d.queue = d.queue[1:]
			delete(d.pending, id)
			more := len(d.queue) > 0
			d.mu.Unlock()
			if more {
				select {
				case d.wake <- struct{}{}:
				default:
				}
			}
			return id, true
		}
		d.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false
		case <-d.wake:
		}
	}
}

// Kick queues a decision for gameID regardless of any update, for games
// that were already waiting on an agent when the process started.
func (d *Dispatcher) Kick(gameID string) {
	d.enqueue(gameID)
}

// Pending returns the number of games waiting for a decision.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Run processes jobs until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Starting agent workers", "workers", d.opts.Workers, "agents", d.registry.Names())
	g, ctx := errgroup.WithContext(ctx)
	for range d.opts.Workers {
		g.Go(func() error {
			for {
				gameID, ok := d.next(ctx)
				if !ok {
					return nil
				}
				d.playTurn(ctx, gameID)
			}
		})
	}
	return g.Wait()
}

// playTurn makes one move for the agent currently to act in gameID, if any.
func (d *Dispatcher) playTurn(ctx context.Context, gameID string) {
	logger := d.logger.With("game", gameID)

	g, err := d.games.Snapshot(ctx, gameID)
	if err != nil {
		logger.Error("Failed to load game", "error", err)
		return
	}
	if g.Status != game.StatusRunning {
		return
	}
	p, ok := g.Current()
	if !ok || p.Agent == "" {
		return
	}
	logger = logger.With("player", p.Nickname, "agent", p.Agent)

	actionID := fallbackAction(g.History)
	if decider, ok := d.registry.Decider(p.Agent); !ok {
		logger.Error("No decider for agent, playing fallback")
	} else {
		id, err := d.decide(ctx, decider, game.ViewFor(g, p.Nickname))
		switch {
		case err != nil:
			logger.Warn("Decision failed, playing fallback", "error", err, "fallback", game.ActionName(actionID))
		case !game.IsLegal(id, g.History):
			logger.Warn("Agent chose an illegal action, playing fallback", "action_id", id, "fallback", game.ActionName(actionID))
		default:
			actionID = id
		}
	}

	err = store.RetryOnConflict(ctx, d.opts.ConflictRetries+1, func(ctx context.Context) error {
		return d.games.Play(ctx, gameID, p.ID, actionID)
	})
	switch {
	case err == nil:
		logger.Debug("Agent played", "action", game.ActionName(actionID))
	case errors.Is(err, context.Canceled):
	case errors.Is(err, game.ErrOutOfTurn), errors.Is(err, game.ErrWrongStatus), errors.Is(err, game.ErrIllegalAction):
		// The game moved on while deciding; a fresh job follows the change.
		logger.Debug("Agent move superseded", "error", err)
	default:
		logger.Error("Failed to submit agent move", "error", err)
	}
}

// decide runs decider under the decision deadline.
func (d *Dispatcher) decide(ctx context.Context, decider Decider, view game.View) (int, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	timer := d.clock.AfterFunc(d.opts.Timeout, func() {
		cancel(context.DeadlineExceeded)
	}, "agent", "decide")
	defer timer.Stop()

	id, err := decider.Decide(ctx, view)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return 0, cause
		}
		return 0, err
	}
	if ctx.Err() != nil {
		return 0, context.Cause(ctx)
	}
	return id, nil
}

// fallbackAction is played when an agent cannot decide: check when allowed,
// otherwise the lowest claim.
func fallbackAction(history []game.ActionRecord) int {
	if len(history) > 0 {
		return game.CheckID
	}
	return 0
}
