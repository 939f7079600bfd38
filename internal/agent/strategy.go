package agent

import (
	"context"
	"sync"

	"github.com/lox/blef/internal/deck"
	"github.com/lox/blef/internal/game"
)

// Built in strategy names.
const (
	StrategyRandom   = "random"
	StrategyCautious = "cautious"
)

// randomWindow bounds how far above the last claim the random strategy bids.
const randomWindow = 6

// Random bids a random claim a little above the last one and checks about a
// quarter of the time when it may.
type Random struct {
	mu  sync.Mutex
	rng deck.RandSource
}

// NewRandom creates a random strategy drawing from rng.
func NewRandom(rng deck.RandSource) *Random {
	return &Random{rng: rng}
}

func (r *Random) intN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Decide implements Decider.
func (r *Random) Decide(_ context.Context, view game.View) (int, error) {
	lowest := 0
	if n := len(view.History); n > 0 {
		lowest = view.History[n-1].ActionID + 1
		if lowest >= game.CheckID || r.intN(4) == 0 {
			return game.CheckID, nil
		}
	}
	span := min(randomWindow, game.CheckID-lowest)
	return lowest + r.intN(span), nil
}

// Cautious only claims what its own hand already shows and checks any claim
// its hand does not support. A claim its own hand proves is never checked;
// it bids one higher instead.
type Cautious struct{}

// Decide implements Decider.
func (Cautious) Decide(_ context.Context, view game.View) (int, error) {
	own := ownHand(view)

	lowest := 0
	if n := len(view.History); n > 0 {
		last := view.History[n-1].ActionID
		if ok, err := game.Evaluate(last, own); err != nil || !ok {
			return game.CheckID, nil
		}
		lowest = last + 1
	}

	for id := lowest; id < game.CheckID; id++ {
		if ok, err := game.Evaluate(id, own); err == nil && ok {
			return id, nil
		}
	}
	return lowest, nil
}

func ownHand(view game.View) []deck.Card {
	for _, h := range view.Hands {
		if h.Nickname == view.CurrentPlayer {
			return h.Cards
		}
	}
	return nil
}
