package game

import (
	"testing"

	"github.com/lox/blef/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(v deck.Value, s deck.Suit) deck.Card { return deck.NewCard(v, s) }

func TestEvaluateTruthTable(t *testing.T) {
	t.Parallel()

	sameSuitRun := func(s deck.Suit, from, to deck.Value) []deck.Card {
		var cards []deck.Card
		for v := from; v <= to; v++ {
			cards = append(cards, c(v, s))
		}
		return cards
	}

	tests := []struct {
		name  string
		id    int
		cards []deck.Card
		want  bool
	}{
		{"high card present", 3, []deck.Card{c(deck.Queen, deck.Hearts)}, true},
		{"high card absent", 5, []deck.Card{c(deck.King, deck.Hearts)}, false},
		{"high card empty pool", 0, nil, false},
		{"pair", 8, []deck.Card{c(deck.Jack, deck.Clubs), c(deck.Jack, deck.Spades)}, true},
		{"pair needs two", 8, []deck.Card{c(deck.Jack, deck.Clubs), c(deck.Ten, deck.Spades)}, false},
		{"two pairs", 14, []deck.Card{c(deck.Jack, deck.Clubs), c(deck.Jack, deck.Spades), c(deck.Ten, deck.Hearts), c(deck.Ten, deck.Clubs)}, true},
		{"two pairs missing low", 14, []deck.Card{c(deck.Jack, deck.Clubs), c(deck.Jack, deck.Spades), c(deck.Ten, deck.Hearts)}, false},
		{"small straight", 27, []deck.Card{c(deck.Nine, deck.Clubs), c(deck.Ten, deck.Hearts), c(deck.Jack, deck.Clubs), c(deck.Queen, deck.Spades), c(deck.King, deck.Diamonds)}, true},
		{"small straight gap", 27, []deck.Card{c(deck.Nine, deck.Clubs), c(deck.Ten, deck.Hearts), c(deck.Jack, deck.Clubs), c(deck.King, deck.Diamonds), c(deck.Ace, deck.Diamonds)}, false},
		{"big straight", 28, []deck.Card{c(deck.Ten, deck.Hearts), c(deck.Jack, deck.Clubs), c(deck.Queen, deck.Spades), c(deck.King, deck.Diamonds), c(deck.Ace, deck.Clubs)}, true},
		{"great straight", 29, []deck.Card{c(deck.Nine, deck.Spades), c(deck.Ten, deck.Hearts), c(deck.Jack, deck.Clubs), c(deck.Queen, deck.Spades), c(deck.King, deck.Diamonds), c(deck.Ace, deck.Clubs)}, true},
		{"great straight missing nine", 29, []deck.Card{c(deck.Ten, deck.Hearts), c(deck.Jack, deck.Clubs), c(deck.Queen, deck.Spades), c(deck.King, deck.Diamonds), c(deck.Ace, deck.Clubs)}, false},
		{"three of a kind", 33, []deck.Card{c(deck.Queen, deck.Clubs), c(deck.Queen, deck.Hearts), c(deck.Queen, deck.Spades)}, true},
		{"three of a kind short", 33, []deck.Card{c(deck.Queen, deck.Clubs), c(deck.Queen, deck.Hearts)}, false},
		{"full house", 36, []deck.Card{c(deck.Nine, deck.Clubs), c(deck.Nine, deck.Hearts), c(deck.Nine, deck.Spades), c(deck.Ten, deck.Clubs), c(deck.Ten, deck.Spades)}, true},
		{"full house reversed counts", 36, []deck.Card{c(deck.Nine, deck.Clubs), c(deck.Nine, deck.Hearts), c(deck.Ten, deck.Spades), c(deck.Ten, deck.Clubs), c(deck.Ten, deck.Hearts)}, false},
		{"colour", 67, []deck.Card{c(deck.Nine, deck.Diamonds), c(deck.Ten, deck.Diamonds), c(deck.Queen, deck.Diamonds), c(deck.King, deck.Diamonds), c(deck.Ace, deck.Diamonds)}, true},
		{"colour four cards", 67, []deck.Card{c(deck.Nine, deck.Diamonds), c(deck.Ten, deck.Diamonds), c(deck.Queen, deck.Diamonds), c(deck.King, deck.Diamonds)}, false},
		{"four of a kind", 75, []deck.Card{c(deck.Ace, deck.Clubs), c(deck.Ace, deck.Diamonds), c(deck.Ace, deck.Hearts), c(deck.Ace, deck.Spades)}, true},
		{"four of a kind short", 75, []deck.Card{c(deck.Ace, deck.Clubs), c(deck.Ace, deck.Diamonds), c(deck.Ace, deck.Hearts)}, false},
		{"small flush", 78, sameSuitRun(deck.Hearts, deck.Nine, deck.King), true},
		{"small flush other suit", 79, sameSuitRun(deck.Hearts, deck.Nine, deck.King), false},
		{"big flush", 80, sameSuitRun(deck.Clubs, deck.Ten, deck.Ace), true},
		{"big flush mixed suits", 80, append(sameSuitRun(deck.Clubs, deck.Ten, deck.King), c(deck.Ace, deck.Spades)), false},
		{"great flush", 87, sameSuitRun(deck.Spades, deck.Nine, deck.Ace), true},
		{"great flush not implied by big", 87, sameSuitRun(deck.Spades, deck.Ten, deck.Ace), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Evaluate(tt.id, tt.cards)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateCheckIsNotASet(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(CheckID, deck.Universe())
	require.ErrorIs(t, err, ErrInvalidClaim)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestEvaluateWholeDeckHoldsEverySet(t *testing.T) {
	t.Parallel()

	all := deck.Universe()
	for id := 0; id < CheckID; id++ {
		ok, err := Evaluate(id, all)
		require.NoError(t, err)
		if !ok {
			t.Errorf("set %d (%s) not found in the full deck", id, ActionName(id))
		}
	}
}
