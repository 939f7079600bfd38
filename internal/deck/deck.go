package deck

import (
	"errors"
	"fmt"
)

// Size is the number of cards in a Blef deck.
const Size = NumValues * NumSuits

// ErrDeckExhausted is returned when more cards are requested than the deck holds.
var ErrDeckExhausted = errors.New("deck exhausted")

// RandSource is the randomness a deal needs. *rand.Rand from math/rand/v2
// satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Universe returns all 24 cards ordered by value then suit.
func Universe() []Card {
	cards := make([]Card, 0, Size)
	for v := Nine; v <= Ace; v++ {
		for s := Clubs; s <= Spades; s++ {
			cards = append(cards, NewCard(v, s))
		}
	}
	return cards
}

// Deal draws sum(counts) cards without replacement and hands them out in
// order, counts[i] cards to the i-th player.
func Deal(counts []int, rng RandSource) ([][]Card, error) {
	total := 0
	for i, n := range counts {
		if n < 0 {
			return nil, fmt.Errorf("negative card count %d for seat %d", n, i)
		}
		total += n
	}
	if total > Size {
		return nil, fmt.Errorf("%w: %d cards requested, deck holds %d", ErrDeckExhausted, total, Size)
	}

	cards := Universe()
	// Partial Fisher-Yates: only the first total positions need to be random.
	for i := 0; i < total; i++ {
		j := i + rng.IntN(Size-i)
		cards[i], cards[j] = cards[j], cards[i]
	}

	hands := make([][]Card, len(counts))
	next := 0
	for i, n := range counts {
		hands[i] = append([]Card(nil), cards[next:next+n]...)
		next += n
	}
	return hands, nil
}
