package game

import (
	"fmt"

	"github.com/lox/blef/internal/deck"
)

// Evaluate reports whether the set named by id can be assembled from cards.
// Check is not a set and yields ErrInvalidClaim.
func Evaluate(id int, cards []deck.Card) (bool, error) {
	a, err := Describe(id)
	if err != nil {
		return false, err
	}

	var (
		byValue [deck.NumValues]int
		bySuit  [deck.NumSuits]int
		present [deck.NumSuits][deck.NumValues]bool
	)
	for _, c := range cards {
		if !c.Value.Valid() || !c.Suit.Valid() {
			return false, fmt.Errorf("invalid card %+v", c)
		}
		byValue[c.Value]++
		bySuit[c.Suit]++
		present[c.Suit][c.Value] = true
	}

	valuesPresent := func(from, to deck.Value) bool {
		for v := from; v <= to; v++ {
			if byValue[v] == 0 {
				return false
			}
		}
		return true
	}
	suitRun := func(s deck.Suit, from, to deck.Value) bool {
		for v := from; v <= to; v++ {
			if !present[s][v] {
				return false
			}
		}
		return true
	}

	switch a.Pattern {
	case HighCard:
		return byValue[a.Value] >= 1, nil
	case Pair:
		return byValue[a.Value] >= 2, nil
	case TwoPair:
		return byValue[a.Value] >= 2 && byValue[a.Second] >= 2, nil
	case SmallStraight:
		return valuesPresent(deck.Nine, deck.King), nil
	case BigStraight:
		return valuesPresent(deck.Ten, deck.Ace), nil
	case GreatStraight:
		return valuesPresent(deck.Nine, deck.Ace), nil
	case ThreeOfAKind:
		return byValue[a.Value] >= 3, nil
	case FullHouse:
		return byValue[a.Value] >= 3 && byValue[a.Second] >= 2, nil
	case Colour:
		return bySuit[a.Suit] >= 5, nil
	case FourOfAKind:
		return byValue[a.Value] >= 4, nil
	case SmallFlush:
		return suitRun(a.Suit, deck.Nine, deck.King), nil
	case BigFlush:
		return suitRun(a.Suit, deck.Ten, deck.Ace), nil
	case GreatFlush:
		return suitRun(a.Suit, deck.Nine, deck.Ace), nil
	case Check:
		return false, ErrInvalidClaim
	}
	return false, fmt.Errorf("unhandled pattern %v", a.Pattern)
}
