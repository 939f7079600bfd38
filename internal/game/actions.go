package game

import (
	"fmt"

	"github.com/lox/blef/internal/deck"
)

// Pattern is the family a claim belongs to.
type Pattern int

const (
	HighCard Pattern = iota
	Pair
	TwoPair
	SmallStraight
	BigStraight
	GreatStraight
	ThreeOfAKind
	FullHouse
	Colour
	FourOfAKind
	SmallFlush
	BigFlush
	GreatFlush
	Check
)

var patternNames = [...]string{
	HighCard:      "high card",
	Pair:          "pair",
	TwoPair:       "two pairs",
	SmallStraight: "small straight",
	BigStraight:   "big straight",
	GreatStraight: "great straight",
	ThreeOfAKind:  "three of a kind",
	FullHouse:     "full house",
	Colour:        "colour",
	FourOfAKind:   "four of a kind",
	SmallFlush:    "small flush",
	BigFlush:      "big flush",
	GreatFlush:    "great flush",
	Check:         "check",
}

func (p Pattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return "unknown"
	}
	return patternNames[p]
}

const (
	// CheckID is the action id of a check.
	CheckID = 88
	// NumActions is the size of the action catalog.
	NumActions = CheckID + 1
)

// Action is the decoded form of an action id.
//
// For value patterns Value (and Second for two pairs and full houses) carry
// the card values. For Colour and the flushes Suit carries the suit.
type Action struct {
	ID      int
	Pattern Pattern
	Value   deck.Value
	Second  deck.Value
	Suit    deck.Suit
}

var catalog = buildCatalog()

func buildCatalog() []Action {
	actions := make([]Action, 0, NumActions)
	add := func(a Action) {
		a.ID = len(actions)
		actions = append(actions, a)
	}

	for v := deck.Nine; v <= deck.Ace; v++ {
		add(Action{Pattern: HighCard, Value: v})
	}
	for v := deck.Nine; v <= deck.Ace; v++ {
		add(Action{Pattern: Pair, Value: v})
	}
	for hi := deck.Ten; hi <= deck.Ace; hi++ {
		for lo := deck.Nine; lo < hi; lo++ {
			add(Action{Pattern: TwoPair, Value: hi, Second: lo})
		}
	}
	add(Action{Pattern: SmallStraight})
	add(Action{Pattern: BigStraight})
	add(Action{Pattern: GreatStraight})
	for v := deck.Nine; v <= deck.Ace; v++ {
		add(Action{Pattern: ThreeOfAKind, Value: v})
	}
	for three := deck.Nine; three <= deck.Ace; three++ {
		for two := deck.Nine; two <= deck.Ace; two++ {
			if two != three {
				add(Action{Pattern: FullHouse, Value: three, Second: two})
			}
		}
	}
	for s := deck.Clubs; s <= deck.Spades; s++ {
		add(Action{Pattern: Colour, Suit: s})
	}
	for v := deck.Nine; v <= deck.Ace; v++ {
		add(Action{Pattern: FourOfAKind, Value: v})
	}
	for _, p := range []Pattern{SmallFlush, BigFlush, GreatFlush} {
		for s := deck.Clubs; s <= deck.Spades; s++ {
			add(Action{Pattern: p, Suit: s})
		}
	}
	add(Action{Pattern: Check})

	if len(actions) != NumActions {
		panic(fmt.Sprintf("action catalog has %d entries, want %d", len(actions), NumActions))
	}
	return actions
}

// Describe returns the action behind id.
func Describe(id int) (Action, error) {
	if id < 0 || id >= NumActions {
		return Action{}, fmt.Errorf("%w: got %d", ErrOutOfRange, id)
	}
	return catalog[id], nil
}

// ActionName returns a human readable label for id, or "" if id is out of range.
func ActionName(id int) string {
	a, err := Describe(id)
	if err != nil {
		return ""
	}
	return a.String()
}

func (a Action) String() string {
	switch a.Pattern {
	case HighCard:
		return fmt.Sprintf("High card (%s)", a.Value)
	case Pair:
		return fmt.Sprintf("Pair of %s", a.Value.Plural())
	case TwoPair:
		return fmt.Sprintf("Two pairs (%s and %s)", a.Value.Plural(), a.Second.Plural())
	case SmallStraight:
		return "Small straight (9-K)"
	case BigStraight:
		return "Big straight (10-A)"
	case GreatStraight:
		return "Great straight (9-A)"
	case ThreeOfAKind:
		return fmt.Sprintf("Three %s", a.Value.Plural())
	case FullHouse:
		return fmt.Sprintf("Full house (three %s, two %s)", a.Value.Plural(), a.Second.Plural())
	case Colour:
		return fmt.Sprintf("Colour (%s)", a.Suit.Name())
	case FourOfAKind:
		return fmt.Sprintf("Four %s", a.Value.Plural())
	case SmallFlush:
		return fmt.Sprintf("Small flush (%s)", a.Suit.Name())
	case BigFlush:
		return fmt.Sprintf("Big flush (%s)", a.Suit.Name())
	case GreatFlush:
		return fmt.Sprintf("Great flush (%s)", a.Suit.Name())
	case Check:
		return "Check"
	default:
		return "Unknown"
	}
}

// Catalog returns every action in id order.
func Catalog() []Action {
	return append([]Action(nil), catalog...)
}
