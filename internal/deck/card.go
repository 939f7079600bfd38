package deck

import (
	"fmt"
	"strings"
)

// Value is the face value of a card. The Blef deck only carries 9 to Ace.
type Value int

const (
	Nine Value = iota
	Ten
	Jack
	Queen
	King
	Ace
)

// NumValues is the number of distinct values in the deck.
const NumValues = 6

// String returns the short name of a value (e.g. "9", "10", "J")
func (v Value) String() string {
	switch v {
	case Nine:
		return "9"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Plural returns the name used in claims such as "Pair of Js".
func (v Value) Plural() string {
	return v.String() + "s"
}

// Valid reports whether v is one of the six deck values.
func (v Value) Valid() bool {
	return v >= Nine && v <= Ace
}

// Suit represents a card suit
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// NumSuits is the number of suits in the deck.
const NumSuits = 4

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Name returns the lower-case English name of the suit.
func (s Suit) Name() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= Clubs && s <= Spades
}

// Card represents a playing card. The JSON field names match the records
// the game API has always exposed.
type Card struct {
	Value Value `json:"value"`
	Suit  Suit  `json:"colour"`
}

// NewCard creates a new card
func NewCard(value Value, suit Suit) Card {
	return Card{Value: value, Suit: suit}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Value, c.Suit)
}

// Index returns a dense index in [0, 24) for the card.
func (c Card) Index() int {
	return int(c.Value)*NumSuits + int(c.Suit)
}

// FormatCards renders cards separated by spaces.
func FormatCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
