package game

import (
	"testing"

	"github.com/lox/blef/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   int
		want Action
		name string
	}{
		{0, Action{Pattern: HighCard, Value: deck.Nine}, "High card (9)"},
		{5, Action{Pattern: HighCard, Value: deck.Ace}, "High card (A)"},
		{6, Action{Pattern: Pair, Value: deck.Nine}, "Pair of 9s"},
		{12, Action{Pattern: TwoPair, Value: deck.Ten, Second: deck.Nine}, "Two pairs (10s and 9s)"},
		{14, Action{Pattern: TwoPair, Value: deck.Jack, Second: deck.Ten}, "Two pairs (Js and 10s)"},
		{26, Action{Pattern: TwoPair, Value: deck.Ace, Second: deck.King}, "Two pairs (As and Ks)"},
		{27, Action{Pattern: SmallStraight}, "Small straight (9-K)"},
		{28, Action{Pattern: BigStraight}, "Big straight (10-A)"},
		{29, Action{Pattern: GreatStraight}, "Great straight (9-A)"},
		{30, Action{Pattern: ThreeOfAKind, Value: deck.Nine}, "Three 9s"},
		{36, Action{Pattern: FullHouse, Value: deck.Nine, Second: deck.Ten}, "Full house (three 9s, two 10s)"},
		{41, Action{Pattern: FullHouse, Value: deck.Ten, Second: deck.Nine}, "Full house (three 10s, two 9s)"},
		{65, Action{Pattern: FullHouse, Value: deck.Ace, Second: deck.King}, "Full house (three As, two Ks)"},
		{66, Action{Pattern: Colour, Suit: deck.Clubs}, "Colour (clubs)"},
		{69, Action{Pattern: Colour, Suit: deck.Spades}, "Colour (spades)"},
		{70, Action{Pattern: FourOfAKind, Value: deck.Nine}, "Four 9s"},
		{76, Action{Pattern: SmallFlush, Suit: deck.Clubs}, "Small flush (clubs)"},
		{81, Action{Pattern: BigFlush, Suit: deck.Diamonds}, "Big flush (diamonds)"},
		{87, Action{Pattern: GreatFlush, Suit: deck.Spades}, "Great flush (spades)"},
		{88, Action{Pattern: Check}, "Check"},
	}

	for _, tt := range tests {
		got, err := Describe(tt.id)
		require.NoError(t, err)
		tt.want.ID = tt.id
		assert.Equal(t, tt.want, got, "id %d", tt.id)
		assert.Equal(t, tt.name, got.String(), "id %d", tt.id)
	}
}

func TestCatalogIDsMatchPositions(t *testing.T) {
	t.Parallel()

	all := Catalog()
	require.Len(t, all, NumActions)
	for i, a := range all {
		if a.ID != i {
			t.Errorf("catalog[%d].ID = %d", i, a.ID)
		}
	}
}

func TestDescribeOutOfRange(t *testing.T) {
	t.Parallel()

	for _, id := range []int{-1, 89, 1000} {
		_, err := Describe(id)
		require.ErrorIs(t, err, ErrOutOfRange)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Empty(t, ActionName(id))
	}
}
