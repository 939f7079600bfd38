package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLegal(t *testing.T) {
	t.Parallel()

	history := []ActionRecord{{Player: "a", ActionID: 10}}
	tests := []struct {
		name    string
		id      int
		history []ActionRecord
		want    bool
	}{
		{"opening claim", 0, nil, true},
		{"check cannot open", CheckID, nil, false},
		{"negative", -1, nil, false},
		{"beyond check", 89, history, false},
		{"higher claim", 11, history, true},
		{"equal claim", 10, history, false},
		{"lower claim", 9, history, false},
		{"check after claim", CheckID, history, true},
	}
	for _, tt := range tests {
		if got := IsLegal(tt.id, tt.history); got != tt.want {
			t.Errorf("%s: IsLegal(%d) = %v, want %v", tt.name, tt.id, got, tt.want)
		}
	}
}

func TestNextActivePlayer(t *testing.T) {
	t.Parallel()

	players := []Player{
		{Nickname: "a", CardCount: 1},
		{Nickname: "b", CardCount: 0},
		{Nickname: "c", CardCount: 2},
		{Nickname: "d", CardCount: 1},
	}

	next, ok := NextActivePlayer(players, "a")
	assert.True(t, ok)
	assert.Equal(t, "c", next.Nickname, "eliminated players are skipped")

	next, ok = NextActivePlayer(players, "d")
	assert.True(t, ok)
	assert.Equal(t, "a", next.Nickname, "seating wraps around")

	next, ok = NextActivePlayer(players, "b")
	assert.True(t, ok)
	assert.Equal(t, "c", next.Nickname, "an eliminated current player still has a successor")

	_, ok = NextActivePlayer([]Player{{Nickname: "a", CardCount: 1}, {Nickname: "b"}}, "a")
	assert.False(t, ok)
}

func TestHistoryStaysStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 1, 1, 1)
	ids := []int{3, 7, 7, 2, 20}
	accepted := 0
	for _, id := range ids {
		actor := g.CurrentPlayer
		if _, err := submit(g, actor, id); err == nil {
			accepted++
		}
	}
	assert.Equal(t, 3, accepted)
	for i := 1; i < len(g.History); i++ {
		assert.Greater(t, g.History[i].ActionID, g.History[i-1].ActionID)
	}
}
