package tui

import (
	"io"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blef/internal/client"
	"github.com/lox/blef/internal/deck"
	"github.com/lox/blef/internal/game"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func testOptions() Options {
	return Options{Logger: log.New(io.Discard)}
}

func running(round int, history ...game.ActionRecord) *game.View {
	return &game.View{
		GameID:        "0192f000-0000-7000-8000-000000000001",
		AdminNickname: "alice",
		Status:        game.StatusRunning,
		RoundNumber:   round,
		MaxCards:      11,
		Players: []game.SeatView{
			{Nickname: "alice", CardCount: 1},
			{Nickname: "bob", CardCount: 2},
		},
		Hands:         []game.Hand{{Nickname: "alice", Cards: []deck.Card{deck.NewCard(deck.King, deck.Hearts)}}},
		CurrentPlayer: "alice",
		History:       history,
	}
}

func send(m *Model, v *game.View) {
	m.Update(eventMsg(client.Event{View: v}))
}

func joined(lines []string) string { return strings.Join(lines, "\n") }

func TestParseAction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"check", game.CheckID},
		{"Check", game.CheckID},
		{"pair of kings", 10},
		{"Pair of Ks", 10},
		{"high card (a)", 5},
		{"two pairs (tens and nines)", 12},
		{"great flush spades", 87},
		{"full house three nines, two tens", 36},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"89", "-1", "pair of sevens", ""} {
		_, err := ParseAction(bad)
		assert.Error(t, err, bad)
	}
}

func TestModelLogsProgress(t *testing.T) {
	t.Parallel()
	m := New(nil, testOptions())

	lobby := running(0)
	lobby.Status = game.StatusNotStarted
	lobby.Players = lobby.Players[:1]
	lobby.Hands = nil
	send(m, lobby)

	withBob := *lobby
	withBob.Players = running(1).Players
	send(m, &withBob)

	send(m, running(1))
	send(m, running(1, game.ActionRecord{Player: "alice", ActionID: 6}))
	send(m, running(1, game.ActionRecord{Player: "alice", ActionID: 6}, game.ActionRecord{Player: "bob", ActionID: 10}))

	out := joined(m.Lines())
	assert.Contains(t, out, "Watching game")
	assert.Contains(t, out, "bob joined")
	assert.Contains(t, out, "Game started")
	assert.Contains(t, out, "Round 1")
	assert.Contains(t, out, "alice: Pair of 9s")
	assert.Contains(t, out, "bob: Pair of Ks")
	assert.Equal(t, 1, strings.Count(out, "alice: Pair of 9s"), "history is only logged once")
}

func resolvedRound(round int) *game.View {
	return &game.View{
		RoundNumber: round,
		Hands: []game.Hand{
			{Nickname: "alice", Cards: []deck.Card{deck.NewCard(deck.King, deck.Hearts)}},
			{Nickname: "bob", Cards: []deck.Card{deck.NewCard(deck.Nine, deck.Clubs)}},
		},
		Resolution: &game.Resolution{
			Claim:     game.ActionRecord{Player: "alice", ActionID: 10},
			Checker:   "bob",
			SetExists: false,
			Loser:     "alice",
		},
	}
}

func TestModelLogsPushedRound(t *testing.T) {
	t.Parallel()
	m := New(nil, testOptions())
	send(m, running(1, game.ActionRecord{Player: "alice", ActionID: 10}))

	m.Update(eventMsg(client.Event{Round: resolvedRound(1)}))
	send(m, running(2))

	out := joined(m.Lines())
	assert.Contains(t, out, "Round 1: bob checked alice's Pair of Ks, which does not exist")
	assert.Contains(t, out, "alice takes another card")
	assert.Contains(t, out, "Round 2")
	assert.Less(t, strings.Index(out, "Round 1: bob"), strings.Index(out, "Round 2"))
}

func TestModelFetchesResolvedRoundOnConnect(t *testing.T) {
	t.Parallel()
	var fetched int
	opts := testOptions()
	opts.FetchRound = func(round int) (game.View, error) {
		fetched = round
		return *resolvedRound(round), nil
	}
	m := New(nil, opts)

	cmd := m.fetchResolved(client.Event{View: running(2)})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 1, fetched)
	assert.Contains(t, joined(m.Lines()), "Round 1: bob checked alice's Pair of Ks, which does not exist")

	finished := running(4)
	finished.Status = game.StatusFinished
	cmd = m.fetchResolved(client.Event{View: finished})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 4, fetched, "a finished game shows its deciding round")

	send(m, running(2))
	assert.Nil(t, m.fetchResolved(client.Event{View: running(3)}), "later rounds are pushed")
	assert.Nil(t, m.fetchResolved(client.Event{Lobby: []game.Summary{}}))
}

func TestModelSubmitsClaims(t *testing.T) {
	t.Parallel()
	var played []int
	opts := testOptions()
	opts.Play = func(id int) error {
		played = append(played, id)
		return nil
	}
	m := New(nil, opts)

	cmd := m.submit("pair of aces")
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, []int{11}, played)
	assert.Empty(t, m.status)

	assert.Nil(t, m.submit("royal flush"))
	assert.Contains(t, m.status, "unknown action")

	spectator := New(nil, testOptions())
	assert.Nil(t, spectator.submit("check"))
}

func TestModelStreamClosed(t *testing.T) {
	t.Parallel()
	events := make(chan client.Event)
	close(events)
	m := New(events, testOptions())

	msg := m.waitForEvent()()
	assert.IsType(t, streamClosedMsg{}, msg)
	m.Update(msg)
	assert.Contains(t, joined(m.Lines()), "Connection closed")
}

func TestModelView(t *testing.T) {
	t.Parallel()
	m := New(nil, testOptions())
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	send(m, running(3, game.ActionRecord{Player: "bob", ActionID: 30}))

	out := m.View()
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "Round 3, max 11 cards")
	assert.Contains(t, out, "> alice *")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "Three 9s")
	assert.Contains(t, out, deck.NewCard(deck.King, deck.Hearts).String())
	assert.NotContains(t, out, "\x1b[", "ascii profile renders without escapes")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.View())
}

func TestModelLobbyView(t *testing.T) {
	t.Parallel()
	m := New(nil, testOptions())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(eventMsg(client.Event{Lobby: []game.Summary{{
		GameID:  "0192f000-0000-7000-8000-000000000001",
		Status:  game.StatusNotStarted,
		Players: []string{"alice", "bob"},
	}}}))

	out := m.View()
	assert.Contains(t, out, "Public games")
	assert.Contains(t, out, "0192f000")
	assert.Contains(t, out, "2 players")
}
