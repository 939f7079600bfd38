package game

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lox/blef/internal/deck"
	"github.com/lox/blef/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runningGame returns a started game with one seat per count, named p0, p1,
// ... with ids id-0, id-1, ...; p0 is to act.
func runningGame(t *testing.T, counts ...int) *Game {
	t.Helper()
	g := New("game-1")
	for i, n := range counts {
		g.Players = append(g.Players, Player{ID: fmt.Sprintf("id-%d", i), Nickname: fmt.Sprintf("p%d", i), CardCount: n})
	}
	g.AdminNickname = "p0"
	g.Status = StatusRunning
	g.RoundNumber = 1
	g.MaxCards = MaxCardsFor(len(counts))
	g.CurrentPlayer = "p0"
	require.NoError(t, dealRound(g, randutil.New(1)))
	return g
}

func lobby(t *testing.T, nicknames ...string) *Game {
	t.Helper()
	g := New("game-1")
	for i, n := range nicknames {
		out, err := Join(g, fmt.Sprintf("id-%d", i), n)
		require.NoError(t, err)
		g = out.Game
	}
	return g
}

func TestJoin(t *testing.T) {
	t.Parallel()

	g := New("game-1")
	out, err := Join(g, "id-0", "alice")
	require.NoError(t, err)

	assert.Empty(t, g.Players, "input snapshot must not change")
	require.Len(t, out.Game.Players, 1)
	assert.Equal(t, "alice", out.Game.AdminNickname)
	assert.Equal(t, 0, out.Game.Players[0].CardCount)
	assert.Equal(t, []Event{{Type: EventPlayerJoined, Player: "alice"}}, out.Events)

	out, err = Join(out.Game, "id-1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", out.Game.AdminNickname, "admin stays with the first joiner")
}

func TestJoinErrors(t *testing.T) {
	t.Parallel()

	full := lobby(t, "a", "b", "c", "d", "e", "f", "g", "h")
	started := runningGame(t, 1, 1)

	tests := []struct {
		name     string
		g        *Game
		nickname string
		want     error
	}{
		{"leading digit", lobby(t), "1abc", ErrInvalidNickname},
		{"punctuation", lobby(t), "a-b", ErrInvalidNickname},
		{"empty", lobby(t), "", ErrInvalidNickname},
		{"too long", lobby(t), "a" + strings.Repeat("b", MaxNicknameLength), ErrInvalidNickname},
		{"duplicate", lobby(t, "alice"), "alice", ErrDuplicateNickname},
		{"room full", full, "zed", ErrRoomFull},
		{"started", started, "zed", ErrWrongStatus},
	}
	for _, tt := range tests {
		_, err := Join(tt.g, "id-x", tt.nickname)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}

	_, err := Join(lobby(t), "id-x", "a_"+strings.Repeat("b", MaxNicknameLength-2))
	assert.NoError(t, err, "nicknames of exactly the maximum length are accepted")
}

func TestAgentNickname(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "random_(AI)", AgentNickname("random", nil))
	assert.Equal(t, "random_2_(AI)", AgentNickname("random", []string{"random_(AI)"}))
	assert.Equal(t, "random_3_(AI)", AgentNickname("random", []string{"random_(AI)", "random_2_(AI)", "bob"}))
	assert.Equal(t, "random_2_(AI)", AgentNickname("random", []string{"random_(AI)", "random_3_(AI)"}))
}

func TestInviteAgent(t *testing.T) {
	t.Parallel()

	g := lobby(t, "alice")

	_, err := InviteAgent(g, "id-nope", "agent-1", "random")
	require.ErrorIs(t, err, ErrUnauthorized)

	out, err := InviteAgent(g, "id-0", "agent-1", "random")
	require.NoError(t, err)
	out, err = InviteAgent(out.Game, "id-0", "agent-2", "random")
	require.NoError(t, err)

	players := out.Game.Players
	require.Len(t, players, 3)
	assert.Equal(t, Player{ID: "agent-1", Nickname: "random_(AI)", Agent: "random"}, players[1])
	assert.Equal(t, Player{ID: "agent-2", Nickname: "random_2_(AI)", Agent: "random"}, players[2])
	assert.Equal(t, "alice", out.Game.AdminNickname)

	_, err = InviteAgent(lobby(t, "a", "b", "c", "d", "e", "f", "g", "h"), "id-0", "agent-x", "random")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestMakePublic(t *testing.T) {
	t.Parallel()

	g := lobby(t, "alice", "bob")

	_, err := MakePublic(g, "id-1")
	require.ErrorIs(t, err, ErrUnauthorized)

	out, err := MakePublic(g, "id-0")
	require.NoError(t, err)
	assert.True(t, out.Game.Public)
	assert.False(t, out.Noop)

	again, err := MakePublic(out.Game, "id-0")
	require.NoError(t, err)
	assert.True(t, again.Noop)
	assert.Empty(t, again.Events)

	_, err = MakePublic(runningGame(t, 1, 1), "id-0")
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestStart(t *testing.T) {
	t.Parallel()

	g := lobby(t, "alice", "bob", "carol")

	_, err := Start(g, "id-2", randutil.New(1))
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = Start(lobby(t, "alice"), "id-0", randutil.New(1))
	require.ErrorIs(t, err, ErrTooFewPlayers)
	assert.Equal(t, KindWrongStatus, KindOf(err))

	out, err := Start(g, "id-0", randutil.New(1))
	require.NoError(t, err)

	next := out.Game
	assert.Equal(t, StatusNotStarted, g.Status)
	assert.Equal(t, StatusRunning, next.Status)
	assert.Equal(t, 1, next.RoundNumber)
	assert.Equal(t, 8, next.MaxCards)
	assert.Equal(t, next.Players[0].Nickname, next.CurrentPlayer)
	assert.Empty(t, next.History)
	require.Len(t, next.Hands, 3)
	for i, p := range next.Players {
		assert.Equal(t, 1, p.CardCount)
		assert.Equal(t, p.Nickname, next.Hands[i].Nickname)
		assert.Len(t, next.Hands[i].Cards, 1)
	}

	_, err = Start(next, "id-0", randutil.New(1))
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestMaxCardsFor(t *testing.T) {
	t.Parallel()

	want := map[int]int{2: 11, 3: 8, 4: 6, 5: 4, 6: 4, 7: 3, 8: 3}
	for n, max := range want {
		assert.Equal(t, max, MaxCardsFor(n), "%d players", n)
		assert.LessOrEqual(t, n*max, deck.Size, "%d players", n)
	}
}

func TestArrangeSeatsSpreadsAgents(t *testing.T) {
	t.Parallel()

	players := []Player{
		{Nickname: "h1"}, {Nickname: "h2"}, {Nickname: "h3"}, {Nickname: "h4"},
		{Nickname: "bot_(AI)", Agent: "random"}, {Nickname: "bot_2_(AI)", Agent: "random"},
	}

	for seed := int64(0); seed < 50; seed++ {
		seated := ArrangeSeats(players, randutil.New(seed))
		require.Len(t, seated, len(players))

		var agentSeats []int
		seen := map[string]bool{}
		for i, p := range seated {
			seen[p.Nickname] = true
			if p.Agent != "" {
				agentSeats = append(agentSeats, i)
			}
		}
		assert.Len(t, seen, len(players), "every player seated exactly once")
		require.Len(t, agentSeats, 2)
		gap := (agentSeats[1] - agentSeats[0] + len(players)) % len(players)
		assert.Equal(t, 3, gap, "two agents at a table of six sit opposite each other (seed %d)", seed)
	}
}

func TestPlayValidation(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 1, 1)

	_, err := Play(g, "id-1", 3, randutil.New(1))
	assert.ErrorIs(t, err, ErrOutOfTurn)

	_, err = Play(g, "id-0", CheckID, randutil.New(1))
	assert.ErrorIs(t, err, ErrIllegalAction, "check cannot open a round")

	_, err = Play(g, "id-0", 89, randutil.New(1))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Play(g, "id-9", 3, randutil.New(1))
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = Play(lobby(t, "alice", "bob"), "id-0", 3, randutil.New(1))
	assert.ErrorIs(t, err, ErrWrongStatus)

	out, err := Play(g, "id-0", 3, randutil.New(1))
	require.NoError(t, err)
	assert.Empty(t, g.History, "input snapshot must not change")
	assert.Equal(t, []ActionRecord{{Player: "p0", ActionID: 3}}, out.Game.History)
	assert.Equal(t, "p1", out.Game.CurrentPlayer)
	assert.Nil(t, out.Archive)

	_, err = Play(out.Game, "id-1", 3, randutil.New(1))
	assert.ErrorIs(t, err, ErrIllegalAction, "equal claim")
}

func TestTwoPlayerRound(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 1, 1)
	g.Hands = []Hand{
		{Nickname: "p0", Cards: []deck.Card{c(deck.Nine, deck.Clubs)}},
		{Nickname: "p1", Cards: []deck.Card{c(deck.Ten, deck.Diamonds)}},
	}

	out, err := Play(g, "id-0", 5, randutil.New(7)) // high card ace
	require.NoError(t, err)
	out, err = Play(out.Game, "id-1", CheckID, randutil.New(7))
	require.NoError(t, err)

	next := out.Game
	require.NotNil(t, out.Archive)
	res := out.Archive.Resolution
	assert.False(t, res.SetExists)
	assert.Equal(t, "p0", res.Loser)
	assert.Equal(t, "p1", res.Checker)
	assert.Equal(t, ActionRecord{Player: "p0", ActionID: 5}, res.Claim)
	assert.False(t, res.Eliminated)

	assert.Equal(t, 1, out.Archive.RoundNumber)
	assert.Equal(t, []Player{
		{ID: "id-0", Nickname: "p0", CardCount: 1},
		{ID: "id-1", Nickname: "p1", CardCount: 1},
	}, out.Archive.Players, "archive keeps the counts of the completed round")
	assert.Len(t, out.Archive.History, 2)

	assert.Equal(t, StatusRunning, next.Status)
	assert.Equal(t, 2, next.RoundNumber)
	assert.Equal(t, "p0", next.CurrentPlayer, "the loser opens the next round")
	assert.Empty(t, next.History)
	assert.Equal(t, 2, next.Players[0].CardCount)
	assert.Equal(t, 1, next.Players[1].CardCount)
	assert.Len(t, next.HandOf("p0"), 2)
	assert.Len(t, next.HandOf("p1"), 1)

	types := make([]EventType, len(out.Events))
	for i, e := range out.Events {
		types[i] = e.Type
	}
	assert.Equal(t, []EventType{EventActionPlayed, EventRoundResolved}, types)
}

func TestCheckerLosesWhenSetExists(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 1, 1, 1)
	g.Hands = []Hand{
		{Nickname: "p0", Cards: []deck.Card{c(deck.King, deck.Clubs)}},
		{Nickname: "p1", Cards: []deck.Card{c(deck.King, deck.Hearts)}},
		{Nickname: "p2", Cards: []deck.Card{c(deck.Nine, deck.Hearts)}},
	}

	out, err := Submit(g, "p0", 10, randutil.New(1)) // pair of kings
	require.NoError(t, err)
	out, err = Submit(out.Game, "p1", CheckID, randutil.New(1))
	require.NoError(t, err)

	res := out.Archive.Resolution
	assert.True(t, res.SetExists, "the checker's own hand counts towards the pool")
	assert.Equal(t, "p1", res.Loser)
	assert.Equal(t, "p1", out.Game.CurrentPlayer)
	assert.Equal(t, 2, out.Game.Players[1].CardCount)
}

func TestClaimantEliminated(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 8, 1, 1)
	g.Hands = []Hand{
		{Nickname: "p0", Cards: []deck.Card{c(deck.Nine, deck.Clubs)}},
		{Nickname: "p1", Cards: []deck.Card{c(deck.Nine, deck.Hearts)}},
		{Nickname: "p2", Cards: []deck.Card{c(deck.Ten, deck.Hearts)}},
	}

	out, err := Submit(g, "p0", 5, randutil.New(1))
	require.NoError(t, err)
	out, err = Submit(out.Game, "p1", CheckID, randutil.New(1))
	require.NoError(t, err)

	next := out.Game
	assert.True(t, out.Archive.Resolution.Eliminated)
	assert.Equal(t, 0, next.Players[0].CardCount)
	assert.Equal(t, StatusRunning, next.Status)
	assert.Equal(t, "p1", next.CurrentPlayer, "the checker opens after eliminating the claimant")
	assert.Nil(t, next.HandOf("p0"))
	assert.Len(t, next.Hands, 2)
}

func TestCheckerEliminated(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 1, 8, 1)
	g.Hands = []Hand{
		{Nickname: "p0", Cards: []deck.Card{c(deck.Nine, deck.Clubs)}},
		{Nickname: "p1", Cards: []deck.Card{c(deck.Nine, deck.Hearts)}},
		{Nickname: "p2", Cards: []deck.Card{c(deck.Ten, deck.Hearts)}},
	}

	out, err := Submit(g, "p0", 0, randutil.New(1)) // high card nine
	require.NoError(t, err)
	out, err = Submit(out.Game, "p1", CheckID, randutil.New(1))
	require.NoError(t, err)

	next := out.Game
	assert.Equal(t, "p1", out.Archive.Resolution.Loser)
	assert.True(t, out.Archive.Resolution.Eliminated)
	assert.Equal(t, 0, next.Players[1].CardCount)
	assert.Equal(t, "p2", next.CurrentPlayer, "play passes to the seat after the eliminated checker")
}

func TestGameFinishes(t *testing.T) {
	t.Parallel()

	g := runningGame(t, 11, 1)
	g.Hands = []Hand{
		{Nickname: "p0", Cards: []deck.Card{c(deck.Nine, deck.Clubs)}},
		{Nickname: "p1", Cards: []deck.Card{c(deck.Ten, deck.Hearts)}},
	}

	out, err := Submit(g, "p0", 75, randutil.New(1)) // four aces
	require.NoError(t, err)
	out, err = Submit(out.Game, "p1", CheckID, randutil.New(1))
	require.NoError(t, err)

	next := out.Game
	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, 1, next.ActivePlayers())
	assert.Equal(t, "p1", next.Winner())
	assert.Empty(t, next.CurrentPlayer)
	assert.Equal(t, 1, next.RoundNumber, "no new round after the game ends")
	require.NotNil(t, out.Archive, "the final round is archived too")
	assert.Equal(t, EventGameFinished, out.Events[len(out.Events)-1].Type)
	assert.Equal(t, "p1", out.Events[len(out.Events)-1].Player)

	_, err = Play(next, "id-1", 3, randutil.New(1))
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestCardTotalNeverExceedsDeck(t *testing.T) {
	t.Parallel()

	rng := randutil.New(42)
	for n := MinPlayers; n <= MaxPlayers; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("player%d", i)
		}
		g := lobby(t, names...)
		out, err := Start(g, "id-0", rng)
		require.NoError(t, err)
		g = out.Game

		for step := 0; g.Status == StatusRunning && step < 5000; step++ {
			assert.LessOrEqual(t, g.TotalCards(), deck.Size)
			cur, ok := g.Current()
			require.True(t, ok)
			require.True(t, cur.Active(), "current player must be active")

			id := CheckID
			if last, ok := g.LastAction(); !ok || (last.ActionID < CheckID-1 && rng.IntN(3) > 0) {
				lo := 0
				if ok {
					lo = last.ActionID + 1
				}
				id = lo + rng.IntN(min(CheckID, lo+4)-lo)
			}
			out, err := Submit(g, cur.Nickname, id, rng)
			require.NoError(t, err)
			g = out.Game
		}
		assert.Equal(t, StatusFinished, g.Status, "%d players", n)
		assert.NotEmpty(t, g.Winner())
	}
}
