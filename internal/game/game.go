package game

import (
	"time"

	"github.com/lox/blef/internal/deck"
)

// Status is the lifecycle state of a game. The string values are part of
// the wire format.
type Status string

const (
	StatusNotStarted Status = "Not started"
	StatusRunning    Status = "Running"
	StatusFinished   Status = "Finished"
)

const (
	// MaxPlayers is the size of a game room.
	MaxPlayers = 8
	// MinPlayers is the number of players needed to start.
	MinPlayers = 2
)

// Player is a seat at the table. A CardCount of zero in a running game means
// the player has been eliminated but keeps their seat.
type Player struct {
	ID        string `json:"player_uuid"`
	Nickname  string `json:"nickname"`
	CardCount int    `json:"n_cards"`
	Agent     string `json:"ai_agent,omitempty"`
}

// Active reports whether the player still takes part in rounds.
func (p Player) Active() bool { return p.CardCount > 0 }

// Hand holds the cards dealt to one player for the current round.
type Hand struct {
	Nickname string      `json:"nickname"`
	Cards    []deck.Card `json:"cards"`
}

// ActionRecord is one entry of the round history.
type ActionRecord struct {
	Player   string `json:"player"`
	ActionID int    `json:"action_id"`
}

// Game is the full, uncensored game record.
type Game struct {
	ID            string         `json:"game_uuid"`
	AdminNickname string         `json:"admin_nickname,omitempty"`
	Public        bool           `json:"public"`
	Status        Status         `json:"status"`
	RoundNumber   int            `json:"round_number"`
	MaxCards      int            `json:"max_cards"`
	Players       []Player       `json:"players"`
	Hands         []Hand         `json:"hands"`
	CurrentPlayer string         `json:"cp_nickname,omitempty"`
	History       []ActionRecord `json:"history"`
	LastModified  time.Time      `json:"last_modified"`
	// ArchiveKeys holds the archive key of every resolved round, oldest
	// first. Only archives listed here were committed with the game.
	ArchiveKeys []string `json:"archive_keys,omitempty"`
}

// New returns an empty game waiting for players.
func New(id string) *Game {
	return &Game{
		ID:      id,
		Status:  StatusNotStarted,
		Players: []Player{},
		Hands:   []Hand{},
		History: []ActionRecord{},
	}
}

// Clone returns a deep copy of g.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Players = append([]Player{}, g.Players...)
	c.History = append([]ActionRecord{}, g.History...)
	c.Hands = cloneHands(g.Hands)
	c.ArchiveKeys = append([]string(nil), g.ArchiveKeys...)
	return &c
}

func cloneHands(hands []Hand) []Hand {
	out := make([]Hand, len(hands))
	for i, h := range hands {
		out[i] = Hand{Nickname: h.Nickname, Cards: append([]deck.Card{}, h.Cards...)}
	}
	return out
}

// PlayerByID returns the seat index of the player with id, or -1.
func (g *Game) PlayerByID(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PlayerByNickname returns the seat index of nickname, or -1.
func (g *Game) PlayerByNickname(nickname string) int {
	for i, p := range g.Players {
		if p.Nickname == nickname {
			return i
		}
	}
	return -1
}

// ActivePlayers returns the number of players with cards.
func (g *Game) ActivePlayers() int {
	n := 0
	for _, p := range g.Players {
		if p.Active() {
			n++
		}
	}
	return n
}

// Winner returns the nickname of the last active player of a finished game.
func (g *Game) Winner() string {
	if g.Status != StatusFinished {
		return ""
	}
	for _, p := range g.Players {
		if p.Active() {
			return p.Nickname
		}
	}
	return ""
}

// ArchiveKey returns the key under which round was archived.
func (g *Game) ArchiveKey(round int) (string, bool) {
	if round < 1 || round > len(g.ArchiveKeys) {
		return "", false
	}
	return g.ArchiveKeys[round-1], true
}

// Current returns the player whose turn it is.
func (g *Game) Current() (Player, bool) {
	if g.CurrentPlayer == "" {
		return Player{}, false
	}
	i := g.PlayerByNickname(g.CurrentPlayer)
	if i < 0 {
		return Player{}, false
	}
	return g.Players[i], true
}

// LastAction returns the most recent history entry.
func (g *Game) LastAction() (ActionRecord, bool) {
	if len(g.History) == 0 {
		return ActionRecord{}, false
	}
	return g.History[len(g.History)-1], true
}

// HandOf returns the cards dealt to nickname this round.
func (g *Game) HandOf(nickname string) []deck.Card {
	for _, h := range g.Hands {
		if h.Nickname == nickname {
			return h.Cards
		}
	}
	return nil
}

// TotalCards is the sum of all card counts.
func (g *Game) TotalCards() int {
	total := 0
	for _, p := range g.Players {
		total += p.CardCount
	}
	return total
}

// MaxCardsFor returns the card limit for a table of n players.
func MaxCardsFor(n int) int {
	if n <= MinPlayers {
		return 11
	}
	return deck.Size / n
}
