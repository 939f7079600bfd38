package game

import (
	"fmt"
	"time"

	"github.com/lox/blef/internal/deck"
)

// Rand is the randomness the session needs for dealing and seating.
type Rand interface {
	deck.RandSource
	Shuffle(n int, swap func(i, j int))
}

// Resolution describes how a check was settled.
type Resolution struct {
	Claim      ActionRecord `json:"claim"`
	Checker    string       `json:"checker"`
	SetExists  bool         `json:"set_exists"`
	Loser      string       `json:"loser"`
	Eliminated bool         `json:"eliminated"`
}

// RoundArchive is the immutable record of a completed round. Players are
// captured as they were during the round, before the loser's card was added.
type RoundArchive struct {
	GameID      string         `json:"game_uuid"`
	RoundNumber int            `json:"round_number"`
	Status      Status         `json:"status"`
	MaxCards    int            `json:"max_cards"`
	Players     []Player       `json:"players"`
	Hands       []Hand         `json:"hands"`
	History     []ActionRecord `json:"history"`
	Resolution  Resolution     `json:"resolution"`
	ArchivedAt  time.Time      `json:"archived_at"`
	// Key distinguishes attempts to resolve the same round. Only the key
	// recorded in the committed game is ever read back.
	Key string `json:"key"`
}

// pooledCards returns every card dealt this round.
func (g *Game) pooledCards() []deck.Card {
	var cards []deck.Card
	for _, h := range g.Hands {
		cards = append(cards, h.Cards...)
	}
	return cards
}

// dealRound deals each active player CardCount cards.
func dealRound(g *Game, rng deck.RandSource) error {
	var (
		counts []int
		seats  []int
	)
	for i, p := range g.Players {
		if p.Active() {
			counts = append(counts, p.CardCount)
			seats = append(seats, i)
		}
	}
	dealt, err := deck.Deal(counts, rng)
	if err != nil {
		return fmt.Errorf("dealing round %d: %w", g.RoundNumber, err)
	}
	g.Hands = make([]Hand, len(dealt))
	for i, cards := range dealt {
		g.Hands[i] = Hand{Nickname: g.Players[seats[i]].Nickname, Cards: cards}
	}
	return nil
}

// resolve settles the check that was just appended to g.History. It
// returns the archive of the finished round.
func resolve(g *Game, rng deck.RandSource) (*RoundArchive, error) {
	n := len(g.History)
	if n < 2 || g.History[n-1].ActionID != CheckID {
		return nil, fmt.Errorf("resolving round %d: history does not end in a check", g.RoundNumber)
	}
	check, claim := g.History[n-1], g.History[n-2]

	exists, err := Evaluate(claim.ActionID, g.pooledCards())
	if err != nil {
		return nil, fmt.Errorf("resolving round %d: %w", g.RoundNumber, err)
	}

	checker := check.Player
	loser := claim.Player
	if exists {
		loser = checker
	}

	archive := &RoundArchive{
		GameID:      g.ID,
		RoundNumber: g.RoundNumber,
		Status:      g.Status,
		MaxCards:    g.MaxCards,
		Players:     append([]Player{}, g.Players...),
		Hands:       cloneHands(g.Hands),
		History:     append([]ActionRecord{}, g.History...),
		Resolution: Resolution{
			Claim:     claim,
			Checker:   checker,
			SetExists: exists,
			Loser:     loser,
		},
	}

	li := g.PlayerByNickname(loser)
	if li < 0 {
		return nil, fmt.Errorf("resolving round %d: loser %q not seated", g.RoundNumber, loser)
	}
	g.Players[li].CardCount++
	if g.Players[li].CardCount > g.MaxCards {
		g.Players[li].CardCount = 0
		archive.Resolution.Eliminated = true
	}

	if g.ActivePlayers() == 1 {
		g.Status = StatusFinished
		g.CurrentPlayer = ""
		return archive, nil
	}

	switch {
	case !archive.Resolution.Eliminated:
		g.CurrentPlayer = loser
	case loser == checker:
		next, ok := NextActivePlayer(g.Players, checker)
		if !ok {
			return nil, fmt.Errorf("resolving round %d: no active player after %s", g.RoundNumber, checker)
		}
		g.CurrentPlayer = next.Nickname
	default:
		g.CurrentPlayer = checker
	}

	g.RoundNumber++
	g.History = []ActionRecord{}
	if err := dealRound(g, rng); err != nil {
		return nil, err
	}
	return archive, nil
}
