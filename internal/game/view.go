package game

import "time"

// SeatView is a player as shown to others. Ids are never exposed.
type SeatView struct {
	Nickname  string `json:"nickname"`
	CardCount int    `json:"n_cards"`
	Agent     bool   `json:"ai_agent,omitempty"`
}

// View is the censored projection of a game or an archived round.
type View struct {
	GameID        string         `json:"game_uuid"`
	AdminNickname string         `json:"admin_nickname,omitempty"`
	Public        bool           `json:"public"`
	Status        Status         `json:"status"`
	RoundNumber   int            `json:"round_number"`
	MaxCards      int            `json:"max_cards"`
	Players       []SeatView     `json:"players"`
	Hands         []Hand         `json:"hands"`
	CurrentPlayer string         `json:"cp_nickname,omitempty"`
	History       []ActionRecord `json:"history"`
	Resolution    *Resolution    `json:"resolution,omitempty"`
	Winner        string         `json:"winner,omitempty"`
	LastModified  time.Time      `json:"last_modified"`
}

func seatViews(players []Player) []SeatView {
	out := make([]SeatView, len(players))
	for i, p := range players {
		out[i] = SeatView{Nickname: p.Nickname, CardCount: p.CardCount, Agent: p.Agent != ""}
	}
	return out
}

// ViewFor returns g as seen by viewer, a nickname or "" for spectators.
// While the game is running only the viewer's own hand is included; once it
// has finished every hand of the last round is revealed.
func ViewFor(g *Game, viewer string) View {
	v := View{
		GameID:        g.ID,
		AdminNickname: g.AdminNickname,
		Public:        g.Public,
		Status:        g.Status,
		RoundNumber:   g.RoundNumber,
		MaxCards:      g.MaxCards,
		Players:       seatViews(g.Players),
		Hands:         []Hand{},
		CurrentPlayer: g.CurrentPlayer,
		History:       append([]ActionRecord{}, g.History...),
		Winner:        g.Winner(),
		LastModified:  g.LastModified,
	}
	switch g.Status {
	case StatusFinished:
		v.Hands = cloneHands(g.Hands)
	case StatusRunning:
		for _, h := range g.Hands {
			if viewer != "" && h.Nickname == viewer {
				v.Hands = cloneHands([]Hand{h})
			}
		}
	}
	return v
}

// ViewOfRound returns a completed round with every hand revealed.
func ViewOfRound(a *RoundArchive, live *Game) View {
	res := a.Resolution
	v := View{
		GameID:       a.GameID,
		Status:       a.Status,
		RoundNumber:  a.RoundNumber,
		MaxCards:     a.MaxCards,
		Players:      seatViews(a.Players),
		Hands:        cloneHands(a.Hands),
		History:      append([]ActionRecord{}, a.History...),
		Resolution:   &res,
		LastModified: a.ArchivedAt,
	}
	if live != nil {
		v.AdminNickname = live.AdminNickname
		v.Public = live.Public
	}
	return v
}

// Summary is a game as listed in the public lobby.
type Summary struct {
	GameID       string    `json:"game_uuid"`
	Status       Status    `json:"status"`
	Players      []string  `json:"players"`
	LastModified time.Time `json:"last_modified"`
}

// Summarize returns the lobby entry for g.
func Summarize(g *Game) Summary {
	names := make([]string, len(g.Players))
	for i, p := range g.Players {
		names[i] = p.Nickname
	}
	return Summary{GameID: g.ID, Status: g.Status, Players: names, LastModified: g.LastModified}
}
