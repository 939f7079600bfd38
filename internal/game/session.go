package game

import (
	"fmt"
	"regexp"
)

// MaxNicknameLength bounds player nicknames.
const MaxNicknameLength = 32

var nicknamePattern = regexp.MustCompile(`^[a-zA-Z]\w*$`)

// ValidateNickname checks a human player's nickname.
func ValidateNickname(nickname string) error {
	if len(nickname) > MaxNicknameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidNickname, MaxNicknameLength)
	}
	if !nicknamePattern.MatchString(nickname) {
		return fmt.Errorf("%w: %q", ErrInvalidNickname, nickname)
	}
	return nil
}

// AgentNickname returns the first of "<name>_(AI)", "<name>_2_(AI)", ...
// that is not in taken.
func AgentNickname(name string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, n := range taken {
		used[n] = true
	}
	for i := 1; ; i++ {
		candidate := name + "_(AI)"
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d_(AI)", name, i)
		}
		if !used[candidate] {
			return candidate
		}
	}
}

func requireStatus(g *Game, want Status) error {
	if g.Status != want {
		return fmt.Errorf("%w: game is %q", ErrWrongStatus, g.Status)
	}
	return nil
}

func requireAdmin(g *Game, adminID string) error {
	i := g.PlayerByNickname(g.AdminNickname)
	if g.AdminNickname == "" || i < 0 || g.Players[i].ID != adminID {
		return ErrUnauthorized
	}
	return nil
}

func seat(next *Game, p Player) error {
	if len(next.Players) >= MaxPlayers {
		return fmt.Errorf("%w: %d players", ErrRoomFull, MaxPlayers)
	}
	if next.PlayerByNickname(p.Nickname) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateNickname, p.Nickname)
	}
	next.Players = append(next.Players, p)
	if next.AdminNickname == "" {
		next.AdminNickname = p.Nickname
	}
	return nil
}

// Join seats a human player. The first player to join becomes admin.
func Join(g *Game, playerID, nickname string) (*Outcome, error) {
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}
	if err := requireStatus(g, StatusNotStarted); err != nil {
		return nil, err
	}
	next := g.Clone()
	if err := seat(next, Player{ID: playerID, Nickname: nickname}); err != nil {
		return nil, err
	}
	return &Outcome{
		Game:   next,
		Events: []Event{{Type: EventPlayerJoined, Player: nickname}},
	}, nil
}

// InviteAgent seats an agent player on behalf of the admin. agent names the
// configured agent that will play the seat.
func InviteAgent(g *Game, adminID, playerID, agent string) (*Outcome, error) {
	if agent == "" {
		return nil, fmt.Errorf("%w: agent name missing", ErrUnknownAgent)
	}
	if err := requireStatus(g, StatusNotStarted); err != nil {
		return nil, err
	}
	if err := requireAdmin(g, adminID); err != nil {
		return nil, err
	}
	next := g.Clone()
	taken := make([]string, len(next.Players))
	for i, p := range next.Players {
		taken[i] = p.Nickname
	}
	nickname := AgentNickname(agent, taken)
	if err := seat(next, Player{ID: playerID, Nickname: nickname, Agent: agent}); err != nil {
		return nil, err
	}
	return &Outcome{
		Game:   next,
		Events: []Event{{Type: EventAgentInvited, Player: nickname}},
	}, nil
}

// MakePublic lists the game in the public lobby. Repeating it is a no-op.
func MakePublic(g *Game, adminID string) (*Outcome, error) {
	if err := requireStatus(g, StatusNotStarted); err != nil {
		return nil, err
	}
	if err := requireAdmin(g, adminID); err != nil {
		return nil, err
	}
	if g.Public {
		return &Outcome{Game: g.Clone(), Noop: true}, nil
	}
	next := g.Clone()
	next.Public = true
	return &Outcome{
		Game:   next,
		Events: []Event{{Type: EventMadePublic}},
	}, nil
}

// Start seats the players, deals round one and hands the turn to seat zero.
func Start(g *Game, adminID string, rng Rand) (*Outcome, error) {
	if err := requireAdmin(g, adminID); err != nil {
		return nil, err
	}
	if err := requireStatus(g, StatusNotStarted); err != nil {
		return nil, err
	}
	if len(g.Players) < MinPlayers {
		return nil, fmt.Errorf("%w: have %d", ErrTooFewPlayers, len(g.Players))
	}

	next := g.Clone()
	next.Players = ArrangeSeats(next.Players, rng)
	for i := range next.Players {
		next.Players[i].CardCount = 1
	}
	next.MaxCards = MaxCardsFor(len(next.Players))
	next.Status = StatusRunning
	next.RoundNumber = 1
	next.History = []ActionRecord{}
	next.CurrentPlayer = next.Players[0].Nickname
	if err := dealRound(next, rng); err != nil {
		return nil, err
	}
	return &Outcome{
		Game:   next,
		Events: []Event{{Type: EventGameStarted, Round: 1, Player: next.CurrentPlayer}},
	}, nil
}

// ArrangeSeats returns a seating order with the agents spread evenly around
// the table at a random offset and the humans shuffled into the other seats.
func ArrangeSeats(players []Player, rng Rand) []Player {
	var agents, humans []Player
	for _, p := range players {
		if p.Agent != "" {
			agents = append(agents, p)
		} else {
			humans = append(humans, p)
		}
	}
	rng.Shuffle(len(humans), func(i, j int) { humans[i], humans[j] = humans[j], humans[i] })

	n := len(players)
	agentSeat := make(map[int]bool, len(agents))
	if len(agents) > 0 {
		offset := rng.IntN(n)
		for i := range agents {
			pos := i * n / len(agents)
			agentSeat[(pos+offset)%n] = true
		}
	}

	seated := make([]Player, 0, n)
	for i := 0; i < n; i++ {
		if agentSeat[i] && len(agents) > 0 {
			seated = append(seated, agents[0])
			agents = agents[1:]
			continue
		}
		seated = append(seated, humans[0])
		humans = humans[1:]
	}
	return seated
}

// Play submits actionID for the player identified by playerID.
func Play(g *Game, playerID string, actionID int, rng Rand) (*Outcome, error) {
	if err := requireStatus(g, StatusRunning); err != nil {
		return nil, err
	}
	i := g.PlayerByID(playerID)
	if i < 0 {
		return nil, ErrPlayerNotFound
	}
	return Submit(g, g.Players[i].Nickname, actionID, rng)
}

// Submit records actor playing actionID and resolves the round on a check.
func Submit(g *Game, actor string, actionID int, rng Rand) (*Outcome, error) {
	if err := requireStatus(g, StatusRunning); err != nil {
		return nil, err
	}
	next := g.Clone()
	round := next.RoundNumber
	checked, err := submit(next, actor, actionID)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Game:   next,
		Events: []Event{{Type: EventActionPlayed, Round: round, Player: actor, ActionID: actionID}},
	}
	if !checked {
		return out, nil
	}

	archive, err := resolve(next, rng)
	if err != nil {
		return nil, err
	}
	out.Archive = archive
	res := archive.Resolution
	out.Events = append(out.Events, Event{Type: EventRoundResolved, Round: round, Player: res.Loser, Resolution: &res})
	if next.Status == StatusFinished {
		out.Events = append(out.Events, Event{Type: EventGameFinished, Round: round, Player: next.Winner()})
	}
	return out, nil
}
