package game

import "fmt"

// IsLegal reports whether id may be played after history.
func IsLegal(id int, history []ActionRecord) bool {
	if id < 0 || id > CheckID {
		return false
	}
	if len(history) == 0 {
		return id != CheckID
	}
	return id > history[len(history)-1].ActionID
}

// NextActivePlayer returns the first active player seated after current,
// wrapping around the table. current itself is never returned.
func NextActivePlayer(players []Player, current string) (Player, bool) {
	n := len(players)
	start := -1
	for i, p := range players {
		if p.Nickname == current {
			start = i
			break
		}
	}
	for step := 1; step <= n; step++ {
		p := players[(start+step+n)%n]
		if p.Nickname != current && p.Active() {
			return p, true
		}
	}
	return Player{}, false
}

// submit records actor playing id on g. It reports whether the action was a
// check that closed the round.
func submit(g *Game, actor string, id int) (bool, error) {
	if id < 0 || id > CheckID {
		return false, fmt.Errorf("%w: got %d", ErrOutOfRange, id)
	}
	if actor != g.CurrentPlayer {
		return false, fmt.Errorf("%w: it is %s's turn", ErrOutOfTurn, g.CurrentPlayer)
	}
	if !IsLegal(id, g.History) {
		if len(g.History) == 0 {
			return false, fmt.Errorf("%w: check cannot open a round", ErrIllegalAction)
		}
		last := g.History[len(g.History)-1].ActionID
		return false, fmt.Errorf("%w: %d does not beat %d", ErrIllegalAction, id, last)
	}

	g.History = append(g.History, ActionRecord{Player: actor, ActionID: id})
	if id == CheckID {
		return true, nil
	}

	next, ok := NextActivePlayer(g.Players, actor)
	if !ok {
		return false, fmt.Errorf("no active player after %s", actor)
	}
	g.CurrentPlayer = next.Nickname
	return false, nil
}
