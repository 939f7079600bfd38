package game

// EventType names a state change.
type EventType string

const (
	EventGameCreated   EventType = "game_created"
	EventPlayerJoined  EventType = "player_joined"
	EventAgentInvited  EventType = "agent_invited"
	EventMadePublic    EventType = "made_public"
	EventGameStarted   EventType = "game_started"
	EventActionPlayed  EventType = "action_played"
	EventRoundResolved EventType = "round_resolved"
	EventGameFinished  EventType = "game_finished"
)

// Event describes one change produced by a session operation.
type Event struct {
	Type       EventType   `json:"type"`
	Round      int         `json:"round,omitempty"`
	Player     string      `json:"player,omitempty"`
	ActionID   int         `json:"action_id"`
	Resolution *Resolution `json:"resolution,omitempty"`
}

// Outcome is the result of a session operation. Game is a new value; the
// input snapshot is left untouched. Archive is set when a round completed.
// Noop marks requests that were accepted but changed nothing.
type Outcome struct {
	Game    *Game
	Archive *RoundArchive
	Events  []Event
	Noop    bool
}

// Update is a committed change as seen by notifiers.
type Update struct {
	Before  *Game
	After   *Game
	Archive *RoundArchive
	Events  []Event
}

// Has reports whether u carries an event of type t.
func (u Update) Has(t EventType) bool {
	for _, e := range u.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}
