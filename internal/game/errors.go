package game

import (
	"errors"

	"github.com/lox/blef/internal/deck"
)

// Kind classifies errors so transports can map them to responses.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindWrongStatus
	KindOutOfTurn
	KindIllegalAction
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindWrongStatus:
		return "wrong_status"
	case KindOutOfTurn:
		return "out_of_turn"
	case KindIllegalAction:
		return "illegal_action"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

var (
	ErrInvalidID         = errors.New("malformed identifier")
	ErrOutOfRange        = errors.New("action id must be an integer between 0 and 88")
	ErrInvalidNickname   = errors.New("nickname must start with a letter and only contain alphanumeric characters")
	ErrInvalidRound      = errors.New("invalid round")
	ErrRoomFull          = errors.New("game room full")
	ErrDuplicateNickname = errors.New("nickname already taken")
	ErrUnknownAgent      = errors.New("unknown agent")

	ErrGameNotFound   = errors.New("game does not exist")
	ErrPlayerNotFound = errors.New("player does not exist in this game")
	ErrRoundNotFound  = errors.New("round not found")

	ErrWrongStatus   = errors.New("operation not allowed in the current game status")
	ErrTooFewPlayers = errors.New("at least 2 players needed to start a game")

	ErrOutOfTurn     = errors.New("not this player's turn")
	ErrIllegalAction = errors.New("action not allowed right now")

	// ErrConflict is returned by stores when a conditional write lost a race.
	ErrConflict = errors.New("game was modified concurrently")

	ErrUnauthorized = errors.New("admin id does not match")

	ErrDeckExhausted = deck.ErrDeckExhausted
	ErrInvalidClaim  = errors.New("check does not describe a set")
)

var errorKinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidID, KindValidation},
	{ErrOutOfRange, KindValidation},
	{ErrInvalidNickname, KindValidation},
	{ErrInvalidRound, KindValidation},
	{ErrRoomFull, KindValidation},
	{ErrDuplicateNickname, KindValidation},
	{ErrUnknownAgent, KindValidation},
	{ErrGameNotFound, KindNotFound},
	{ErrPlayerNotFound, KindNotFound},
	{ErrRoundNotFound, KindNotFound},
	{ErrWrongStatus, KindWrongStatus},
	{ErrTooFewPlayers, KindWrongStatus},
	{ErrOutOfTurn, KindOutOfTurn},
	{ErrIllegalAction, KindIllegalAction},
	{ErrConflict, KindConflict},
	{ErrUnauthorized, KindUnauthorized},
}

// KindOf reports the kind of err. Anything unrecognised, including
// ErrDeckExhausted and ErrInvalidClaim, is internal.
func KindOf(err error) Kind {
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}
