package game

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("joining: %w", ErrRoomFull), KindValidation},
		{ErrInvalidID, KindValidation},
		{fmt.Errorf("loading: %w", ErrGameNotFound), KindNotFound},
		{ErrRoundNotFound, KindNotFound},
		{fmt.Errorf("starting: %w", ErrTooFewPlayers), KindWrongStatus},
		{ErrOutOfTurn, KindOutOfTurn},
		{ErrIllegalAction, KindIllegalAction},
		{fmt.Errorf("saving: %w", ErrConflict), KindConflict},
		{ErrUnauthorized, KindUnauthorized},
		{fmt.Errorf("dealing: %w", ErrDeckExhausted), KindInternal},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
