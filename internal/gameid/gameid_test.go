package gameid

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blef/internal/randutil"
)

func TestGameIDs(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	g := NewGenerator(clock, nil)

	id := g.Game()
	require.NoError(t, Validate(id))
	parsed := uuid.MustParse(id)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())

	var ms int64
	for _, b := range parsed[:6] {
		ms = ms<<8 | int64(b)
	}
	assert.Equal(t, clock.Now().UnixMilli(), ms)
}

func TestGameIDsSortByTime(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	g := NewGenerator(clock, nil)

	prev := g.Game()
	for range 10 {
		clock.Advance(time.Millisecond)
		next := g.Game()
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestPlayerIDs(t *testing.T) {
	t.Parallel()
	g := NewGenerator(nil, nil)
	seen := map[string]bool{}
	for range 100 {
		id := g.Player()
		require.NoError(t, Validate(id))
		assert.Equal(t, uuid.Version(4), uuid.MustParse(id).Version())
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDeterministicWithRandSource(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	a := NewGenerator(clock, randutil.New(9))
	b := NewGenerator(clock, randutil.New(9))
	assert.Equal(t, a.Game(), b.Game())
	assert.Equal(t, a.Player(), b.Player())
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"canonical", "0192f000-0000-7000-8000-000000000001", false},
		{"empty", "", true},
		{"garbage", "not-a-uuid", true},
		{"upper case", "0192F000-0000-7000-8000-000000000001", true},
		{"urn form", "urn:uuid:0192f000-0000-7000-8000-000000000001", true},
	}
	for _, tt := range tests {
		err := Validate(tt.id)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}
