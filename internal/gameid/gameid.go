// Package gameid issues the identifiers the server hands out: UUIDv7 game
// ids that sort by creation time and UUIDv4 player ids.
package gameid

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// Generator handles id generation with configurable clock and randomness
type Generator struct {
	clock quartz.Clock

	mu         sync.Mutex
	randSource RandSource
}

// NewGenerator creates a generator. A nil clock uses wall time and a nil
// RandSource uses crypto/rand.
func NewGenerator(clock quartz.Clock, randSource RandSource) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, randSource: randSource}
}

// Game returns a new game id.
func (g *Generator) Game() string {
	var id uuid.UUID

	// UUIDv7 format:
	// 48-bit timestamp (milliseconds since Unix epoch)
	// 4-bit version (0111), 2-bit variant (10), 74 random bits
	now := g.clock.Now().UnixMilli()
	id[0] = byte(now >> 40)
	id[1] = byte(now >> 32)
	id[2] = byte(now >> 24)
	id[3] = byte(now >> 16)
	id[4] = byte(now >> 8)
	id[5] = byte(now)
	g.fill(id[6:])

	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80
	return id.String()
}

// Player returns a new secret player id.
func (g *Generator) Player() string {
	var id uuid.UUID
	g.fill(id[:])
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id.String()
}

func (g *Generator) fill(b []byte) {
	if g.randSource == nil {
		if _, err := rand.Read(b); err != nil {
			panic("failed to generate random bytes: " + err.Error())
		}
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range b {
		b[i] = byte(g.randSource.IntN(256))
	}
}

// Validate checks that id is a canonical UUID string.
func Validate(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	if parsed.String() != id {
		return fmt.Errorf("id %q is not in canonical form", id)
	}
	return nil
}
