// Package store persists games and archived rounds.
//
// Every load returns a Version and every save is conditioned on one, so
// callers can run read-compute-write cycles without holding locks. A save
// against a stale version fails with ErrConflict and the caller decides
// whether to reload and retry.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/lox/blef/internal/game"
)

// Version identifies one revision of a stored game. Its value is
// meaningful only to the repository that issued it.
type Version int64

var (
	// ErrConflict is returned when a save was conditioned on a stale version.
	ErrConflict = game.ErrConflict
	// ErrNotFound is returned for unknown game ids.
	ErrNotFound = game.ErrGameNotFound
	// ErrRoundNotFound is returned for rounds that were never archived.
	ErrRoundNotFound = game.ErrRoundNotFound
)

// GameRepository stores the live record of each game.
type GameRepository interface {
	// Create stores a new game. It fails with ErrConflict if the id is taken.
	Create(ctx context.Context, g *game.Game) (Version, error)
	// Load returns the game and its current version.
	Load(ctx context.Context, id string) (*game.Game, Version, error)
	// Save replaces the game if its stored version still equals expected.
	Save(ctx context.Context, g *game.Game, expected Version) (Version, error)
	// List returns every stored game.
	List(ctx context.Context) ([]*game.Game, error)
}

// ArchiveRepository stores completed rounds under (game, round, key).
// Each key is written once. A round may have archives under several keys
// when concurrent checks raced; the committed game names the one that
// counts.
type ArchiveRepository interface {
	// SaveRound stores a round under a.Key. Saving an existing key is a no-op.
	SaveRound(ctx context.Context, a *game.RoundArchive) error
	LoadRound(ctx context.Context, gameID string, round int, key string) (*game.RoundArchive, error)
}

var archiveKeyPattern = regexp.MustCompile(`^[a-z0-9]{1,32}$`)

// ArchiveKey returns the key for a round resolved from the game at version v.
func ArchiveKey(v Version) string {
	return "v" + strconv.FormatInt(int64(v), 10)
}

func validateArchiveKey(key string) error {
	if !archiveKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: archive key %q", game.ErrInvalidID, key)
	}
	return nil
}

func encodeGame(g *game.Game) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encoding game %s: %w", g.ID, err)
	}
	return data, nil
}

func decodeGame(data []byte) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decoding game: %w", err)
	}
	return &g, nil
}

func encodeRound(a *game.RoundArchive) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding round %d of %s: %w", a.RoundNumber, a.GameID, err)
	}
	return data, nil
}

func decodeRound(data []byte) (*game.RoundArchive, error) {
	var a game.RoundArchive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding round: %w", err)
	}
	return &a, nil
}
