package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lox/blef/internal/fileutil"
	"github.com/lox/blef/internal/game"
)

// FileArchive writes each round to <dir>/<game id>/round-NNNN-<key>.json.
type FileArchive struct {
	dir string
}

// NewFileArchive returns an archive rooted at dir, creating it if needed.
func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

func (f *FileArchive) path(gameID string, round int, key string) (string, error) {
	// Ids become path components, so only accept real UUIDs.
	if _, err := uuid.Parse(gameID); err != nil {
		return "", fmt.Errorf("%w: game id %q", game.ErrInvalidID, gameID)
	}
	if err := validateArchiveKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, gameID, fmt.Sprintf("round-%04d-%s.json", round, key)), nil
}

func (f *FileArchive) SaveRound(_ context.Context, a *game.RoundArchive) error {
	path, err := f.path(a.GameID, a.RoundNumber, a.Key)
	if err != nil {
		return err
	}
	data, err := encodeRound(a)
	if err != nil {
		return err
	}
	if _, err := fileutil.WriteFileOnce(path, data, 0o644); err != nil {
		return fmt.Errorf("archiving round %d of %s: %w", a.RoundNumber, a.GameID, err)
	}
	return nil
}

func (f *FileArchive) LoadRound(_ context.Context, gameID string, round int, key string) (*game.RoundArchive, error) {
	path, err := f.path(gameID, round, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, ErrRoundNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, err)
	}
	return decodeRound(data)
}
