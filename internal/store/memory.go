package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lox/blef/internal/game"
)

type memoryRecord struct {
	version Version
	data    []byte
}

// Memory keeps games and rounds in process. Records are stored encoded so
// callers never share state with the repository.
type Memory struct {
	mu     sync.RWMutex
	games  map[string]memoryRecord
	rounds map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		games:  make(map[string]memoryRecord),
		rounds: make(map[string][]byte),
	}
}

func (m *Memory) Create(_ context.Context, g *game.Game) (Version, error) {
	data, err := encodeGame(g)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.ID]; ok {
		return 0, fmt.Errorf("creating game %s: %w", g.ID, ErrConflict)
	}
	m.games[g.ID] = memoryRecord{version: 1, data: data}
	return 1, nil
}

func (m *Memory) Load(_ context.Context, id string) (*game.Game, Version, error) {
	m.mu.RLock()
	rec, ok := m.games[id]
	m.mu.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("loading game %s: %w", id, ErrNotFound)
	}
	g, err := decodeGame(rec.data)
	if err != nil {
		return nil, 0, err
	}
	return g, rec.version, nil
}

func (m *Memory) Save(_ context.Context, g *game.Game, expected Version) (Version, error) {
	data, err := encodeGame(g)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.games[g.ID]
	if !ok {
		return 0, fmt.Errorf("saving game %s: %w", g.ID, ErrNotFound)
	}
	if rec.version != expected {
		return 0, fmt.Errorf("saving game %s at version %d (stored %d): %w", g.ID, expected, rec.version, ErrConflict)
	}
	next := rec.version + 1
	m.games[g.ID] = memoryRecord{version: next, data: data}
	return next, nil
}

func (m *Memory) List(_ context.Context) ([]*game.Game, error) {
	m.mu.RLock()
	records := make([][]byte, 0, len(m.games))
	for _, rec := range m.games {
		records = append(records, rec.data)
	}
	m.mu.RUnlock()

	games := make([]*game.Game, 0, len(records))
	for _, data := range records {
		g, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

func roundKey(gameID string, round int, key string) string {
	return fmt.Sprintf("%s/%d/%s", gameID, round, key)
}

func (m *Memory) SaveRound(_ context.Context, a *game.RoundArchive) error {
	data, err := encodeRound(a)
	if err != nil {
		return err
	}
	if err := validateArchiveKey(a.Key); err != nil {
		return err
	}
	key := roundKey(a.GameID, a.RoundNumber, a.Key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[key]; !ok {
		m.rounds[key] = data
	}
	return nil
}

func (m *Memory) LoadRound(_ context.Context, gameID string, round int, key string) (*game.RoundArchive, error) {
	m.mu.RLock()
	data, ok := m.rounds[roundKey(gameID, round, key)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, ErrRoundNotFound)
	}
	return decodeRound(data)
}
