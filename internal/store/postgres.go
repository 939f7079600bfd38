package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/blef/internal/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS blef_games (
	id         TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS blef_rounds (
	game_id      TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	archive_key  TEXT NOT NULL,
	data         JSONB NOT NULL,
	archived_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (game_id, round_number, archive_key)
);`

// Postgres stores games in a table keyed by id with a version column that
// every update is conditioned on.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects using dsn and creates the schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the tables used by the store.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Create(ctx context.Context, g *game.Game) (Version, error) {
	data, err := encodeGame(g)
	if err != nil {
		return 0, err
	}
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO blef_games (id, version, data) VALUES ($1, 1, $2) ON CONFLICT (id) DO NOTHING`,
		g.ID, data)
	if err != nil {
		return 0, fmt.Errorf("creating game %s: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("creating game %s: %w", g.ID, ErrConflict)
	}
	return 1, nil
}

func (p *Postgres) Load(ctx context.Context, id string) (*game.Game, Version, error) {
	var (
		version int64
		data    []byte
	)
	err := p.pool.QueryRow(ctx, `SELECT version, data FROM blef_games WHERE id = $1`, id).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("loading game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("loading game %s: %w", id, err)
	}
	g, err := decodeGame(data)
	if err != nil {
		return nil, 0, err
	}
	return g, Version(version), nil
}

func (p *Postgres) Save(ctx context.Context, g *game.Game, expected Version) (Version, error) {
	data, err := encodeGame(g)
	if err != nil {
		return 0, err
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE blef_games SET version = version + 1, data = $2, updated_at = now() WHERE id = $1 AND version = $3`,
		g.ID, data, int64(expected))
	if err != nil {
		return 0, fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	if tag.RowsAffected() == 1 {
		return expected + 1, nil
	}

	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blef_games WHERE id = $1)`, g.ID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	if !exists {
		return 0, fmt.Errorf("saving game %s: %w", g.ID, ErrNotFound)
	}
	return 0, fmt.Errorf("saving game %s at version %d: %w", g.ID, expected, ErrConflict)
}

func (p *Postgres) List(ctx context.Context) ([]*game.Game, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM blef_games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	blobs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	games := make([]*game.Game, 0, len(blobs))
	for _, data := range blobs {
		g, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func (p *Postgres) SaveRound(ctx context.Context, a *game.RoundArchive) error {
	data, err := encodeRound(a)
	if err != nil {
		return err
	}
	if err := validateArchiveKey(a.Key); err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO blef_rounds (game_id, round_number, archive_key, data) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		a.GameID, a.RoundNumber, a.Key, data)
	if err != nil {
		return fmt.Errorf("archiving round %d of %s: %w", a.RoundNumber, a.GameID, err)
	}
	return nil
}

func (p *Postgres) LoadRound(ctx context.Context, gameID string, round int, key string) (*game.RoundArchive, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM blef_rounds WHERE game_id = $1 AND round_number = $2 AND archive_key = $3`,
		gameID, round, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, ErrRoundNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, err)
	}
	return decodeRound(data)
}
