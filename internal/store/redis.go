package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/lox/blef/internal/game"
)

const (
	redisIndexKey     = "blef:games"
	redisFieldVersion = "version"
	redisFieldData    = "data"
)

// Redis stores each game as a hash holding its version and encoded record.
// Saves run inside WATCH/MULTI so a concurrent writer aborts the transaction.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// OpenRedis connects to the server at url (redis://host:port/db).
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedis(client), nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func redisGameKey(id string) string {
	return "blef:game:" + id
}

func redisRoundKey(gameID string, round int, key string) string {
	return fmt.Sprintf("blef:round:%s:%d:%s", gameID, round, key)
}

func (r *Redis) Create(ctx context.Context, g *game.Game) (Version, error) {
	data, err := encodeGame(g)
	if err != nil {
		return 0, err
	}
	key := redisGameKey(g.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, redisFieldVersion, 1, redisFieldData, data)
			p.SAdd(ctx, redisIndexKey, g.ID)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		err = ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("creating game %s: %w", g.ID, err)
	}
	return 1, nil
}

func (r *Redis) Load(ctx context.Context, id string) (*game.Game, Version, error) {
	vals, err := r.client.HMGet(ctx, redisGameKey(id), redisFieldVersion, redisFieldData).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("loading game %s: %w", id, err)
	}
	version, data, err := parseRedisRecord(vals)
	if err != nil {
		return nil, 0, fmt.Errorf("loading game %s: %w", id, err)
	}
	g, err := decodeGame(data)
	if err != nil {
		return nil, 0, err
	}
	return g, version, nil
}

func parseRedisRecord(vals []any) (Version, []byte, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return 0, nil, ErrNotFound
	}
	vs, ok := vals[0].(string)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected version type %T", vals[0])
	}
	v, err := strconv.ParseInt(vs, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("parsing version %q: %w", vs, err)
	}
	ds, ok := vals[1].(string)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected data type %T", vals[1])
	}
	return Version(v), []byte(ds), nil
}

func (r *Redis) Save(ctx context.Context, g *game.Game, expected Version) (Version, error) {
	data, err := encodeGame(g)
	if err != nil {
		return 0, err
	}
	key := redisGameKey(g.ID)
	next := expected + 1

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, redisFieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if Version(current) != expected {
			return fmt.Errorf("stored version %d: %w", current, ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, redisFieldVersion, int64(next), redisFieldData, data)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return 0, fmt.Errorf("saving game %s: %w", g.ID, ErrConflict)
	case err != nil:
		return 0, fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	return next, nil
}

func (r *Redis) List(ctx context.Context) ([]*game.Game, error) {
	ids, err := r.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	if len(ids) == 0 {
		return []*game.Game{}, nil
	}

	cmds := make([]*redis.StringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGet(ctx, redisGameKey(id), redisFieldData)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	games := make([]*game.Game, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing games: %w", err)
		}
		g, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

func (r *Redis) SaveRound(ctx context.Context, a *game.RoundArchive) error {
	data, err := encodeRound(a)
	if err != nil {
		return err
	}
	if err := validateArchiveKey(a.Key); err != nil {
		return err
	}
	if err := r.client.SetNX(ctx, redisRoundKey(a.GameID, a.RoundNumber, a.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("archiving round %d of %s: %w", a.RoundNumber, a.GameID, err)
	}
	return nil
}

func (r *Redis) LoadRound(ctx context.Context, gameID string, round int, key string) (*game.RoundArchive, error) {
	data, err := r.client.Get(ctx, redisRoundKey(gameID, round, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, ErrRoundNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("round %d of %s: %w", round, gameID, err)
	}
	return decodeRound(data)
}
