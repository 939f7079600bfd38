package store

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	RedisURL    string
	PostgresDSN string
	// ArchiveDir, when set, stores rounds on disk instead of in the driver.
	ArchiveDir string
}

// Backend is an opened pair of repositories.
type Backend struct {
	Games    GameRepository
	Archives ArchiveRepository
	closers  []func() error
}

// Close releases any connections held by the backend.
func (b *Backend) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open connects the backend described by opts.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	b := &Backend{}
	switch opts.Driver {
	case "", DriverMemory:
		m := NewMemory()
		b.Games, b.Archives = m, m
	case DriverRedis:
		r, err := OpenRedis(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		b.Games, b.Archives = r, r
		b.closers = append(b.closers, r.Close)
	case DriverPostgres:
		p, err := OpenPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		b.Games, b.Archives = p, p
		b.closers = append(b.closers, p.Close)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}

	if opts.ArchiveDir != "" {
		fa, err := NewFileArchive(opts.ArchiveDir)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Archives = fa
	}
	return b, nil
}
