package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blef/cmd/blef/shared"
	"github.com/lox/blef/internal/agent"
	"github.com/lox/blef/internal/gameid"
	"github.com/lox/blef/internal/randutil"
	"github.com/lox/blef/internal/server"
	"github.com/lox/blef/internal/store"
)

// ServerCmd runs the HTTP API, the watcher hub and the agent workers.
type ServerCmd struct {
	Config   string `kong:"default='blef.hcl',help='Path to HCL configuration file'"`
	Addr     string `kong:"help='Listen address, overrides the config file'"`
	Store    string `kong:"help='Store driver (memory, redis, postgres), overrides the config file'"`
	Seed     *int64 `kong:"help='Deterministic RNG seed for deals and seating (optional)'"`
	LogLevel string `kong:"help='Log level, overrides the config file'"`
	JSON     bool   `kong:"help='Log as JSON'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := c.override(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel, c.JSON || cfg.Server.LogFormat == "json")
	if err != nil {
		return err
	}

	seed := cfg.Server.Seed
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else if seed == 0 {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}

	ctx := shared.SetupSignalHandler(logger)

	backend, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer backend.Close()

	specs, err := agentSpecs(cfg)
	if err != nil {
		return err
	}
	registry, err := agent.NewRegistry(specs, randutil.NewLocked(randutil.New(seed+1)))
	if err != nil {
		return err
	}
	agentTimeout, err := decisionTimeout(cfg)
	if err != nil {
		return err
	}

	clock := quartz.NewReal()
	svc := server.NewGameService(server.ServiceConfig{
		Games:    backend.Games,
		Archives: backend.Archives,
		Agents:   registry,
		Clock:    clock,
		Rand:     randutil.NewLocked(randutil.New(seed)),
		IDs:      gameid.NewGenerator(clock, nil),
		Logger:   logger,
	})
	hub := server.NewHub(svc, clock, logger)
	svc.Subscribe(hub)
	dispatcher := agent.NewDispatcher(svc, registry, agent.Options{
		Workers:         cfg.Server.AgentWorkers,
		Timeout:         agentTimeout,
		ConflictRetries: *cfg.Server.ConflictRetries,
		Clock:           clock,
		Logger:          logger,
	})
	svc.Subscribe(dispatcher)

	srv := server.NewServer(svc, hub, logger, cfg.ServerOptions())

	logger.Info("Starting Blef server",
		"address", cfg.Addr(),
		"store", cfg.Store.Driver,
		"agents", registry.Names(),
		"agent_workers", cfg.Server.AgentWorkers)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error {
		waiting, err := svc.AwaitingAgents(ctx)
		if err != nil {
			logger.Warn("Failed to find games waiting on agents", "error", err)
			return nil
		}
		for _, id := range waiting {
			dispatcher.Kick(id)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (c *ServerCmd) override(cfg *server.Config) error {
	if c.Addr != "" {
		if err := cfg.SetAddr(c.Addr); err != nil {
			return fmt.Errorf("--addr: %w", err)
		}
	}
	if c.Store != "" {
		cfg.Store.Driver = c.Store
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	return nil
}

// decisionTimeout is the default time an agent gets to choose an action.
func decisionTimeout(cfg *server.Config) (time.Duration, error) {
	d, err := time.ParseDuration(cfg.Server.AgentTimeout)
	if err != nil {
		return 0, fmt.Errorf("agent_timeout %q: %w", cfg.Server.AgentTimeout, err)
	}
	return d, nil
}

func agentSpecs(cfg *server.Config) ([]agent.Spec, error) {
	specs := make([]agent.Spec, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		s := agent.Spec{Name: a.Name, Strategy: a.Strategy, URL: a.URL}
		if a.Timeout != "" {
			d, err := time.ParseDuration(a.Timeout)
			if err != nil {
				return nil, fmt.Errorf("agent %q: %w", a.Name, err)
			}
			s.Timeout = d
		}
		specs = append(specs, s)
	}
	return specs, nil
}
