package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lox/blef/cmd/blef/shared"
	"github.com/lox/blef/internal/agent"
	"github.com/lox/blef/internal/randutil"
)

// AgentCmd serves the built-in strategies over HTTP so a server can use them
// as external agents, e.g. `agent "remote" { url = "http://host:9000/agents/cautious" }`.
type AgentCmd struct {
	Addr     string `kong:"default='localhost:9000',help='Listen address'"`
	Seed     *int64 `kong:"help='Deterministic RNG seed for the random strategy (optional)'"`
	LogLevel string `kong:"default='info',help='Log level'"`
	JSON     bool   `kong:"help='Log as JSON'"`
}

func (c *AgentCmd) Run() error {
	logger, err := shared.SetupLogger(c.LogLevel, c.JSON)
	if err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	registry, err := agent.NewRegistry([]agent.Spec{
		{Name: agent.StrategyRandom, Strategy: agent.StrategyRandom},
		{Name: agent.StrategyCautious, Strategy: agent.StrategyCautious},
	}, randutil.NewLocked(randutil.New(seed)))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:        c.Addr,
		Handler:     agent.NewHandler(registry, logger),
		ReadTimeout: 15 * time.Second,
	}
	ctx := shared.SetupSignalHandler(logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Serving agents", "addr", c.Addr, "agents", registry.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
