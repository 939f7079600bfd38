package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/blef/cmd/blef/shared"
	"github.com/lox/blef/internal/client"
	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/tui"
)

// WatchCmd follows a game, or the lobby when no game is given. With
// --player the watcher sees its own hand and can type claims.
type WatchCmd struct {
	Server   string        `kong:"default='http://localhost:8080',env='BLEF_SERVER',help='Server URL'"`
	Game     string        `kong:"arg,optional,help='Game id to watch; omit for the public lobby'"`
	Player   string        `kong:"help='Secret player id to watch and play as'"`
	Wait     time.Duration `kong:"default='10s',help='Wait up to this long for the server to become healthy'"`
	LogFile  string        `kong:"help='Write logs to this file'"`
	LogLevel string        `kong:"default='info',help='Log level'"`
}

func (c *WatchCmd) Run() error {
	if c.Player != "" && c.Game == "" {
		return fmt.Errorf("--player needs a game id")
	}
	logger, closeLog, err := shared.FileLogger(c.LogFile, c.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := waitForServer(c.Server, c.Wait); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.New(c.Server, logger)
	watcher, err := api.Watch(ctx, c.Game, c.Player)
	if err != nil {
		return err
	}
	defer watcher.Close()

	opts := tui.Options{Logger: logger}
	if c.Game != "" {
		opts.FetchRound = func(round int) (game.View, error) {
			rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return api.Game(rctx, c.Game, "", round)
		}
	}
	if c.Player != "" {
		opts.Play = func(actionID int) error {
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return api.Play(pctx, c.Game, c.Player, actionID)
		}
	}

	p := tea.NewProgram(tui.New(watcher.Events(), opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return watcher.Err()
}
