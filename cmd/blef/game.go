package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blef/internal/client"
	"github.com/lox/blef/internal/game"
	"github.com/lox/blef/internal/server"
	"github.com/lox/blef/internal/tui"
)

// GameCmd groups the API subcommands.
type GameCmd struct {
	Create  GameCreateCmd  `cmd:"" help:"Create a game"`
	Join    GameJoinCmd    `cmd:"" help:"Join a game and print the secret player id"`
	Start   GameStartCmd   `cmd:"" help:"Deal the first round"`
	Public  GamePublicCmd  `cmd:"" help:"List a game in the public lobby"`
	Invite  GameInviteCmd  `cmd:"" help:"Seat an agent"`
	Play    GamePlayCmd    `cmd:"" help:"Make a claim or check"`
	Show    GameShowCmd    `cmd:"" help:"Print a game view"`
	List    GameListCmd    `cmd:"" help:"List public games"`
	Actions GameActionsCmd `cmd:"" help:"Print the action catalog"`
}

// APIFlags are shared by every API subcommand.
type APIFlags struct {
	Server  string        `kong:"default='http://localhost:8080',env='BLEF_SERVER',help='Server URL'"`
	Timeout time.Duration `kong:"default='10s',help='Request timeout'"`
	Wait    time.Duration `kong:"default='0s',help='Wait up to this long for the server to become healthy'"`
	Debug   bool          `kong:"help='Log requests to stderr'"`
}

func (f APIFlags) client() (*client.Client, context.Context, context.CancelFunc, error) {
	level := log.WarnLevel
	if f.Debug {
		level = log.DebugLevel
	}
	if err := waitForServer(f.Server, f.Wait); err != nil {
		return nil, nil, nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})
	ctx, cancel := context.WithTimeout(context.Background(), f.Timeout)
	return client.New(f.Server, logger), ctx, cancel, nil
}

// waitForServer blocks until the server at url passes its health check,
// giving up after d. A zero d does not wait.
func waitForServer(url string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := server.WaitForHealthy(ctx, nil, url); err != nil {
		return fmt.Errorf("server %s not healthy after %s: %w", url, d, err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type GameCreateCmd struct {
	APIFlags `embed:""`
}

func (c *GameCreateCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	id, err := api.CreateGame(ctx)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

type GameJoinCmd struct {
	APIFlags `embed:""`
	GameID   string `kong:"arg,help='Game id'"`
	Nickname string `kong:"arg,help='Nickname to play under'"`
}

func (c *GameJoinCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	id, err := api.JoinGame(ctx, c.GameID, c.Nickname)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

type GameStartCmd struct {
	APIFlags `embed:""`
	GameID   string `kong:"arg,help='Game id'"`
	Admin    string `kong:"required,help='Secret player id of the admin'"`
}

func (c *GameStartCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	return api.StartGame(ctx, c.GameID, c.Admin)
}

type GamePublicCmd struct {
	APIFlags `embed:""`
	GameID   string `kong:"arg,help='Game id'"`
	Admin    string `kong:"required,help='Secret player id of the admin'"`
}

func (c *GamePublicCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	msg, err := api.MakePublic(ctx, c.GameID, c.Admin)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

type GameInviteCmd struct {
	APIFlags `embed:""`
	GameID   string `kong:"arg,help='Game id'"`
	Agent    string `kong:"arg,help='Configured agent name'"`
	Admin    string `kong:"required,help='Secret player id of the admin'"`
}

func (c *GameInviteCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	msg, err := api.InviteAgent(ctx, c.GameID, c.Admin, c.Agent)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

type GamePlayCmd struct {
	APIFlags `embed:""`
	GameID   string `kong:"arg,help='Game id'"`
	Action   string `kong:"arg,help='Action id or name, e.g. 12, \"pair of kings\" or check'"`
	Player   string `kong:"required,help='Secret player id'"`
}

func (c *GamePlayCmd) Run() error {
	id, err := tui.ParseAction(c.Action)
	if err != nil {
		return err
	}
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	if err := api.Play(ctx, c.GameID, c.Player, id); err != nil {
		return err
	}
	fmt.Println(game.ActionName(id))
	return nil
}

type GameShowCmd struct {
	APIFlags `embed:""`
	GameID   string `kong:"arg,help='Game id'"`
	Player   string `kong:"help='Secret player id, to include your hand'"`
	Round    int    `kong:"help='Completed round to show instead of the current one'"`
}

func (c *GameShowCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	v, err := api.Game(ctx, c.GameID, c.Player, c.Round)
	if err != nil {
		return err
	}
	return printJSON(v)
}

type GameListCmd struct {
	APIFlags `embed:""`
	Count    bool `kong:"help='Print the number of active games instead'"`
}

func (c *GameListCmd) Run() error {
	api, ctx, cancel, err := c.client()
	if err != nil {
		return err
	}
	defer cancel()
	if c.Count {
		n, err := api.CountActive(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	}
	list, err := api.ListPublic(ctx)
	if err != nil {
		return err
	}
	return printJSON(list)
}

// GameActionsCmd prints every action id with its name.
type GameActionsCmd struct{}

func (c *GameActionsCmd) Run() error {
	for _, a := range game.Catalog() {
		fmt.Printf("%2d  %s\n", a.ID, a)
	}
	return nil
}
