package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the game server"`
	Agent   AgentCmd         `cmd:"" help:"Serve the built-in agent strategies as a decision service"`
	Watch   WatchCmd         `cmd:"" help:"Watch a game or the public lobby in the terminal"`
	Game    GameCmd          `cmd:"" help:"Call the game API"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blef"),
		kong.Description("Server and tools for Blef, the bluffing card game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
