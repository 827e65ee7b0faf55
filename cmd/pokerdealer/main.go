package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the dealer service"`
	Init    InitCmd          `cmd:"" help:"Instantiate the dealer store from configuration"`
	Shuffle ShuffleCmd       `cmd:"" help:"Print the deck order produced by a shuffle seed"`
	Deal    DealCmd          `cmd:"" help:"Deal and reveal a complete hand in memory"`
	Hand    HandCmd          `cmd:"" help:"Print an archived hand log"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerdealer"),
		kong.Description("Verifiable card dealing and secret disclosure for poker tables"),
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
