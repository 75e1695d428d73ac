package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version     kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel    string           `help:"Override LOG_LEVEL (debug, info, warn, error)"`
	Rules       string           `type:"path" help:"HCL table rules file (overrides RULES_FILE)"`
	Play        PlayCmd          `cmd:"" default:"withargs" help:"Sit down at an interactive table"`
	Migrate     MigrateCmd       `cmd:"" help:"Create or upgrade the SQLite databases"`
	Stats       StatsCmd         `cmd:"" help:"Show a player's statistics"`
	Leaderboard LeaderboardCmd   `cmd:"" help:"Show players ranked by net profit"`
	History     HistoryCmd       `cmd:"" help:"List a player's recent rounds"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Multi-player blackjack table with persistent bankrolls"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
