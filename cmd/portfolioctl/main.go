package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/google/subcommands"
)

func main() {
	cfg := config.MustLoad()

	// stdout is for command output, logs go to stderr
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands(cfg) {
		commander.Register(c, "")
	}

	flag.Parse()
	ctx := utils.NewCtxWithRqID(context.Background())
	os.Exit(int(commander.Execute(ctx)))
}

func commands(cfg *config.Config) []subcommands.Command {
	return []subcommands.Command{
		&seedCmd{cfg: cfg},
		&importCmd{cfg: cfg},
		&showCmd{cfg: cfg},
		&rebalanceCmd{cfg: cfg},
		&recordCmd{cfg: cfg},
		&reportCmd{cfg: cfg},
	}
}
