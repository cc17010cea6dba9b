package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/telebotConverter"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type showCmd struct {
	cfg *config.Config
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print the dashboard" }
func (*showCmd) Usage() string {
	return `portfolioctl show

  Prints total value, daily change, allocation by category and holdings.
`
}

func (*showCmd) SetFlags(*flag.FlagSet) {}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	srv, cleanup, err := newPortfolioService(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	snapshot, err := srv.Snapshot(ctx, decimal.Zero)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Print(telebotConverter.FullDashboard(snapshot, c.cfg.Report.CurrencySymbol))
	fmt.Println()
	fmt.Print(telebotConverter.HistoryResponse(snapshot.History, c.cfg.Report.HistoryRows, c.cfg.Report.CurrencySymbol))

	return subcommands.ExitSuccess
}
