package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/google/subcommands"
)

type rebalanceCmd struct {
	cfg    *config.Config
	amount string
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "print the trades that reach target weights" }
func (*rebalanceCmd) Usage() string {
	return `portfolioctl rebalance [-amount <n>]

  Computes, for every holding, the units to buy or sell so that each one
  reaches its target weight of the current value plus the new investment.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "0", "New investment amount, thousands separators allowed.")
}

func (c *rebalanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := utils.ParseAmount(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -amount %q: %v\n", c.amount, err)
		return subcommands.ExitUsageError
	}

	srv, cleanup, err := newPortfolioService(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	snapshot, err := srv.Snapshot(ctx, amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Print(telebotConverter.RebalancingResponse(snapshot, c.cfg.Report.CurrencySymbol))

	return subcommands.ExitSuccess
}
