package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/google/subcommands"
)

type reportCmd struct {
	cfg    *config.Config
	amount string
	out    string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "write the xlsx report" }
func (*reportCmd) Usage() string {
	return `portfolioctl report [-amount <n>] [-o <file>]
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "0", "New investment amount for the Rebalancing sheet.")
	f.StringVar(&c.out, "o", "", "Output file (defaults to portfolio_<date>.xlsx).")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	fileBytes, fileName, err := srv.ExportReport(ctx, amount)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	out := c.out
	if out == "" {
		out = fileName
	}
	if err := os.WriteFile(out, fileBytes, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Wrote %s\n", out)
	return subcommands.ExitSuccess
}
