package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/google/subcommands"
)

type recordCmd struct {
	cfg  *config.Config
	memo string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "append today's total value to the history" }
func (*recordCmd) Usage() string {
	return `portfolioctl record [-memo <text>]

  Values the portfolio and appends a history record for today. Refuses to
  record twice on the same date.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.memo, "memo", "", `Memo for the record (defaults to "Manual Record").`)
}

func (c *recordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	srv, cleanup, err := newPortfolioService(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	record, err := srv.RecordToday(ctx, c.memo)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRecorded) {
			fmt.Fprintln(os.Stderr, "Today's record already exists.")
			return subcommands.ExitFailure
		}
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Println(telebotConverter.RecordResponse(record, c.cfg.Report.CurrencySymbol))
	return subcommands.ExitSuccess
}
