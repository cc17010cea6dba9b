package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/repository/xlsx"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type seedCmd struct {
	cfg   *config.Config
	path  string
	force bool
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create a sample portfolio workbook" }
func (*seedCmd) Usage() string {
	return `portfolioctl seed [-path <file>] [-force]

  Writes a workbook with a Portfolio sheet of four sample holdings and a
  History sheet with a single initial record.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "path", "", "Workbook to create (defaults to STORE_XLSX_PATH).")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing workbook.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := c.path
	if path == "" {
		path = c.cfg.Store.XlsxPath
	}

	if _, err := os.Stat(path); err == nil && !c.force {
		fmt.Fprintf(os.Stderr, "%s already exists, use -force to overwrite\n", path)
		return subcommands.ExitFailure
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if err := xlsx.New(path).Create(ctx, samplePositions(), sampleHistory()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Created %s\n", path)
	return subcommands.ExitSuccess
}

func samplePositions() []model.Position {
	return []model.Position{
		{Ticker: "360750", Name: "TIGER 글로벌리튬&2차전지SOLACTIVE(합성)", Category: "Theme", Quantity: decimal.RequireFromString("85.72653"), TargetWeight: decimal.RequireFromString("0.1")},
		{Ticker: "456780", Name: "ACE 애플밸류체인Active", Category: "Theme", Quantity: decimal.RequireFromString("298.8439"), TargetWeight: decimal.RequireFromString("0.3")},
		{Ticker: "005930", Name: "삼성전자", Category: "Domestic", Quantity: decimal.NewFromInt(10), TargetWeight: decimal.RequireFromString("0.2")},
		{Ticker: "SPY", Name: "SPDR S&P 500 ETF Trust", Category: "US Market", Quantity: decimal.NewFromInt(5), TargetWeight: decimal.RequireFromString("0.4")},
	}
}

func sampleHistory() []model.HistoryRecord {
	return []model.HistoryRecord{
		{Date: "2023-01-01", TotalAsset: decimal.NewFromInt(10000000), ProfitRate: decimal.Zero, Memo: "Initial Setup"},
	}
}
