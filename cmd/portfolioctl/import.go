package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data"
	"github.com/KotFed0t/portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/portfolio_tracker/data/repository/xlsx"
	"github.com/google/subcommands"
)

type importCmd struct {
	cfg  *config.Config
	path string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "copy a workbook into postgres, replacing its contents" }
func (*importCmd) Usage() string {
	return `portfolioctl import [-path <file>]

  Loads the Portfolio and History sheets and replaces both postgres tables
  in a single transaction. Uses the PG_* settings.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "path", "", "Workbook to import (defaults to STORE_XLSX_PATH).")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := c.path
	if path == "" {
		path = c.cfg.Store.XlsxPath
	}

	source := xlsx.New(path)
	positions, err := source.LoadPositions(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't read %s: %v\n", path, err)
		return subcommands.ExitFailure
	}
	history, err := source.LoadHistory(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't read history from %s: %v\n", path, err)
		return subcommands.ExitFailure
	}

	db, err := data.ConnectPostgres(ctx, c.cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if err := postgres.NewPostgres(db).ReplaceAll(ctx, positions, history); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %d positions and %d history records\n", len(positions), len(history))
	return subcommands.ExitSuccess
}
