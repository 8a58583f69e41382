package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"bilancio/internal/cli"
	logpkg "bilancio/internal/log"
	"bilancio/internal/sheets"
)

type showCmd struct {
	month string
	csv   bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print a month ledger as written by the last rebuild" }
func (*showCmd) Usage() string {
	return `bilancio show -month <name> [-csv]

  Reads one month ledger back from the configured backend and prints it
  as an aligned table, or as CSV with -csv.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month name as configured in LEDGER_MONTHS (e.g. March).")
	f.BoolVar(&c.csv, "csv", false, "Print CSV instead of a table.")
}

func (c *showCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month == "" {
		fmt.Fprintln(os.Stderr, "-month is required")
		return subcommands.ExitUsageError
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	logger := slog.Default().With(logpkg.FieldComponent, logpkg.ComponentCLI)
	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s backend: %v\n", cfg.DataBackend, err)
		return subcommands.ExitFailure
	}
	defer res.Close()

	rows, err := res.Store.ReadMonthLedger(ctx, c.month)
	if errors.Is(err, sheets.ErrMonthNotFound) {
		fmt.Fprintf(os.Stderr, "Month %q has not been written; run bilancio rebuild first\n", c.month)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", c.month, err)
		return subcommands.ExitFailure
	}

	if c.csv {
		err = writeCSV(os.Stdout, cfg.LedgerAccounts, rows)
	} else {
		err = writeTable(os.Stdout, cfg.LedgerAccounts, rows, cfg.LedgerCurrency)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
