package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"bilancio/internal/cli"
	logpkg "bilancio/internal/log"
	"bilancio/internal/services"
)

type rebuildCmd struct {
	runID   string
	publish bool
}

func (*rebuildCmd) Name() string { return "rebuild" }
func (*rebuildCmd) Synopsis() string {
	return "recompute every month of the ledger and write it back to the store"
}
func (*rebuildCmd) Usage() string {
	return `bilancio rebuild [-run <id>] [-publish]

  Loads accounts, recurring rules and one-off transactions from the
  configured backend, rolls the balances forward through the year and
  replaces every month ledger. Prints the final balance of each account.
`
}

func (c *rebuildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.runID, "run", "", "Run identifier. A random one is generated when empty.")
	f.BoolVar(&c.publish, "publish", true, "Publish a LedgerRebuilt event when AMQP_URL is set.")
}

func (c *rebuildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := slog.Default().With(logpkg.FieldComponent, logpkg.ComponentCLI)

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s backend: %v\n", cfg.DataBackend, err)
		return subcommands.ExitFailure
	}
	defer res.Close()

	var publisher services.EventPublisher
	if c.publish {
		client, err := cli.InitAMQP(logger, cfg)
		if err != nil {
			// The ledger is still worth rebuilding without the event.
			logger.Warn("AMQP unavailable, rebuilding without events", logpkg.FieldError, err)
		}
		if client != nil {
			defer client.Close()
			publisher = client
		}
	}

	svc, err := cli.InitRebuildService(cfg, res, publisher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	summary, err := svc.Rebuild(ctx, c.runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Rebuilt %d months for %d (run %s, %d anomalies)\n",
		len(summary.Months), summary.Year, summary.RunID, len(summary.Anomalies))
	if err := writeBalances(os.Stdout, summary.Axis, summary.Final, cfg.LedgerCurrency); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
