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
	"bilancio/internal/sheets/memory"
)

type importCmd struct {
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "load accounts, rules and transactions from a YAML seed" }
func (*importCmd) Usage() string {
	return `bilancio import -f <seed.yaml>

  Replaces the ledger inputs stored in the SQLite backend with the
  content of a YAML seed file. Existing month ledgers are left alone
  until the next rebuild.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Path of the YAML seed file.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "-f is required")
		return subcommands.ExitUsageError
	}

	seed, err := memory.LoadSeed(c.file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	accounts, err := seed.AccountRecords()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rules, err := seed.RuleRecords()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	txs, err := seed.TransactionRecords()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
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

	if res.Importer == nil {
		fmt.Fprintf(os.Stderr, "The %s backend does not support import; set DATA_BACKEND=sqlite\n", cfg.DataBackend)
		return subcommands.ExitFailure
	}
	if err := res.Importer.Import(ctx, accounts, rules, txs); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		return subcommands.ExitFailure
	}

	logger.Info("Imported ledger inputs",
		logpkg.FieldOperation, logpkg.OpImport,
		"accounts", len(accounts),
		"rules", len(rules),
		"transactions", len(txs))
	fmt.Printf("Imported %d accounts, %d recurring rules, %d transactions\n", len(accounts), len(rules), len(txs))
	return subcommands.ExitSuccess
}
