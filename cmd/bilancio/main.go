package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"bilancio/internal/cli"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&rebuildCmd{}, "ledger")
	commander.Register(&showCmd{}, "ledger")
	commander.Register(&importCmd{}, "data")
	commander.Register(&serveCmd{logger: logger}, "server")
	commander.Register(&authorizeCmd{}, "setup")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
