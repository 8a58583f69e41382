package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	nethttp "net/http"
	"os"
	"time"

	"github.com/google/subcommands"

	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	logpkg "bilancio/internal/log"
	"bilancio/internal/services"
)

type serveCmd struct {
	logger *logpkg.Logger
	port   string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the ledger over HTTP" }
func (*serveCmd) Usage() string {
	return `bilancio serve [-port <port>]

  Starts the HTTP API. When AMQP_URL is set, POST /api/rebuild queues the
  rebuild for bilancio-worker; otherwise it runs in the request.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "Listen port. Overrides PORT.")
}

func (c *serveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	logger := c.logger
	if logger == nil {
		logger = logpkg.New(logpkg.DefaultConfig())
	}
	appLogger := logger.WithComponent(logpkg.ComponentApp)

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.port != "" {
		cfg.Port = c.port
	}

	res, err := cli.InitBackend(context.Background(), logger.Logger, cfg)
	if err != nil {
		appLogger.Error("Failed to initialize backend", logpkg.FieldBackend, cfg.DataBackend, logpkg.FieldError, err)
		return subcommands.ExitFailure
	}

	client, err := cli.InitAMQP(logger.Logger, cfg)
	if err != nil {
		appLogger.Error("Failed to connect to AMQP", logpkg.FieldError, err)
		_ = res.Close()
		return subcommands.ExitFailure
	}

	var (
		publisher services.EventPublisher
		queue     apphttp.RebuildQueue
	)
	if client != nil {
		publisher = client
		queue = client
	}

	svc, err := cli.InitRebuildService(cfg, res, publisher)
	if err != nil {
		appLogger.Error("Failed to initialize rebuild service", logpkg.FieldError, err)
		_ = res.Close()
		return subcommands.ExitFailure
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, queue, logger)

	_, done := cli.GracefulShutdown(appLogger.Logger, 10*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			appLogger.Error("HTTP server shutdown error", logpkg.FieldError, err)
		}
		if client != nil {
			if err := client.Close(); err != nil {
				appLogger.Error("AMQP client close error", logpkg.FieldError, err)
			}
		}
		if err := res.Close(); err != nil {
			appLogger.Error("Backend close error", logpkg.FieldError, err)
		}
	})

	appLogger.Info("Starting HTTP server",
		"addr", srv.Addr,
		logpkg.FieldBackend, cfg.DataBackend,
		"ledger_year", cfg.LedgerYear)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		appLogger.Error("Server error", logpkg.FieldError, err)
		return subcommands.ExitFailure
	}
	<-done
	return subcommands.ExitSuccess
}
