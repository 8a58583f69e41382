package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilancio/internal/cli"
	logpkg "bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(logpkg.ComponentWorker)

	logger.Info("Starting bilancio-worker")

	cfg, err := cli.LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed", logpkg.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	res, err := cli.InitBackend(context.Background(), logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", logpkg.FieldBackend, cfg.DataBackend, logpkg.FieldError, err)
		os.Exit(1)
	}

	client, err := cli.InitAMQP(logger.Logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", logpkg.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	svc, err := cli.InitRebuildService(cfg, res, client)
	if err != nil {
		logger.Error("Failed to initialize rebuild service", logpkg.FieldError, err)
		_ = client.Close()
		_ = res.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(_ context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP client close error", logpkg.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", logpkg.FieldError, err)
		}
	})

	logger.Info("Worker started, waiting for rebuild requests",
		"queue", cfg.AMQPRebuildQueue,
		logpkg.FieldBackend, cfg.DataBackend)

	if err := worker.NewRebuildWorker(svc, client).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Rebuild worker stopped", logpkg.FieldError, err)
		os.Exit(1)
	}
	<-done
}
