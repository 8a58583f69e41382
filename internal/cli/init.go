// Package cli provides common CLI initialization utilities shared by
// cmd/bilancio and cmd/bilancio-worker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/config"
	logpkg "bilancio/internal/log"
	"bilancio/internal/services"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and sets
// it as the default logger.
func SetupLogger(level string) *logpkg.Logger {
	cfg := logpkg.DefaultConfig()
	cfg.Level = logpkg.ParseLevel(level)
	cfg.Output = os.Stderr
	logger := logpkg.New(cfg)
	logpkg.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads configuration from the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitBackend opens the store selected by DATA_BACKEND.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// InitAMQP connects to the broker when AMQP_URL is set. A nil client with a
// nil error means messaging is disabled.
func InitAMQP(logger *slog.Logger, cfg *config.Config) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRebuildQueue, cfg.AMQPEventsRoutingKey)
	if err != nil {
		return nil, err
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPRebuildQueue,
		"events_routing_key", cfg.AMQPEventsRoutingKey)
	return client, nil
}

// InitRebuildService wires the rebuild service to the store. publisher may be
// nil.
func InitRebuildService(cfg *config.Config, res *backend.BackendResult, publisher services.EventPublisher) (*services.RebuildService, error) {
	lc, err := cfg.LedgerConfig()
	if err != nil {
		return nil, err
	}
	return services.NewRebuildService(res.Store, lc, publisher)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when cleanup has finished.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
