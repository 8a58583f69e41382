package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	logpkg "bilancio/internal/log"
	"bilancio/internal/services"
)

// Rebuilder runs a full ledger rebuild. *services.RebuildService implements it.
type Rebuilder interface {
	Rebuild(ctx context.Context, runID string) (*services.RebuildSummary, error)
}

// RequestConsumer delivers rebuild requests. *amqp.Client implements it.
type RequestConsumer interface {
	ConsumeRebuildRequests(ctx context.Context, handler func(context.Context, *amqp.RebuildRequest) error) error
}

// completedTTL bounds how long a finished run id is remembered, so a
// redelivered request does not rewrite the ledger a second time.
const completedTTL = 10 * time.Minute

// RebuildWorker consumes rebuild requests and runs them one at a time.
type RebuildWorker struct {
	rebuilder Rebuilder
	consumer  RequestConsumer
	completed *cache.Cache
}

func NewRebuildWorker(rebuilder Rebuilder, consumer RequestConsumer) *RebuildWorker {
	return &RebuildWorker{
		rebuilder: rebuilder,
		consumer:  consumer,
		completed: cache.New(completedTTL, 2*completedTTL),
	}
}

// Run blocks consuming requests until ctx is cancelled.
func (w *RebuildWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Rebuild worker started", logpkg.FieldComponent, logpkg.ComponentWorker)
	err := w.consumer.ConsumeRebuildRequests(ctx, w.HandleRebuildRequest)
	if ctx.Err() != nil {
		slog.InfoContext(context.Background(), "Rebuild worker stopped", logpkg.FieldComponent, logpkg.ComponentWorker)
		return nil
	}
	return err
}

// HandleRebuildRequest processes a single rebuild request from AMQP
func (w *RebuildWorker) HandleRebuildRequest(ctx context.Context, msg *amqp.RebuildRequest) error {
	if msg.RunID != "" {
		if _, done := w.completed.Get(msg.RunID); done {
			slog.InfoContext(ctx, "Skipping already completed rebuild",
				logpkg.FieldComponent, logpkg.ComponentWorker,
				logpkg.FieldRunID, msg.RunID)
			return nil
		}
	}

	slog.InfoContext(ctx, "Processing rebuild request",
		logpkg.FieldComponent, logpkg.ComponentWorker,
		logpkg.FieldRunID, msg.RunID,
		logpkg.FieldReason, msg.Reason,
		"queued_for", time.Since(msg.RequestedAt).Round(time.Millisecond))

	summary, err := w.rebuilder.Rebuild(ctx, msg.RunID)
	if err != nil {
		return fmt.Errorf("rebuild %s: %w", msg.RunID, err)
	}
	w.completed.SetDefault(summary.RunID, struct{}{})

	slog.InfoContext(ctx, "Rebuild request completed",
		logpkg.FieldComponent, logpkg.ComponentWorker,
		logpkg.FieldRunID, summary.RunID,
		"months", len(summary.Months),
		logpkg.FieldNetWorth, core.FormatAmount(summary.NetWorth))
	return nil
}
