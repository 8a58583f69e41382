package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	logpkg "bilancio/internal/log"
	"bilancio/internal/sheets"
)

// EventPublisher announces finished rebuilds. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerRebuilt(ctx context.Context, evt *amqp.LedgerRebuilt) error
}

// InputCache is implemented by stores that cache ledger inputs between reads.
// Rebuild drops those entries first so every run sees the current rules.
type InputCache interface {
	InvalidateInputs()
}

// RebuildSummary describes one completed rebuild.
type RebuildSummary struct {
	RunID     string
	Year      int
	Months    []string
	Axis      core.Axis
	Final     core.BalanceVector
	NetWorth  decimal.Decimal
	Anomalies []core.Anomaly
	Result    *ledger.Result
}

// snapshot is everything a rebuild reads from the store.
type snapshot struct {
	accounts []core.Account
	rules    []core.RecurrenceRule
	oneOffs  []core.OneOffTransaction
}

// RebuildService recomputes the whole year from the store inputs and writes
// every month back. Rebuilds are serialized.
type RebuildService struct {
	store     sheets.Store
	rf        *ledger.Rollforward
	publisher EventPublisher

	mu sync.Mutex
}

// NewRebuildService validates cfg. publisher may be nil.
func NewRebuildService(store sheets.Store, cfg ledger.Config, publisher EventPublisher) (*RebuildService, error) {
	if store == nil {
		return nil, fmt.Errorf("rebuild service: nil store")
	}
	rf, err := ledger.NewRollforward(cfg)
	if err != nil {
		return nil, fmt.Errorf("rebuild service: %w", err)
	}
	return &RebuildService{
		store:     store,
		rf:        rf,
		publisher: publisher,
	}, nil
}

// Config returns the ledger configuration of the service.
func (s *RebuildService) Config() ledger.Config {
	return s.rf.Config()
}

// Rebuild runs a full rollforward and replaces every month ledger in the
// store. An empty runID gets a fresh one. Nothing is written when loading or
// computing fails; a write failure stops at the failing month.
func (s *RebuildService) Rebuild(ctx context.Context, runID string) (*RebuildSummary, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	logger := slog.Default().With(logpkg.FieldComponent, logpkg.ComponentRebuild, logpkg.FieldRunID, runID)
	logger.InfoContext(ctx, "Ledger rebuild started")

	if ic, ok := s.store.(InputCache); ok {
		ic.InvalidateInputs()
	}
	snap, err := s.load(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load ledger inputs", logpkg.FieldError, err)
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	res, err := s.rf.Run(snap.accounts, snap.rules, snap.oneOffs)
	if err != nil {
		logger.ErrorContext(ctx, "Rollforward failed", logpkg.FieldError, err)
		return nil, fmt.Errorf("rollforward: %w", err)
	}
	for _, a := range res.Anomalies {
		fields := logpkg.NewFields().WithAnomaly(string(a.Kind), a.Month, a.Subject, a.Detail)
		logger.WarnContext(ctx, "Ledger input anomaly", fields.ToSlice()...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.ClearAllMonths(ctx); err != nil {
		return nil, fmt.Errorf("clear months: %w", err)
	}

	written := make([]string, 0, len(res.Months))
	for _, ml := range res.Months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.store.WriteMonthLedger(ctx, ml.Name, ml.Rows); err != nil {
			logger.ErrorContext(ctx, "Failed to write month ledger",
				logpkg.FieldMonth, ml.Name,
				logpkg.FieldError, err)
			return nil, fmt.Errorf("write %s: %w", ml.Name, err)
		}
		written = append(written, ml.Name)
		logger.DebugContext(ctx, "Month ledger written", logpkg.NewFields().WithMonth(ml.Name, len(ml.Rows)).ToSlice()...)
	}

	cfg := s.rf.Config()
	summary := &RebuildSummary{
		RunID:     runID,
		Year:      cfg.Year,
		Months:    written,
		Axis:      cfg.Axis,
		Final:     res.Final,
		NetWorth:  res.Final.Sum(),
		Anomalies: res.Anomalies,
		Result:    res,
	}

	logger.InfoContext(ctx, "Ledger rebuild finished",
		"months", len(written),
		logpkg.FieldNetWorth, core.FormatAmount(summary.NetWorth),
		"anomalies", len(res.Anomalies),
		logpkg.FieldDuration, time.Since(start).Milliseconds())

	if err := s.publish(ctx, summary); err != nil {
		// The ledger is written; a lost event is not a failed rebuild.
		logger.ErrorContext(ctx, "Failed to publish ledger rebuilt event", logpkg.FieldError, err)
	}

	return summary, nil
}

// Month returns the rows last written for month.
func (s *RebuildService) Month(ctx context.Context, month string) ([]core.LedgerRow, error) {
	return s.store.ReadMonthLedger(ctx, month)
}

// load reads the three inputs concurrently.
func (s *RebuildService) load(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := s.store.LoadAccounts(gctx)
		if err != nil {
			return fmt.Errorf("accounts: %w", err)
		}
		snap.accounts = accounts
		return nil
	})
	g.Go(func() error {
		rules, err := s.store.LoadRecurringRules(gctx)
		if err != nil {
			return fmt.Errorf("recurring rules: %w", err)
		}
		snap.rules = rules
		return nil
	})
	g.Go(func() error {
		oneOffs, err := s.store.LoadOneOffTransactions(gctx)
		if err != nil {
			return fmt.Errorf("transactions: %w", err)
		}
		snap.oneOffs = oneOffs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RebuildService) publish(ctx context.Context, summary *RebuildSummary) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping ledger rebuilt event")
		return nil
	}
	return s.publisher.PublishLedgerRebuilt(ctx, NewLedgerRebuiltEvent(summary))
}

// NewLedgerRebuiltEvent converts a summary into its wire event.
func NewLedgerRebuiltEvent(summary *RebuildSummary) *amqp.LedgerRebuilt {
	final := make(map[string]string, len(summary.Axis))
	for i, name := range summary.Axis {
		if i < len(summary.Final) {
			final[name] = core.FormatAmount(summary.Final[i])
		}
	}
	return &amqp.LedgerRebuilt{
		RunID:      summary.RunID,
		Year:       summary.Year,
		Months:     append([]string(nil), summary.Months...),
		Final:      final,
		NetWorth:   core.FormatAmount(summary.NetWorth),
		Anomalies:  len(summary.Anomalies),
		FinishedAt: time.Now().UTC(),
	}
}
