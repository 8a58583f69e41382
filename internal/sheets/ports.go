package sheets

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	// AccountRegistry returns the current balance of every tracked account.
	AccountRegistry interface {
		LoadAccounts(ctx context.Context) ([]core.Account, error)
	}

	// RuleReader returns the raw recurring rules, dividers and inactive rows
	// included.
	RuleReader interface {
		LoadRecurringRules(ctx context.Context) ([]core.RecurrenceRule, error)
	}

	// TransactionReader returns every one-off transaction, unfiltered by month.
	TransactionReader interface {
		LoadOneOffTransactions(ctx context.Context) ([]core.OneOffTransaction, error)
	}

	LedgerWriter interface {
		// WriteMonthLedger replaces everything stored under month with rows.
		WriteMonthLedger(ctx context.Context, month string, rows []core.LedgerRow) error
		// ClearAllMonths empties every month. Calling it twice is harmless.
		ClearAllMonths(ctx context.Context) error
	}

	// LedgerReader returns the rows last written for month.
	LedgerReader interface {
		ReadMonthLedger(ctx context.Context, month string) ([]core.LedgerRow, error)
	}

	// Source is everything a rebuild reads.
	Source interface {
		AccountRegistry
		RuleReader
		TransactionReader
	}

	// Store is a full backend: it feeds rebuilds and keeps their output.
	Store interface {
		Source
		LedgerWriter
		LedgerReader
	}
)

// ErrMonthNotFound is returned by LedgerReader when month was never written
// or does not exist in the store.
var ErrMonthNotFound = errors.New("month ledger not found")
