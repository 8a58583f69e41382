package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside one transaction and rolls back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadAccounts implements sheets.AccountRegistry
func (r *SQLiteRepository) LoadAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, a := range rows {
		bal, err := decimal.NewFromString(a.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %s balance %q: %w", a.Name, a.Balance, err)
		}
		out = append(out, core.Account{Name: a.Name, Balance: bal})
	}
	return out, nil
}

// LoadRecurringRules implements sheets.RuleReader
func (r *SQLiteRepository) LoadRecurringRules(ctx context.Context) ([]core.RecurrenceRule, error) {
	rows, err := r.queries.ListRecurringRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	out := make([]core.RecurrenceRule, 0, len(rows))
	for _, rr := range rows {
		start, _ := core.ParseDate(rr.StartDate)
		end, _ := core.ParseDate(rr.EndDate)
		out = append(out, core.RecurrenceRule{
			Description: rr.Description,
			Category:    rr.Category,
			Amount:      rr.Amount,
			Account:     rr.Account,
			Frequency:   core.Frequency(rr.Frequency),
			StartDate:   start,
			EndDate:     end,
			DayOfMonth:  int(rr.DayOfMonth),
			DayOfWeek:   int(rr.DayOfWeek),
			Active:      rr.Active,
			Divider:     core.IsDividerLabel(rr.Description),
		})
	}
	return out, nil
}

// LoadOneOffTransactions implements sheets.TransactionReader
func (r *SQLiteRepository) LoadOneOffTransactions(ctx context.Context) ([]core.OneOffTransaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.OneOffTransaction, 0, len(rows))
	for _, t := range rows {
		d, _ := core.ParseDate(t.Date)
		out = append(out, core.OneOffTransaction{
			Date:        d,
			Description: t.Description,
			Category:    t.Category,
			Account:     t.Account,
			Amount:      t.Amount,
			TransferTo:  t.TransferTo,
		})
	}
	return out, nil
}

// Import replaces the account registry, the recurring rules and the one-off
// transactions in a single transaction.
func (r *SQLiteRepository) Import(ctx context.Context, accounts []core.Account, rules []core.RecurrenceRule, txs []core.OneOffTransaction) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteInputs(ctx); err != nil {
			return fmt.Errorf("delete inputs: %w", err)
		}
		for i, a := range accounts {
			if err := q.CreateAccount(ctx, Account{Name: a.Name, Position: int64(i), Balance: a.Balance.String()}); err != nil {
				return fmt.Errorf("insert account %s: %w", a.Name, err)
			}
		}
		for _, rr := range rules {
			if err := q.CreateRecurringRule(ctx, RecurringRule{
				Description: rr.Description,
				Category:    rr.Category,
				Amount:      rr.Amount,
				Account:     rr.Account,
				Frequency:   string(rr.Frequency),
				StartDate:   rr.StartDate.String(),
				EndDate:     rr.EndDate.String(),
				DayOfMonth:  int64(rr.DayOfMonth),
				DayOfWeek:   int64(rr.DayOfWeek),
				Active:      rr.Active,
			}); err != nil {
				return fmt.Errorf("insert rule %s: %w", rr.Description, err)
			}
		}
		for _, t := range txs {
			if err := q.CreateTransaction(ctx, Transaction{
				Date:        t.Date.String(),
				Description: t.Description,
				Category:    t.Category,
				Account:     t.Account,
				Amount:      t.Amount,
				TransferTo:  t.TransferTo,
			}); err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.Description, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger inputs imported into SQLite",
		"accounts", len(accounts),
		"rules", len(rules),
		"transactions", len(txs))
	return nil
}

// WriteMonthLedger implements sheets.LedgerWriter. The month is replaced in
// one transaction so a failed write leaves the previous content in place.
func (r *SQLiteRepository) WriteMonthLedger(ctx context.Context, month string, rows []core.LedgerRow) error {
	if month == "" {
		return fmt.Errorf("write ledger: empty month name")
	}
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteLedgerRows(ctx, month); err != nil {
			return fmt.Errorf("delete %s rows: %w", month, err)
		}
		if err := q.UpsertLedgerMonth(ctx, month); err != nil {
			return fmt.Errorf("upsert %s: %w", month, err)
		}
		for i, lr := range rows {
			rec, err := toRecord(month, int64(i), lr)
			if err != nil {
				return err
			}
			if err := q.CreateLedgerRow(ctx, rec); err != nil {
				return fmt.Errorf("insert %s row %d: %w", month, i, err)
			}
		}
		return nil
	})
}

// ClearAllMonths implements sheets.LedgerWriter
func (r *SQLiteRepository) ClearAllMonths(ctx context.Context) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllLedgers(ctx); err != nil {
			return fmt.Errorf("clear ledgers: %w", err)
		}
		return nil
	})
}

// ReadMonthLedger implements sheets.LedgerReader
func (r *SQLiteRepository) ReadMonthLedger(ctx context.Context, month string) ([]core.LedgerRow, error) {
	ok, err := r.queries.LedgerMonthExists(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", month, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", month, ports.ErrMonthNotFound)
	}
	recs, err := r.queries.ListLedgerRows(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list %s rows: %w", month, err)
	}
	out := make([]core.LedgerRow, 0, len(recs))
	for _, rec := range recs {
		lr, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, nil
}

// Months lists the month names that currently hold a written ledger.
func (r *SQLiteRepository) Months(ctx context.Context) ([]string, error) {
	return r.queries.ListLedgerMonths(ctx)
}

func toRecord(month string, seq int64, lr core.LedgerRow) (LedgerRow, error) {
	balances, err := json.Marshal(lr.Balances)
	if err != nil {
		return LedgerRow{}, fmt.Errorf("encode balances: %w", err)
	}
	rec := LedgerRow{
		Month:       month,
		Seq:         seq,
		Date:        lr.Date.String(),
		Description: lr.Description,
		Category:    lr.Category,
		Account:     lr.Account,
		Source:      string(lr.Source),
		Balances:    string(balances),
		NetWorth:    lr.NetWorth.String(),
	}
	if lr.Amount != nil {
		rec.Amount = sql.NullString{String: lr.Amount.String(), Valid: true}
	}
	return rec, nil
}

func fromRecord(rec LedgerRow) (core.LedgerRow, error) {
	d, err := core.ParseDate(rec.Date)
	if err != nil {
		return core.LedgerRow{}, fmt.Errorf("%s row %d: %w", rec.Month, rec.Seq, err)
	}
	var balances core.BalanceVector
	if err := json.Unmarshal([]byte(rec.Balances), &balances); err != nil {
		return core.LedgerRow{}, fmt.Errorf("%s row %d balances: %w", rec.Month, rec.Seq, err)
	}
	netWorth, err := decimal.NewFromString(rec.NetWorth)
	if err != nil {
		return core.LedgerRow{}, fmt.Errorf("%s row %d net worth: %w", rec.Month, rec.Seq, err)
	}
	lr := core.LedgerRow{
		Date:        d,
		Description: rec.Description,
		Category:    rec.Category,
		Account:     rec.Account,
		Source:      core.Source(rec.Source),
		Balances:    balances,
		NetWorth:    netWorth,
	}
	if rec.Amount.Valid {
		a, err := decimal.NewFromString(rec.Amount.String)
		if err != nil {
			return core.LedgerRow{}, fmt.Errorf("%s row %d amount: %w", rec.Month, rec.Seq, err)
		}
		lr.Amount = &a
	}
	return lr, nil
}
