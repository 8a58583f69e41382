package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Account struct {
	Name     string
	Position int64
	Balance  string
}

type RecurringRule struct {
	ID          int64
	Description string
	Category    string
	Amount      string
	Account     string
	Frequency   string
	StartDate   string
	EndDate     string
	DayOfMonth  int64
	DayOfWeek   int64
	Active      bool
}

type Transaction struct {
	ID          int64
	Date        string
	Description string
	Category    string
	Account     string
	Amount      string
	TransferTo  string
}

type LedgerRow struct {
	Month       string
	Seq         int64
	Date        string
	Description string
	Category    string
	Account     string
	Amount      sql.NullString
	Source      string
	Balances    string
	NetWorth    string
}

const listAccounts = `SELECT name, position, balance FROM accounts ORDER BY position`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.Name, &i.Position, &i.Balance); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createAccount = `INSERT INTO accounts (name, position, balance) VALUES (?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, arg Account) error {
	_, err := q.db.ExecContext(ctx, createAccount, arg.Name, arg.Position, arg.Balance)
	return err
}

const listRecurringRules = `SELECT id, description, category, amount, account, frequency, start_date, end_date, day_of_month, day_of_week, active
FROM recurring_rules ORDER BY id`

func (q *Queries) ListRecurringRules(ctx context.Context) ([]RecurringRule, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringRules)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringRule
	for rows.Next() {
		var i RecurringRule
		if err := rows.Scan(
			&i.ID,
			&i.Description,
			&i.Category,
			&i.Amount,
			&i.Account,
			&i.Frequency,
			&i.StartDate,
			&i.EndDate,
			&i.DayOfMonth,
			&i.DayOfWeek,
			&i.Active,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createRecurringRule = `INSERT INTO recurring_rules
(description, category, amount, account, frequency, start_date, end_date, day_of_month, day_of_week, active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRecurringRule(ctx context.Context, arg RecurringRule) error {
	_, err := q.db.ExecContext(ctx, createRecurringRule,
		arg.Description,
		arg.Category,
		arg.Amount,
		arg.Account,
		arg.Frequency,
		arg.StartDate,
		arg.EndDate,
		arg.DayOfMonth,
		arg.DayOfWeek,
		arg.Active,
	)
	return err
}

const listTransactions = `SELECT id, date, description, category, account, amount, transfer_to FROM transactions ORDER BY id`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.Date, &i.Description, &i.Category, &i.Account, &i.Amount, &i.TransferTo); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createTransaction = `INSERT INTO transactions (date, description, category, account, amount, transfer_to) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction, arg.Date, arg.Description, arg.Category, arg.Account, arg.Amount, arg.TransferTo)
	return err
}

func (q *Queries) DeleteInputs(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM accounts", "DELETE FROM recurring_rules", "DELETE FROM transactions"} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const upsertLedgerMonth = `INSERT INTO ledger_months (month, written_at) VALUES (?, CURRENT_TIMESTAMP)
ON CONFLICT(month) DO UPDATE SET written_at = excluded.written_at`

func (q *Queries) UpsertLedgerMonth(ctx context.Context, month string) error {
	_, err := q.db.ExecContext(ctx, upsertLedgerMonth, month)
	return err
}

const deleteLedgerRows = `DELETE FROM ledger_rows WHERE month = ?`

func (q *Queries) DeleteLedgerRows(ctx context.Context, month string) error {
	_, err := q.db.ExecContext(ctx, deleteLedgerRows, month)
	return err
}

const createLedgerRow = `INSERT INTO ledger_rows
(month, seq, date, description, category, account, amount, source, balances, net_worth)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateLedgerRow(ctx context.Context, arg LedgerRow) error {
	_, err := q.db.ExecContext(ctx, createLedgerRow,
		arg.Month,
		arg.Seq,
		arg.Date,
		arg.Description,
		arg.Category,
		arg.Account,
		arg.Amount,
		arg.Source,
		arg.Balances,
		arg.NetWorth,
	)
	return err
}

const ledgerMonthExists = `SELECT COUNT(*) FROM ledger_months WHERE month = ?`

func (q *Queries) LedgerMonthExists(ctx context.Context, month string) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, ledgerMonthExists, month).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const listLedgerRows = `SELECT month, seq, date, description, category, account, amount, source, balances, net_worth
FROM ledger_rows WHERE month = ? ORDER BY seq`

func (q *Queries) ListLedgerRows(ctx context.Context, month string) ([]LedgerRow, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerRows, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerRow
	for rows.Next() {
		var i LedgerRow
		if err := rows.Scan(
			&i.Month,
			&i.Seq,
			&i.Date,
			&i.Description,
			&i.Category,
			&i.Account,
			&i.Amount,
			&i.Source,
			&i.Balances,
			&i.NetWorth,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listLedgerMonths = `SELECT month FROM ledger_months ORDER BY month`

func (q *Queries) ListLedgerMonths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerMonths)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteAllLedgers(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM ledger_rows", "DELETE FROM ledger_months"} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
