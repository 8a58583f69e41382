package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
)

const seedYAML = `
accounts:
  - name: Checking
    balance: "1.000,50"
  - name: Savings
    balance: "500"
recurring:
  - description: "--- Income ---"
  - description: Salary
    category: Income
    amount: "2000"
    account: Checking
    frequency: Monthly
    start_date: "2025-01-01"
    day_of_month: 1
  - description: Old gym
    category: Health
    amount: "40"
    account: Checking
    frequency: monthly
    start_date: "2024-01-01"
    end_date: "2024-12-31"
    active: false
transactions:
  - date: "2025-03-15"
    description: Groceries
    category: Expense
    account: Checking
    amount: "200"
  - date: "2025-03-20"
    description: To savings
    category: Transfer
    account: Checking
    amount: "-100"
    transfer_to: Savings
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestNewFromFile(t *testing.T) {
	st, err := NewFromFile(writeSeed(t, seedYAML))
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	ctx := context.Background()

	accounts, _ := st.LoadAccounts(ctx)
	if len(accounts) != 2 || !accounts[0].Balance.Equal(decimal.RequireFromString("1000.5")) {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}

	rules, _ := st.LoadRecurringRules(ctx)
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if !rules[0].Divider {
		t.Errorf("divider row not flagged: %+v", rules[0])
	}
	salary := rules[1]
	if salary.Frequency != core.Monthly || !salary.Active || salary.DayOfMonth != 1 || !salary.IsOpenEnded() {
		t.Errorf("unexpected salary rule: %+v", salary)
	}
	if rules[2].Active || !rules[2].EndDate.Equal(core.NewDate(2024, 12, 31)) {
		t.Errorf("unexpected gym rule: %+v", rules[2])
	}

	txs, _ := st.LoadOneOffTransactions(ctx)
	if len(txs) != 2 || txs[1].TransferTo != "Savings" || !txs[0].Date.Equal(core.NewDate(2025, 3, 15)) {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
}

func TestNewFromFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "acounts: []\n"},
		{"bad balance", "accounts:\n  - name: A\n    balance: lots\n"},
		{"bad start date", "recurring:\n  - description: X\n    start_date: someday\n"},
		{"bad transaction date", "transactions:\n  - description: X\n    date: 2025-13-45\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFromFile(writeSeed(t, tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewFromFile_EmptyPath(t *testing.T) {
	st, err := NewFromFile("")
	if err != nil {
		t.Fatal(err)
	}
	accounts, _ := st.LoadAccounts(context.Background())
	if len(accounts) != 0 {
		t.Fatalf("expected empty store, got %v", accounts)
	}
}

func TestLedgerWriteReadClear(t *testing.T) {
	ctx := context.Background()
	st := New(nil, nil, nil)

	if _, err := st.ReadMonthLedger(ctx, "March"); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected ErrMonthNotFound, got %v", err)
	}

	amount := decimal.NewFromInt(-200)
	rows := []core.LedgerRow{
		{Date: core.NewDate(2025, 3, 1), Description: core.StartingBalanceLabel, Source: core.SourceInitial, Balances: core.BalanceVector{decimal.NewFromInt(1000)}, NetWorth: decimal.NewFromInt(1000)},
		{Date: core.NewDate(2025, 3, 15), Description: "Groceries", Amount: &amount, Source: core.SourceSingle, Balances: core.BalanceVector{decimal.NewFromInt(800)}, NetWorth: decimal.NewFromInt(800)},
	}
	if err := st.WriteMonthLedger(ctx, "March", rows); err != nil {
		t.Fatal(err)
	}
	rows[1].Balances[0] = decimal.Zero

	got, err := st.ReadMonthLedger(ctx, "March")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[1].Balances[0].Equal(decimal.NewFromInt(800)) {
		t.Fatalf("store aliases caller rows: %+v", got)
	}

	if err := st.WriteMonthLedger(ctx, "March", rows[:1]); err != nil {
		t.Fatal(err)
	}
	got, _ = st.ReadMonthLedger(ctx, "March")
	if len(got) != 1 {
		t.Fatalf("write did not replace: %d rows", len(got))
	}

	for i := 0; i < 2; i++ {
		if err := st.ClearAllMonths(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(st.Months()) != 0 {
		t.Fatalf("months left after clear: %v", st.Months())
	}
}
