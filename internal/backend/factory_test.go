package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/config"
	"bilancio/internal/ledger"
)

const seedYAML = `accounts:
  - name: Checking
    balance: "1000"
recurring:
  - description: Salary
    category: Income
    amount: "2000"
    account: Checking
    frequency: monthly
    start_date: "2025-01-01"
    day_of_month: 1
transactions: []
`

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("postgres").IsValid() {
		t.Error("postgres should not be valid")
	}
	if got := GetBackendTypeStrings(); len(got) != 3 || got[0] != "memory" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	app := &config.Config{
		DataBackend:           "sheets",
		GoogleSpreadsheetID:   "sheet-id",
		AccountsSheetName:     "Accounts",
		RecurringSheetName:    "Recurring",
		TransactionsSheetName: "Transactions",
		SheetsCacheTTL:        time.Minute,
		LedgerAccounts:        []string{"Checking", "Savings"},
		LedgerYear:            2025,
		LedgerStartMonth:      1,
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.Sheets.SpreadsheetID != "sheet-id" || cfg.Sheets.CacheTTL != time.Minute {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Sheets.Months != ledger.DefaultMonths || len(cfg.Sheets.Accounts) != 2 {
		t.Errorf("sheets months/accounts not taken from the ledger config: %+v", cfg.Sheets)
	}

	app.LedgerAccounts = nil
	if _, err := FromAppConfig(app); err == nil {
		t.Error("expected ledger config error for sheets backend without accounts")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory without seed", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"unknown type", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seed, []byte(seedYAML), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: seed})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Importer != nil {
		t.Error("memory backend should not support import")
	}
	accounts, err := res.Store.LoadAccounts(context.Background())
	if err != nil || len(accounts) != 1 {
		t.Fatalf("LoadAccounts = %v, %v", accounts, err)
	}
}

func TestCreateBackend_MemoryMissingSeed(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: "/non/existent.yaml"})
	if err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bilancio.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Close()

	if res.Importer == nil || res.Cleanup == nil {
		t.Fatal("sqlite backend should support import and cleanup")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
