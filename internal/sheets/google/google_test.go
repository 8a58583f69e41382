package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/services"
	ports "bilancio/internal/sheets"

	goption "google.golang.org/api/option"
)

// fakeSheets emulates the subset of the Values API the client uses. Any range
// on a sheet addresses the whole sheet.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]interface{}
	gets   int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/v4/spreadsheets/test-id/values"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	if rest == ":batchClear" {
		var req struct {
			Ranges []string `json:"ranges"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rng := range req.Ranges {
			if _, ok := f.sheets[sheetOf(rng)]; ok {
				f.sheets[sheetOf(rng)] = nil
			}
		}
		writeJSON(w, map[string]interface{}{"spreadsheetId": "test-id"})
		return
	}

	rng := strings.TrimPrefix(rest, "/")
	isClear := strings.HasSuffix(rng, ":clear")
	rng = strings.TrimSuffix(rng, ":clear")
	name := sheetOf(rng)
	if _, ok := f.sheets[name]; !ok {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]interface{}{"error": map[string]interface{}{"code": 400, "message": "Unable to parse range: " + rng}})
		return
	}

	switch {
	case r.Method == http.MethodGet:
		f.gets++
		writeJSON(w, map[string]interface{}{"range": rng, "majorDimension": "ROWS", "values": f.sheets[name]})
	case r.Method == http.MethodPost && isClear:
		f.sheets[name] = nil
		writeJSON(w, map[string]interface{}{"clearedRange": rng})
	case r.Method == http.MethodPut:
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sheets[name] = vr.Values
		writeJSON(w, map[string]interface{}{"updatedRange": rng})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func sheetOf(rng string) string {
	if i := strings.Index(rng, "!"); i >= 0 {
		return rng[:i]
	}
	return rng
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testMonths() [12]string {
	return [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
}

func newTestClient(t *testing.T, ttl time.Duration) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{sheets: map[string][][]interface{}{
		"Accounts": {
			{"Account", "Balance"},
			{"Checking", 1000.0},
			{"Savings", 500.0},
		},
		"Recurring": {
			{"Description", "Category", "Amount", "Account", "Frequency", "Start", "End", "Day", "Weekday", "Active"},
			{"Salary", "Income", 2000.0, "Checking", "monthly", "2025-01-01", "", 1.0, "", true},
		},
		"Transactions": {
			{"Date", "Description", "Category", "Account", "Amount", "Transfer to"},
			{"2025-03-15", "Groceries", "Expense", "Checking", 200.0},
		},
	}}
	for _, m := range testMonths() {
		fake.sheets[m] = nil
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID:     "test-id",
		AccountsSheet:     "Accounts",
		RecurringSheet:    "Recurring",
		TransactionsSheet: "Transactions",
		Months:            testMonths(),
		Accounts:          []string{"Checking", "Savings"},
		CacheTTL:          ttl,
	},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func TestNew_MissingOptions(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || !strings.Contains(err.Error(), "spreadsheet id") {
		t.Fatalf("expected options error, got %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	clearAuthEnv(t)
	_, err := New(context.Background(), Options{
		SpreadsheetID:     "id",
		AccountsSheet:     "A",
		RecurringSheet:    "R",
		TransactionsSheet: "T",
		Months:            testMonths(),
	})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestClient_Load(t *testing.T) {
	c, _ := newTestClient(t, 0)
	ctx := context.Background()

	accounts, err := c.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(accounts) != 2 || accounts[1].Name != "Savings" || !accounts[1].Balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("accounts: %+v", accounts)
	}

	rules, err := c.LoadRecurringRules(ctx)
	if err != nil {
		t.Fatalf("LoadRecurringRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Description != "Salary" || !rules[0].Active {
		t.Fatalf("rules: %+v", rules)
	}

	txs, err := c.LoadOneOffTransactions(ctx)
	if err != nil {
		t.Fatalf("LoadOneOffTransactions: %v", err)
	}
	if len(txs) != 1 || !txs[0].Date.Equal(core.NewDate(2025, 3, 15)) {
		t.Fatalf("transactions: %+v", txs)
	}
}

func TestClient_WriteReadClear(t *testing.T) {
	c, _ := newTestClient(t, time.Minute)
	ctx := context.Background()

	if _, err := c.ReadMonthLedger(ctx, "Mar"); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected ErrMonthNotFound before writing, got %v", err)
	}

	amount := decimal.NewFromInt(-200)
	rows := []core.LedgerRow{
		{Date: core.NewDate(2025, 3, 1), Description: core.StartingBalanceLabel, Source: core.SourceInitial,
			Balances: core.BalanceVector{decimal.NewFromInt(1000), decimal.NewFromInt(500)}, NetWorth: decimal.NewFromInt(1500)},
		{Date: core.NewDate(2025, 3, 15), Description: "Groceries", Category: "Expense", Account: "Checking", Amount: &amount, Source: core.SourceSingle,
			Balances: core.BalanceVector{decimal.NewFromInt(800), decimal.NewFromInt(500)}, NetWorth: decimal.NewFromInt(1300)},
	}
	if err := c.WriteMonthLedger(ctx, "Mar", rows); err != nil {
		t.Fatalf("WriteMonthLedger: %v", err)
	}

	got, err := c.ReadMonthLedger(ctx, "Mar")
	if err != nil {
		t.Fatalf("ReadMonthLedger: %v", err)
	}
	if len(got) != 2 || !got[1].Balances.Equal(rows[1].Balances) || !got[1].NetWorth.Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("read back: %+v", got)
	}

	if err := c.ClearAllMonths(ctx); err != nil {
		t.Fatalf("ClearAllMonths: %v", err)
	}
	if _, err := c.ReadMonthLedger(ctx, "Mar"); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected ErrMonthNotFound after clear, got %v", err)
	}
}

func TestClient_UnknownMonth(t *testing.T) {
	c, _ := newTestClient(t, 0)
	ctx := context.Background()
	if err := c.WriteMonthLedger(ctx, "Smarch", nil); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected ErrMonthNotFound, got %v", err)
	}
	if _, err := c.ReadMonthLedger(ctx, "Smarch"); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected ErrMonthNotFound, got %v", err)
	}
}

func TestClient_MissingSheet(t *testing.T) {
	c, fake := newTestClient(t, 0)
	fake.mu.Lock()
	delete(fake.sheets, "Apr")
	delete(fake.sheets, "Accounts")
	fake.mu.Unlock()

	ctx := context.Background()
	if _, err := c.ReadMonthLedger(ctx, "Apr"); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected ErrMonthNotFound, got %v", err)
	}
	if _, err := c.LoadAccounts(ctx); err == nil || errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("expected a plain read error, got %v", err)
	}
}

func TestClient_Cache(t *testing.T) {
	c, fake := newTestClient(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.LoadAccounts(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if fake.gets != 1 {
		t.Fatalf("expected 1 request with cache, got %d", fake.gets)
	}

	c.InvalidateCache()
	if _, err := c.LoadAccounts(ctx); err != nil {
		t.Fatal(err)
	}
	if fake.gets != 2 {
		t.Fatalf("expected a fresh request after invalidation, got %d", fake.gets)
	}
}

func (f *fakeSheets) appendRow(sheet string, row ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[sheet] = append(f.sheets[sheet], row)
}

func (f *fakeSheets) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func TestClient_InvalidateInputs(t *testing.T) {
	c, fake := newTestClient(t, time.Minute)
	ctx := context.Background()

	txs, err := c.LoadOneOffTransactions(ctx)
	if err != nil || len(txs) != 1 {
		t.Fatalf("initial load: %d rows, err=%v", len(txs), err)
	}
	fake.appendRow("Transactions", "2025-03-20", "Rent", "Housing", "Checking", 900.0)

	if txs, _ = c.LoadOneOffTransactions(ctx); len(txs) != 1 {
		t.Fatalf("cached load should not see the edit yet, got %d rows", len(txs))
	}
	c.InvalidateInputs()
	if txs, _ = c.LoadOneOffTransactions(ctx); len(txs) != 2 {
		t.Fatalf("expected the new row after invalidation, got %d rows", len(txs))
	}

	// Month ledgers stay cached.
	if _, err := c.ReadMonthLedger(ctx, "Mar"); !errors.Is(err, ports.ErrMonthNotFound) {
		t.Fatalf("unexpected error %v", err)
	}
	before := fake.getCount()
	c.InvalidateInputs()
	_, _ = c.ReadMonthLedger(ctx, "Mar")
	if got := fake.getCount(); got != before {
		t.Errorf("month read should be served from cache, gets %d -> %d", before, got)
	}
}

func TestRebuild_SeesSheetEdits(t *testing.T) {
	c, fake := newTestClient(t, time.Minute)
	ctx := context.Background()

	months := testMonths()
	cfg, err := ledger.NewConfig([]string{"Checking", "Savings"}, months[:], 2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := services.NewRebuildService(c, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Rebuild(ctx, ""); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	rows, err := c.ReadMonthLedger(ctx, "Mar")
	if err != nil || len(rows) != 3 {
		t.Fatalf("March after first rebuild: %d rows, err=%v", len(rows), err)
	}

	fake.appendRow("Transactions", "2025-03-20", "Rent", "Housing", "Checking", 900.0)
	summary, err := svc.Rebuild(ctx, "")
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	rows, err = c.ReadMonthLedger(ctx, "Mar")
	if err != nil || len(rows) != 4 || rows[3].Description != "Rent" {
		t.Fatalf("March after edit: %+v, err=%v", rows, err)
	}
	// 1000 + 12*2000 - 200 - 900 on Checking, 500 on Savings.
	if !summary.NetWorth.Equal(decimal.NewFromInt(24400)) {
		t.Errorf("net worth = %s, want 24400", summary.NetWorth)
	}
}

func TestClient_NoCache(t *testing.T) {
	c, fake := newTestClient(t, 0)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.LoadAccounts(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if fake.gets != 3 {
		t.Fatalf("expected 3 requests without cache, got %d", fake.gets)
	}
}

func TestServiceAccountCredentials_File(t *testing.T) {
	path := t.TempDir() + "/sa.json"
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", path)
	data, err := serviceAccountCredentials(context.Background())
	if err != nil || !strings.Contains(string(data), "service_account") {
		t.Fatalf("unexpected result %q %v", data, err)
	}
}
