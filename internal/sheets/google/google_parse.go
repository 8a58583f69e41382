package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// Fixed ledger columns before the per-account balances.
var ledgerHeader = []string{"Date", "Description", "Category", "Account", "Amount", "Source"}

const netWorthHeader = "Net Worth"

// Recurring sheet columns.
const (
	colRuleDescription = iota
	colRuleCategory
	colRuleAmount
	colRuleAccount
	colRuleFrequency
	colRuleStart
	colRuleEnd
	colRuleDayOfMonth
	colRuleDayOfWeek
	colRuleActive
)

// Transactions sheet columns.
const (
	colTxDate = iota
	colTxDescription
	colTxCategory
	colTxAccount
	colTxAmount
	colTxTransferTo
)

// cell renders a value as returned by the Values API with UNFORMATTED_VALUE.
// Numbers arrive as float64 and are printed without exponent.
func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cell(v)
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// parseBool accepts checkbox values and the usual spellings of yes.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "x", "✓", "si", "sì":
		return true
	}
	return false
}

// parseAccounts reads name (A) and balance (B) below the header row.
// Balances seed every ledger, so a malformed one is an error.
func parseAccounts(values [][]interface{}) ([]core.Account, error) {
	var out []core.Account
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		name := safeGet(row, 0)
		if name == "" {
			continue
		}
		bal, err := core.ParseAmount(safeGet(row, 1))
		if err != nil {
			return nil, fmt.Errorf("accounts row %d (%s): %w", i+1, name, err)
		}
		out = append(out, core.Account{Name: name, Balance: bal})
	}
	return out, nil
}

// parseRules reads the recurring sheet below its header. Cells that do not
// parse are left empty so the normalizer reports the row.
func parseRules(values [][]interface{}) []core.RecurrenceRule {
	var out []core.RecurrenceRule
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		desc := safeGet(row, colRuleDescription)
		start, _ := core.ParseDate(safeGet(row, colRuleStart))
		end, _ := core.ParseDate(safeGet(row, colRuleEnd))
		dom, _ := strconv.Atoi(safeGet(row, colRuleDayOfMonth))
		dow, _ := strconv.Atoi(safeGet(row, colRuleDayOfWeek))
		out = append(out, core.RecurrenceRule{
			Description: desc,
			Category:    safeGet(row, colRuleCategory),
			Amount:      safeGet(row, colRuleAmount),
			Account:     safeGet(row, colRuleAccount),
			Frequency:   core.ParseFrequency(safeGet(row, colRuleFrequency)),
			StartDate:   start,
			EndDate:     end,
			DayOfMonth:  dom,
			DayOfWeek:   dow,
			Active:      parseBool(safeGet(row, colRuleActive)),
			Divider:     core.IsDividerLabel(desc),
		})
	}
	return out
}

// parseTransactions reads the one-off sheet below its header. An unparsable
// date is left empty and the row is reported as undated.
func parseTransactions(values [][]interface{}) []core.OneOffTransaction {
	var out []core.OneOffTransaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		d, _ := core.ParseDate(safeGet(row, colTxDate))
		out = append(out, core.OneOffTransaction{
			Date:        d,
			Description: safeGet(row, colTxDescription),
			Category:    safeGet(row, colTxCategory),
			Account:     safeGet(row, colTxAccount),
			Amount:      safeGet(row, colTxAmount),
			TransferTo:  safeGet(row, colTxTransferTo),
		})
	}
	return out
}

// ledgerValues lays rows out as a header followed by one line per row:
// date, description, category, account, amount, source, balances, net worth.
func ledgerValues(accounts []string, rows []core.LedgerRow) [][]interface{} {
	width := len(accounts)
	if len(rows) > 0 && len(rows[0].Balances) > width {
		width = len(rows[0].Balances)
	}
	header := make([]interface{}, 0, len(ledgerHeader)+width+1)
	for _, h := range ledgerHeader {
		header = append(header, h)
	}
	for i := 0; i < width; i++ {
		name := fmt.Sprintf("Balance %d", i+1)
		if i < len(accounts) {
			name = accounts[i]
		}
		header = append(header, name)
	}
	header = append(header, netWorthHeader)

	out := make([][]interface{}, 0, len(rows)+1)
	out = append(out, header)
	for _, r := range rows {
		line := make([]interface{}, 0, len(header))
		amount := ""
		if r.Amount != nil {
			amount = core.FormatAmount(*r.Amount)
		}
		line = append(line, r.Date.String(), r.Description, r.Category, r.Account, amount, string(r.Source))
		for i := 0; i < width; i++ {
			b := ""
			if i < len(r.Balances) {
				b = core.FormatAmount(r.Balances[i])
			}
			line = append(line, b)
		}
		line = append(line, core.FormatAmount(r.NetWorth))
		out = append(out, line)
	}
	return out
}

// parseLedger reverses ledgerValues. The number of balance columns is taken
// from the header.
func parseLedger(values [][]interface{}) ([]core.LedgerRow, error) {
	header := toStrings(values[0])
	fixed := len(ledgerHeader)
	if len(header) < fixed+1 || header[0] != ledgerHeader[0] || header[len(header)-1] != netWorthHeader {
		return nil, fmt.Errorf("unexpected ledger header: %v", header)
	}
	width := len(header) - fixed - 1

	out := make([]core.LedgerRow, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if blank(row) {
			continue
		}
		d, err := core.ParseDate(safeGet(row, 0))
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: %w", i+1, err)
		}
		lr := core.LedgerRow{
			Date:        d,
			Description: safeGet(row, 1),
			Category:    safeGet(row, 2),
			Account:     safeGet(row, 3),
			Source:      core.Source(safeGet(row, 5)),
			Balances:    make(core.BalanceVector, width),
		}
		if s := safeGet(row, 4); s != "" {
			a, err := core.ParseAmount(s)
			if err != nil {
				return nil, fmt.Errorf("ledger row %d amount: %w", i+1, err)
			}
			lr.Amount = &a
		}
		for j := 0; j < width; j++ {
			lr.Balances[j] = parseOrZero(safeGet(row, fixed+j))
		}
		lr.NetWorth = parseOrZero(safeGet(row, fixed+width))
		out = append(out, lr)
	}
	return out, nil
}

func parseOrZero(s string) decimal.Decimal {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
