package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Monthly  Frequency = "monthly"
	Biweekly Frequency = "biweekly"
	Weekly   Frequency = "weekly"
	Yearly   Frequency = "yearly"
)

// Categories with a special sign convention. Every other category is an outflow.
const (
	CategoryIncome   = "Income"
	CategoryTransfer = "Transfer"
)

const (
	SourceRecurring Source = "Recurring"
	SourceSingle    Source = "Single"
	SourceInitial   Source = "Initial"
)

// StartingBalanceLabel is the description of the synthetic first row of a month.
const StartingBalanceLabel = "Starting Balance"

type (
	Frequency string

	// Source tells where a ledger row comes from.
	Source string

	Account struct {
		Name    string
		Balance decimal.Decimal
	}

	// RecurrenceRule is a recurring transaction template as authored in the store.
	// Amount is kept as entered; the normalizer parses it.
	RecurrenceRule struct {
		Description string
		Category    string
		Amount      string
		Account     string
		Frequency   Frequency
		StartDate   Date
		EndDate     Date // zero means open-ended
		DayOfMonth  int  // 0 means unset
		DayOfWeek   int  // 0 means unset; no frequency uses it yet
		Active      bool
		Divider     bool // section header row in the source sheet
	}

	// OneOffTransaction is a manually entered transaction, unfiltered by month.
	OneOffTransaction struct {
		Date        Date
		Description string
		Category    string
		Account     string
		Amount      string
		TransferTo  string
	}

	// Transaction is the normalized record consumed by the month builder.
	Transaction struct {
		Date        Date
		Description string
		Category    string
		Account     string
		Amount      decimal.Decimal
		Source      Source
		TransferTo  string
	}

	// LedgerRow is one emitted row of a month ledger. Amount is nil on the
	// starting balance row.
	LedgerRow struct {
		Date        Date
		Description string
		Category    string
		Account     string
		Amount      *decimal.Decimal
		Source      Source
		Balances    BalanceVector
		NetWorth    decimal.Decimal
	}
)

var (
	ErrEmptyRegistry = errors.New("account registry is empty")
	ErrEmptyAxis     = errors.New("account axis is empty")
	ErrDuplicateAxis = errors.New("duplicate account on axis")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// IsDividerLabel reports whether a description cell marks a section divider
// rather than a rule, e.g. "--- Utilities ---" or "# Subscriptions". A hash
// heading needs a blank after the hashes, so "#1 Gym" is a rule.
func IsDividerLabel(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "---") || strings.HasPrefix(s, "===") {
		return true
	}
	if !strings.HasPrefix(s, "#") {
		return false
	}
	rest := strings.TrimLeft(s, "#")
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// ApplySign forces the sign of amount according to category: Income is
// non-negative, Transfer keeps its sign, anything else is non-positive.
func ApplySign(category string, amount decimal.Decimal) decimal.Decimal {
	switch strings.TrimSpace(category) {
	case CategoryIncome:
		return amount.Abs()
	case CategoryTransfer:
		return amount
	default:
		return amount.Abs().Neg()
	}
}

// IsIncome reports whether the category sorts before others on the same day.
func IsIncome(category string) bool {
	return strings.TrimSpace(category) == CategoryIncome
}

// ParseFrequency normalizes a frequency cell. Unknown values are returned as-is
// so the expander can report them.
func ParseFrequency(s string) Frequency {
	return Frequency(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether f is one of the supported frequencies.
func (f Frequency) Known() bool {
	switch f {
	case Monthly, Biweekly, Weekly, Yearly:
		return true
	default:
		return false
	}
}

func (r RecurrenceRule) IsOpenEnded() bool {
	return r.EndDate.IsZero()
}
