// Package memory is an in-process store backed by a YAML seed. It keeps the
// written month ledgers in a map and is safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	accounts []core.Account
	rules    []core.RecurrenceRule
	oneOffs  []core.OneOffTransaction
	months   map[string][]core.LedgerRow
}

func New(accounts []core.Account, rules []core.RecurrenceRule, oneOffs []core.OneOffTransaction) *Store {
	return &Store{
		accounts: append([]core.Account(nil), accounts...),
		rules:    append([]core.RecurrenceRule(nil), rules...),
		oneOffs:  append([]core.OneOffTransaction(nil), oneOffs...),
		months:   map[string][]core.LedgerRow{},
	}
}

// NewFromSeed builds a store from a decoded seed document.
func NewFromSeed(s *Seed) (*Store, error) {
	accounts, err := s.AccountRecords()
	if err != nil {
		return nil, err
	}
	rules, err := s.RuleRecords()
	if err != nil {
		return nil, err
	}
	oneOffs, err := s.TransactionRecords()
	if err != nil {
		return nil, err
	}
	return New(accounts, rules, oneOffs), nil
}

// NewFromFile loads the seed at path. An empty path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(nil, nil, nil), nil
	}
	seed, err := LoadSeed(path)
	if err != nil {
		return nil, err
	}
	st, err := NewFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return st, nil
}

func (s *Store) LoadAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Account(nil), s.accounts...), nil
}

func (s *Store) LoadRecurringRules(_ context.Context) ([]core.RecurrenceRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurrenceRule(nil), s.rules...), nil
}

func (s *Store) LoadOneOffTransactions(_ context.Context) ([]core.OneOffTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.OneOffTransaction(nil), s.oneOffs...), nil
}

// WriteMonthLedger replaces the rows stored under month.
func (s *Store) WriteMonthLedger(_ context.Context, month string, rows []core.LedgerRow) error {
	if month == "" {
		return fmt.Errorf("write ledger: empty month name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months[month] = copyRows(rows)
	return nil
}

func (s *Store) ClearAllMonths(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months = map[string][]core.LedgerRow{}
	return nil
}

func (s *Store) ReadMonthLedger(_ context.Context, month string) ([]core.LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.months[month]
	if !ok {
		return nil, fmt.Errorf("%s: %w", month, ports.ErrMonthNotFound)
	}
	return copyRows(rows), nil
}

// Months lists the month names currently written, sorted.
func (s *Store) Months() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.months))
	for m := range s.months {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func copyRows(in []core.LedgerRow) []core.LedgerRow {
	out := make([]core.LedgerRow, len(in))
	for i, r := range in {
		r.Balances = r.Balances.Clone()
		if r.Amount != nil {
			a := *r.Amount
			r.Amount = &a
		}
		out[i] = r
	}
	return out
}
