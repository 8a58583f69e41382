package memory

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"bilancio/internal/core"
)

// Seed is the YAML document that fills a store: the account registry, the
// recurring rules sheet and the one-off transactions sheet.
type Seed struct {
	Accounts     []accountYAML     `yaml:"accounts"`
	Recurring    []ruleYAML        `yaml:"recurring"`
	Transactions []transactionYAML `yaml:"transactions"`
}

type accountYAML struct {
	Name    string `yaml:"name"`
	Balance string `yaml:"balance"`
}

type ruleYAML struct {
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Amount      string `yaml:"amount"`
	Account     string `yaml:"account"`
	Frequency   string `yaml:"frequency"`
	StartDate   string `yaml:"start_date"`
	EndDate     string `yaml:"end_date,omitempty"`
	DayOfMonth  int    `yaml:"day_of_month,omitempty"`
	DayOfWeek   int    `yaml:"day_of_week,omitempty"`
	Active      *bool  `yaml:"active,omitempty"`
}

type transactionYAML struct {
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Account     string `yaml:"account"`
	Amount      string `yaml:"amount"`
	TransferTo  string `yaml:"transfer_to,omitempty"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document. Unknown keys are rejected.
func ParseSeed(data []byte) (*Seed, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &s, nil
}

// AccountRecords converts the registry rows. A malformed balance is an error: the
// registry seeds every ledger and cannot be guessed.
func (s *Seed) AccountRecords() ([]core.Account, error) {
	out := make([]core.Account, 0, len(s.Accounts))
	for i, a := range s.Accounts {
		bal, err := core.ParseAmount(a.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %d (%s): %w", i+1, a.Name, err)
		}
		out = append(out, core.Account{Name: strings.TrimSpace(a.Name), Balance: bal})
	}
	return out, nil
}

// RuleRecords converts the recurring rows. Amounts stay raw so the normalizer
// decides what a malformed amount means; dates must parse.
func (s *Seed) RuleRecords() ([]core.RecurrenceRule, error) {
	out := make([]core.RecurrenceRule, 0, len(s.Recurring))
	for i, r := range s.Recurring {
		start, err := core.ParseDate(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s) start_date: %w", i+1, r.Description, err)
		}
		end, err := core.ParseDate(r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s) end_date: %w", i+1, r.Description, err)
		}
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		out = append(out, core.RecurrenceRule{
			Description: r.Description,
			Category:    r.Category,
			Amount:      r.Amount,
			Account:     r.Account,
			Frequency:   core.ParseFrequency(r.Frequency),
			StartDate:   start,
			EndDate:     end,
			DayOfMonth:  r.DayOfMonth,
			DayOfWeek:   r.DayOfWeek,
			Active:      active,
			Divider:     core.IsDividerLabel(strings.TrimSpace(r.Description)),
		})
	}
	return out, nil
}

// TransactionRecords converts the one-off rows.
func (s *Seed) TransactionRecords() ([]core.OneOffTransaction, error) {
	out := make([]core.OneOffTransaction, 0, len(s.Transactions))
	for i, t := range s.Transactions {
		d, err := core.ParseDate(t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d (%s) date: %w", i+1, t.Description, err)
		}
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
