package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"grouping", "24800", "USD", "$24,800.00"},
		{"negative", "-200", "USD", "-$200.00"},
		{"rounds to minor unit", "10.005", "USD", "$10.01"},
		{"unknown currency", "12.5", "XYZ", "12.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMoney(decimal.RequireFromString(tt.amount), tt.currency)
			if got != tt.want {
				t.Errorf("formatMoney(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func sampleRows() []core.LedgerRow {
	amount := decimal.NewFromInt(-200)
	return []core.LedgerRow{
		{
			Date:        core.NewDate(2025, 3, 1),
			Description: "Starting balance",
			Source:      core.SourceInitial,
			Balances:    core.BalanceVector{decimal.NewFromInt(7000), decimal.NewFromInt(500)},
			NetWorth:    decimal.NewFromInt(7500),
		},
		{
			Date:        core.NewDate(2025, 3, 15),
			Description: "Groceries, weekly",
			Category:    "Expense",
			Account:     "Checking",
			Amount:      &amount,
			Source:      core.SourceSingle,
			Balances:    core.BalanceVector{decimal.NewFromInt(6800), decimal.NewFromInt(500)},
			NetWorth:    decimal.NewFromInt(7300),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, []string{"Checking", "Savings"}, sampleRows()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Date,Description,Category,Account,Amount,Source,Checking,Savings,Net Worth" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-03-01,Starting balance,,,,") {
		t.Errorf("starting row = %q", lines[1])
	}
	if !strings.Contains(lines[2], `"Groceries, weekly",Expense,Checking,-200.00`) ||
		!strings.HasSuffix(lines[2], "6800.00,500.00,7300.00") {
		t.Errorf("groceries row = %q", lines[2])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, []string{"Checking", "Savings"}, sampleRows(), "USD"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Net Worth", "$6,800.00", "-$200.00", "Starting balance"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteBalances(t *testing.T) {
	var buf bytes.Buffer
	final := core.BalanceVector{decimal.NewFromInt(24800), decimal.NewFromInt(500)}
	if err := writeBalances(&buf, []string{"Checking", "Savings"}, final, "USD"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "$24,800.00") || !strings.Contains(out, "$25,300.00") {
		t.Errorf("unexpected balances:\n%s", out)
	}
}
