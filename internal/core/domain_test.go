package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestApplySign(t *testing.T) {
	cases := []struct {
		category string
		in       string
		want     string
	}{
		{"Income", "2000", "2000"},
		{"Income", "-2000", "2000"},
		{"Transfer", "-150", "-150"},
		{"Transfer", "150", "150"},
		{"Expense", "200", "-200"},
		{"Expense", "-200", "-200"},
		{"Groceries", "0", "0"},
		{"income", "10", "-10"}, // matching is exact
	}
	for _, tc := range cases {
		got := ApplySign(tc.category, decimal.RequireFromString(tc.in))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ApplySign(%q, %s) = %s, want %s", tc.category, tc.in, got, tc.want)
		}
	}
}

func TestIsDividerLabel(t *testing.T) {
	cases := map[string]bool{
		"--- Utilities ---": true,
		"=== Income ===":    true,
		"# Subscriptions":   true,
		"## Bills":          true,
		"#":                 true,
		"#1 Gym":            false,
		"#Hashtag":          false,
		"  ---":             true,
		"Rent":              false,
		"":                  false,
	}
	for in, want := range cases {
		if got := IsDividerLabel(in); got != want {
			t.Errorf("IsDividerLabel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseFrequency(t *testing.T) {
	if f := ParseFrequency(" Monthly "); f != Monthly || !f.Known() {
		t.Fatalf("unexpected frequency %q", f)
	}
	if f := ParseFrequency("fortnightly"); f.Known() {
		t.Fatalf("fortnightly should not be known")
	}
}

func TestMonthOf(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		end   int
	}{
		{2024, time.February, 29},
		{2025, time.February, 28},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tc := range cases {
		w := MonthOf(tc.year, tc.month)
		if w.Start.Day() != 1 || w.Start.Month() != int(tc.month) {
			t.Fatalf("%d-%d: bad start %s", tc.year, tc.month, w.Start)
		}
		if w.End.Day() != tc.end || w.End.Month() != int(tc.month) {
			t.Fatalf("%d-%d: bad end %s", tc.year, tc.month, w.End)
		}
		if !w.Contains(w.Start) || !w.Contains(w.End) {
			t.Fatalf("%d-%d: bounds must be inclusive", tc.year, tc.month)
		}
		if w.Contains(w.End.AddDays(1)) || w.Contains(w.Start.AddDays(-1)) {
			t.Fatalf("%d-%d: window leaks outside the month", tc.year, tc.month)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2025-03-15", NewDate(2025, 3, 15), true},
		{"2025-3-5", NewDate(2025, 3, 5), true},
		{"2025/03/15", NewDate(2025, 3, 15), true},
		{"3/15/2025", NewDate(2025, 3, 15), true},
		{"45731", NewDate(2025, 3, 15), true}, // spreadsheet serial
		{"2025-03-15T10:30:00Z", NewDate(2025, 3, 15), true},
		{"", Date{}, true},
		{"tomorrow", Date{}, false},
		{"0", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestAxisSeed(t *testing.T) {
	axis, err := NewAxis([]string{"Checking", "Savings", "Visa"})
	if err != nil {
		t.Fatalf("NewAxis: %v", err)
	}
	v, err := axis.Seed([]Account{
		{Name: "Savings", Balance: decimal.NewFromInt(500)},
		{Name: "Checking", Balance: decimal.NewFromInt(1000)},
		{Name: "Brokerage", Balance: decimal.NewFromInt(99)},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	want := BalanceVector{decimal.NewFromInt(1000), decimal.NewFromInt(500), decimal.Zero}
	if !v.Equal(want) {
		t.Fatalf("Seed = %s, want %s", v, want)
	}
	if !v.Sum().Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("Sum = %s", v.Sum())
	}

	if _, err := axis.Seed(nil); !errors.Is(err, ErrEmptyRegistry) {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
}

func TestNewAxisRejectsBadInput(t *testing.T) {
	if _, err := NewAxis(nil); !errors.Is(err, ErrEmptyAxis) {
		t.Fatalf("expected ErrEmptyAxis, got %v", err)
	}
	if _, err := NewAxis([]string{"A", "A"}); !errors.Is(err, ErrDuplicateAxis) {
		t.Fatalf("expected ErrDuplicateAxis, got %v", err)
	}
}

func TestBalanceVectorCloneIsIndependent(t *testing.T) {
	v := BalanceVector{decimal.NewFromInt(1), decimal.NewFromInt(2)}
	c := v.Clone()
	c[0] = decimal.NewFromInt(42)
	if !v[0].Equal(decimal.NewFromInt(1)) {
		t.Fatalf("clone aliases the original")
	}
	if BalanceVector(nil).Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}
