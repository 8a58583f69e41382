package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-200", "-200", true},
		{"€1,234.50", "1234.5", true},
		{"1.234,50 €", "1234.5", true},
		{"$ 99", "99", true},
		{"(200)", "-200", true},
		{"1,200", "1200", true},
		{"-1,200", "-1200", true},
		{"1,234,567", "1234567", true},
		{"1.234.567", "1234567", true},
		{"0,500", "0.5", true},
		{"1,5", "1.5", true},
		{"1,2345", "1.2345", true},
		{"1,23,456", "0", false},
		{"12,34,56", "0", false},
		{"abc", "0", false},
		{"1.2.3", "0", false},
		{"", "0", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
			if !got.IsZero() {
				t.Fatalf("%q expected zero on error, got %s", tc.in, got)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("-12.5")); got != "-12.50" {
		t.Fatalf("FormatAmount = %q", got)
	}
}
