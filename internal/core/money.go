// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts as they are typed
// into a spreadsheet cell and converting them to exact decimals.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a cell value to a decimal amount.
//
// It strips currency symbols and blanks, accepts both dot and comma decimal
// separators, treats the earlier of two different separators as a thousands
// separator and understands accounting negatives written in parentheses. A
// lone separator followed by exactly three digits groups thousands.
//
// Examples:
//
//	ParseAmount("12.34")      -> 12.34
//	ParseAmount("12,34")      -> 12.34
//	ParseAmount("1,200")      -> 1200
//	ParseAmount("1.234.567")  -> 1234567
//	ParseAmount("€1,234.50")  -> 1234.5
//	ParseAmount("1.234,50")   -> 1234.5
//	ParseAmount("(200)")      -> -200
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '€', '$', '£', ' ', '\u00a0', '\'':
			return -1
		}
		return r
	}, s)
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// The last separator is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Contains(s, ","):
		switch {
		case isGroupedThousands(s, ","):
			s = strings.ReplaceAll(s, ",", "")
		case strings.Count(s, ",") == 1:
			s = strings.Replace(s, ",", ".", 1)
		default:
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	case strings.Count(s, ".") > 1:
		if !isGroupedThousands(s, ".") {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// isGroupedThousands reports whether s is digits grouped in threes by sep,
// e.g. "1,200" or "-12,345,678". A leading group of "0" is a decimal, not a
// group ("0,500").
func isGroupedThousands(s, sep string) bool {
	s = strings.TrimLeft(s, "+-")
	parts := strings.Split(s, sep)
	if len(parts) < 2 {
		return false
	}
	head := parts[0]
	if len(head) < 1 || len(head) > 3 || head[0] == '0' || !isDigits(head) {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 || !isDigits(p) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders an amount with two decimals, the way it is persisted.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
