package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Axis is the ordered list of tracked account names. Its order defines the
// index of every balance vector.
type Axis []string

// BalanceVector holds one balance per axis entry, index-aligned with the axis.
type BalanceVector []decimal.Decimal

// NewAxis validates names and returns them as an Axis.
func NewAxis(names []string) (Axis, error) {
	if len(names) == 0 {
		return nil, ErrEmptyAxis
	}
	seen := make(map[string]struct{}, len(names))
	axis := make(Axis, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("%w: blank name", ErrEmptyAxis)
		}
		if _, ok := seen[n]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAxis, n)
		}
		seen[n] = struct{}{}
		axis = append(axis, n)
	}
	return axis, nil
}

// Index returns the position of name on the axis, or -1. Matching is exact.
func (a Axis) Index(name string) int {
	for i, n := range a {
		if n == name {
			return i
		}
	}
	return -1
}

// Zero returns a vector of zeros sized to the axis.
func (a Axis) Zero() BalanceVector {
	v := make(BalanceVector, len(a))
	for i := range v {
		v[i] = decimal.Zero
	}
	return v
}

// Seed builds the starting vector from the account registry. Accounts on the
// axis that are missing from the registry start at zero; registry entries not
// on the axis are ignored.
func (a Axis) Seed(accounts []Account) (BalanceVector, error) {
	if len(accounts) == 0 {
		return nil, ErrEmptyRegistry
	}
	v := a.Zero()
	for _, acc := range accounts {
		if i := a.Index(acc.Name); i >= 0 {
			v[i] = acc.Balance
		}
	}
	return v, nil
}

// Clone returns an independent copy of v. A nil vector stays nil.
func (v BalanceVector) Clone() BalanceVector {
	if v == nil {
		return nil
	}
	out := make(BalanceVector, len(v))
	copy(out, v)
	return out
}

// Sum returns the net worth represented by v.
func (v BalanceVector) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, b := range v {
		total = total.Add(b)
	}
	return total
}

// Equal compares two vectors value by value.
func (v BalanceVector) Equal(w BalanceVector) bool {
	if len(v) != len(w) {
		return false
	}
	for i := range v {
		if !v[i].Equal(w[i]) {
			return false
		}
	}
	return true
}

func (v BalanceVector) String() string {
	parts := make([]string, len(v))
	for i, b := range v {
		parts[i] = FormatAmount(b)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
