// Package recurrence expands recurring rules into occurrence dates.
//
// Each frequency has its own Expander strategy. Expansion is a pure function of
// the rule and the month window: no clamping of missing days, inclusive bounds,
// and a sorted, duplicate-free result.
package recurrence

import (
	"errors"
	"fmt"
	"sort"

	"bilancio/internal/core"
)

// ErrUnknownFrequency is returned for frequencies with no registered expander.
var ErrUnknownFrequency = errors.New("unknown frequency")

// Expander is the strategy interface for one frequency.
type Expander interface {
	// Expand returns candidate dates of rule inside window. Bounds against the
	// rule's start and end dates are applied by Occurrences.
	Expand(rule core.RecurrenceRule, window core.MonthWindow) []core.Date
}

// MonthlyExpander places one occurrence on the configured day of the month.
type MonthlyExpander struct{}

// Expand yields (window year, window month, dayOfMonth) unless the day does not
// exist in that month. A rule without a day of month falls back to the day of
// its start date.
func (MonthlyExpander) Expand(rule core.RecurrenceRule, window core.MonthWindow) []core.Date {
	day := rule.DayOfMonth
	if day == 0 {
		day = rule.StartDate.Day()
	}
	if day < 1 || day > 31 {
		return nil
	}
	candidate := core.NewDate(window.Year(), int(window.Month()), day)
	if candidate.Month() != int(window.Month()) {
		return nil
	}
	return []core.Date{candidate}
}

// StepExpander walks forward from the start date in fixed day steps.
type StepExpander struct {
	Days int
}

// Expand returns every start+k*Days (k >= 0) that falls in window.
func (s StepExpander) Expand(rule core.RecurrenceRule, window core.MonthWindow) []core.Date {
	if s.Days <= 0 {
		return nil
	}
	d := rule.StartDate
	if d.Before(window.Start) {
		gap := int(window.Start.Sub(d.Time).Hours() / 24)
		d = d.AddDays((gap / s.Days) * s.Days)
		for d.Before(window.Start) {
			d = d.AddDays(s.Days)
		}
	}
	var out []core.Date
	for ; !d.After(window.End); d = d.AddDays(s.Days) {
		out = append(out, d)
	}
	return out
}

// YearlyExpander repeats the start date's month and day every year.
type YearlyExpander struct{}

// Expand yields (window year, start month, start day) when it lands in window.
// Feb 29 produces nothing in common years.
func (YearlyExpander) Expand(rule core.RecurrenceRule, window core.MonthWindow) []core.Date {
	month, day := rule.StartDate.Month(), rule.StartDate.Day()
	candidate := core.NewDate(window.Year(), month, day)
	if candidate.Month() != month || candidate.Day() != day {
		return nil
	}
	if !window.Contains(candidate) {
		return nil
	}
	return []core.Date{candidate}
}

// expanders maps frequencies to their strategies.
var expanders = map[core.Frequency]Expander{
	core.Monthly:  MonthlyExpander{},
	core.Biweekly: StepExpander{Days: 14},
	core.Weekly:   StepExpander{Days: 7},
	core.Yearly:   YearlyExpander{},
}

// GetExpander returns the expander registered for a frequency.
func GetExpander(frequency core.Frequency) (Expander, error) {
	e, ok := expanders[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, string(frequency))
	}
	return e, nil
}

// RegisterExpander adds or replaces the strategy for a frequency.
func RegisterExpander(frequency core.Frequency, e Expander) {
	expanders[frequency] = e
}

// Occurrences returns the sorted, duplicate-free dates on which rule occurs in
// window, restricted to [StartDate, EndDate]. A rule without start date or
// frequency has no occurrences. An unregistered frequency yields no dates and
// ErrUnknownFrequency so the caller can report it.
func Occurrences(rule core.RecurrenceRule, window core.MonthWindow) ([]core.Date, error) {
	if rule.StartDate.IsEmpty() || rule.Frequency == "" {
		return nil, nil
	}
	e, err := GetExpander(rule.Frequency)
	if err != nil {
		return nil, err
	}

	lo := window.Start
	if rule.StartDate.After(lo) {
		lo = rule.StartDate
	}
	hi := window.End
	if !rule.IsOpenEnded() && rule.EndDate.Before(hi) {
		hi = rule.EndDate
	}
	if lo.After(hi) {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	var out []core.Date
	for _, d := range e.Expand(rule, window) {
		if d.Before(lo) || d.After(hi) {
			continue
		}
		key := d.Unix()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
