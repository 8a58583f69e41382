package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the canonical text form of a Date.
const DateFormat = "2006-01-02"

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

// MonthWindow holds the inclusive first and last day of a calendar month.
type MonthWindow struct {
	Start Date
	End   Date
}

// NewDate creates a new Date from year, month, day. Out of range values are
// normalized the way time.Date does (Feb 30 becomes Mar 1 or 2).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

func (d Date) Before(x Date) bool { return d.Time.Before(x.Time) }
func (d Date) After(x Date) bool  { return d.Time.After(x.Time) }
func (d Date) Equal(x Date) bool  { return d.Time.Equal(x.Time) }

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// Window returns the calendar month containing d.
func (d Date) Window() MonthWindow {
	return MonthOf(d.Year(), time.Month(d.Month()))
}

// MonthOf returns the window for the given year and month.
func MonthOf(year int, month time.Month) MonthWindow {
	start := NewDate(year, int(month), 1)
	end := NewDate(year, int(month)+1, 0)
	return MonthWindow{Start: start, End: end}
}

// Contains reports whether d is within the window, bounds included.
func (w MonthWindow) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w MonthWindow) Year() int         { return w.Start.Year() }
func (w MonthWindow) Month() time.Month { return time.Month(w.Start.Month()) }

// sheetsEpoch is day zero of spreadsheet serial dates.
var sheetsEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	DateFormat,
	"2006-1-2",
	"2006/01/02",
	"1/2/2006",
	time.RFC3339,
}

// ParseDate accepts ISO dates, US slash dates, RFC3339 timestamps and
// spreadsheet serial numbers. An empty string yields a zero Date and no error.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 1 {
			return Date{}, fmt.Errorf("%w: serial %q", ErrInvalidDate, s)
		}
		return DateOf(sheetsEpoch.AddDate(0, 0, int(serial))), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}
