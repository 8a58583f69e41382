package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/normalize"
)

var (
	// ErrInvalidConfig wraps every configuration problem found by NewConfig.
	ErrInvalidConfig = errors.New("invalid ledger configuration")
	// ErrNonMonotonic is returned when a period would be skipped after an
	// earlier period was seeded.
	ErrNonMonotonic = errors.New("period skipped after seeded data")
)

// DefaultMonths are the month identifiers used when none are configured.
var DefaultMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Config is the immutable input of a rollforward.
type Config struct {
	Axis       core.Axis
	Months     [12]string
	Year       int
	StartMonth int // 1-based
}

// NewConfig validates the pieces of a rollforward configuration.
func NewConfig(accounts, months []string, year, startMonth int) (Config, error) {
	var problems []string

	axis, err := core.NewAxis(accounts)
	if err != nil {
		problems = append(problems, err.Error())
	}
	var names [12]string
	switch {
	case len(months) == 0:
		names = DefaultMonths
	case len(months) != 12:
		problems = append(problems, fmt.Sprintf("expected 12 month identifiers, got %d", len(months)))
	default:
		for i, m := range months {
			m = strings.TrimSpace(m)
			if m == "" {
				problems = append(problems, fmt.Sprintf("month %d has an empty identifier", i+1))
			}
			names[i] = m
		}
	}
	if year < 1 {
		problems = append(problems, fmt.Sprintf("year %d out of range", year))
	}
	if startMonth < 1 || startMonth > 12 {
		problems = append(problems, fmt.Sprintf("start month %d not in 1..12", startMonth))
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return Config{Axis: axis, Months: names, Year: year, StartMonth: startMonth}, nil
}

func (c Config) validate() error {
	if len(c.Axis) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, core.ErrEmptyAxis)
	}
	if c.StartMonth < 1 || c.StartMonth > 12 {
		return fmt.Errorf("%w: start month %d not in 1..12", ErrInvalidConfig, c.StartMonth)
	}
	if c.Year < 1 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidConfig, c.Year)
	}
	for i, m := range c.Months {
		if m == "" {
			return fmt.Errorf("%w: month %d has an empty identifier", ErrInvalidConfig, i+1)
		}
	}
	return nil
}

// Window returns the calendar bounds of period i (1-based).
func (c Config) Window(i int) core.MonthWindow {
	return core.MonthOf(c.Year, time.Month(i))
}

// PeriodState is the state of one period during a rollforward.
type PeriodState int

const (
	Pending PeriodState = iota
	Seeded
	Skipped
	Done
)

func (s PeriodState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Seeded:
		return "seeded"
	case Skipped:
		return "skipped"
	case Done:
		return "done"
	}
	return fmt.Sprintf("PeriodState(%d)", int(s))
}

// machine tracks the twelve periods. Skipped periods may only precede the
// first seeded one.
type machine struct {
	states [12]PeriodState
	seeded bool
	done   bool
}

func (m *machine) transition(period int, to PeriodState) error {
	if m.done {
		return fmt.Errorf("period %d: rollforward already done", period)
	}
	if from := m.states[period-1]; from != Pending {
		return fmt.Errorf("period %d: cannot move from %s to %s", period, from, to)
	}
	switch to {
	case Skipped:
		if m.seeded {
			return fmt.Errorf("period %d: %w", period, ErrNonMonotonic)
		}
	case Seeded:
		m.seeded = true
	default:
		return fmt.Errorf("period %d: invalid target state %s", period, to)
	}
	m.states[period-1] = to
	return nil
}

func (m *machine) finish() error {
	for i, s := range m.states {
		if s == Pending {
			return fmt.Errorf("period %d still pending", i+1)
		}
	}
	m.done = true
	return nil
}

// Result is the output of a full rollforward.
type Result struct {
	// Months holds the ledgers of seeded periods in calendar order.
	Months    []*MonthLedger
	States    [12]PeriodState
	Final     core.BalanceVector
	Anomalies []core.Anomaly
}

// Month returns the ledger written under name, or nil.
func (r *Result) Month(name string) *MonthLedger {
	for _, m := range r.Months {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Rollforward drives the month builder over the twelve periods of a year.
type Rollforward struct {
	cfg Config
}

// NewRollforward validates cfg and returns a rollforward bound to it.
func NewRollforward(cfg Config) (*Rollforward, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Rollforward{cfg: cfg}, nil
}

// Config returns the configuration the rollforward was built with.
func (r *Rollforward) Config() Config {
	return r.cfg
}

// Run builds every period of the configured year. Periods before the start
// month are skipped. The start month is seeded from the account registry and
// each later month from the previous ending balances. Inputs are not modified.
func (r *Rollforward) Run(registry []core.Account, rules []core.RecurrenceRule, oneOffs []core.OneOffTransaction) (*Result, error) {
	seed, err := r.cfg.Axis.Seed(registry)
	if err != nil {
		return nil, err
	}

	var (
		m       machine
		res     = &Result{}
		carried core.BalanceVector
	)
	for period := 1; period <= 12; period++ {
		window := r.cfg.Window(period)

		if period < r.cfg.StartMonth {
			if err := m.transition(period, Skipped); err != nil {
				return nil, err
			}
			continue
		}

		starting := carried.Clone()
		if period == r.cfg.StartMonth {
			starting = seed.Clone()
		}

		recurring, recAnomalies := normalize.Recurring(rules, window)
		single, oneAnomalies := normalize.OneOffs(oneOffs, window)
		res.Anomalies = append(res.Anomalies, recAnomalies...)
		res.Anomalies = append(res.Anomalies, oneAnomalies...)

		ml, err := BuildMonth(r.cfg.Axis, window, starting, recurring, single)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", r.cfg.Months[period-1], err)
		}
		if ml == nil {
			if err := m.transition(period, Skipped); err != nil {
				return nil, err
			}
			continue
		}
		if err := m.transition(period, Seeded); err != nil {
			return nil, err
		}
		ml.Name = r.cfg.Months[period-1]
		res.Months = append(res.Months, ml)
		res.Anomalies = append(res.Anomalies, ml.Anomalies...)
		carried = ml.Ending.Clone()
	}

	if err := m.finish(); err != nil {
		return nil, err
	}
	res.States = m.states
	res.Final = carried
	return res, nil
}
