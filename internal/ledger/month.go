// Package ledger folds normalized transactions into running-balance month
// ledgers and rolls the ending balances forward across a year.
package ledger

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// ErrMissingBalances is returned when a month has transactions but no
// starting balances to fold them into.
var ErrMissingBalances = errors.New("month has transactions but no starting balances")

// MonthLedger is the output of one month build.
type MonthLedger struct {
	Name      string
	Window    core.MonthWindow
	Rows      []core.LedgerRow
	Starting  core.BalanceVector
	Ending    core.BalanceVector
	Anomalies []core.Anomaly
}

// BuildMonth merges the recurring and single transactions of window, orders
// them and folds them into starting. A nil starting vector with no
// transactions means the month has no data yet and yields (nil, nil).
//
// The first row is the synthetic starting-balance row. Every row carries its
// own copy of the balances; starting is never modified.
func BuildMonth(axis core.Axis, window core.MonthWindow, starting core.BalanceVector, recurring, single []core.Transaction) (*MonthLedger, error) {
	if starting == nil {
		if len(recurring) == 0 && len(single) == 0 {
			return nil, nil
		}
		return nil, ErrMissingBalances
	}
	if len(starting) != len(axis) {
		return nil, errors.New("starting balances do not match the account axis")
	}

	txs := merge(recurring, single)
	month := core.MonthKey(window)

	balances := starting.Clone()
	out := &MonthLedger{
		Window:   window,
		Starting: starting.Clone(),
		Rows:     make([]core.LedgerRow, 0, len(txs)+1),
	}
	out.Rows = append(out.Rows, core.LedgerRow{
		Date:        window.Start,
		Description: core.StartingBalanceLabel,
		Source:      core.SourceInitial,
		Balances:    balances.Clone(),
		NetWorth:    balances.Sum(),
	})

	for _, tx := range txs {
		if i := axis.Index(tx.Account); i >= 0 {
			balances[i] = balances[i].Add(tx.Amount)
		} else {
			out.Anomalies = append(out.Anomalies, core.Anomaly{
				Kind:    core.AnomalyUnknownAccount,
				Month:   month,
				Subject: tx.Description,
				Detail:  tx.Account,
			})
		}
		if tx.TransferTo != "" {
			if j := axis.Index(tx.TransferTo); j >= 0 {
				balances[j] = balances[j].Add(tx.Amount.Abs())
			} else {
				out.Anomalies = append(out.Anomalies, core.Anomaly{
					Kind:    core.AnomalyUnknownTransfer,
					Month:   month,
					Subject: tx.Description,
					Detail:  tx.TransferTo,
				})
			}
		}

		amount := tx.Amount
		out.Rows = append(out.Rows, core.LedgerRow{
			Date:        tx.Date,
			Description: tx.Description,
			Category:    tx.Category,
			Account:     tx.Account,
			Amount:      &amount,
			Source:      tx.Source,
			Balances:    balances.Clone(),
			NetWorth:    balances.Sum(),
		})
	}

	out.Ending = balances
	return out, nil
}

// merge concatenates recurring then single transactions and sorts them by
// date, income before everything else on the same day. Ties keep input order.
func merge(recurring, single []core.Transaction) []core.Transaction {
	txs := make([]core.Transaction, 0, len(recurring)+len(single))
	txs = append(txs, recurring...)
	txs = append(txs, single...)
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return core.IsIncome(a.Category) && !core.IsIncome(b.Category)
	})
	return txs
}

// Delta returns Ending minus Starting per account.
func (m *MonthLedger) Delta() core.BalanceVector {
	out := make(core.BalanceVector, len(m.Ending))
	for i := range m.Ending {
		out[i] = m.Ending[i].Sub(m.Starting[i])
	}
	return out
}

// NetChange is the net worth movement over the month.
func (m *MonthLedger) NetChange() decimal.Decimal {
	return m.Ending.Sum().Sub(m.Starting.Sum())
}
