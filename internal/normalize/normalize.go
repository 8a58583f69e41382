// Package normalize turns raw rule rows and one-off rows into uniform
// transactions for one month, applying the category sign convention.
package normalize

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/recurrence"
)

// Recurring expands every usable rule into transactions inside window.
// Rows without a description, divider rows and inactive rules are skipped.
// Recurring transactions never carry a transfer destination.
func Recurring(rules []core.RecurrenceRule, window core.MonthWindow) ([]core.Transaction, []core.Anomaly) {
	month := core.MonthKey(window)
	var (
		out       []core.Transaction
		anomalies []core.Anomaly
	)
	note := func(kind core.AnomalyKind, subject, detail string) {
		anomalies = append(anomalies, core.Anomaly{Kind: kind, Month: month, Subject: subject, Detail: detail})
	}

	for _, rule := range rules {
		desc := strings.TrimSpace(rule.Description)
		switch {
		case desc == "":
			note(core.AnomalyMissingDescription, "", "recurring rule")
			continue
		case rule.Divider || core.IsDividerLabel(desc):
			note(core.AnomalyDividerRow, desc, "")
			continue
		case !rule.Active:
			note(core.AnomalyInactiveRule, desc, "")
			continue
		case rule.StartDate.IsEmpty():
			note(core.AnomalyMissingStartDate, desc, "")
			continue
		}

		dates, err := recurrence.Occurrences(rule, window)
		if err != nil {
			if errors.Is(err, recurrence.ErrUnknownFrequency) {
				note(core.AnomalyUnknownFrequency, desc, string(rule.Frequency))
			}
			continue
		}
		if len(dates) == 0 {
			continue
		}

		amount, ok := parseAmount(rule.Amount)
		if !ok {
			note(core.AnomalyMalformedAmount, desc, rule.Amount)
		}
		amount = core.ApplySign(rule.Category, amount)

		for _, d := range dates {
			out = append(out, core.Transaction{
				Date:        d,
				Description: desc,
				Category:    strings.TrimSpace(rule.Category),
				Account:     strings.TrimSpace(rule.Account),
				Amount:      amount,
				Source:      core.SourceRecurring,
			})
		}
	}
	return out, anomalies
}

// OneOffs keeps the rows dated inside window and normalizes them.
// Undated rows are skipped; the transfer destination is carried verbatim.
func OneOffs(rows []core.OneOffTransaction, window core.MonthWindow) ([]core.Transaction, []core.Anomaly) {
	month := core.MonthKey(window)
	var (
		out       []core.Transaction
		anomalies []core.Anomaly
	)
	for _, row := range rows {
		desc := strings.TrimSpace(row.Description)
		if row.Date.IsEmpty() {
			anomalies = append(anomalies, core.Anomaly{Kind: core.AnomalyMissingDate, Month: month, Subject: desc})
			continue
		}
		if !window.Contains(row.Date) {
			continue
		}
		amount, ok := parseAmount(row.Amount)
		if !ok {
			anomalies = append(anomalies, core.Anomaly{Kind: core.AnomalyMalformedAmount, Month: month, Subject: desc, Detail: row.Amount})
		}
		out = append(out, core.Transaction{
			Date:        row.Date,
			Description: desc,
			Category:    strings.TrimSpace(row.Category),
			Account:     strings.TrimSpace(row.Account),
			Amount:      core.ApplySign(row.Category, amount),
			Source:      core.SourceSingle,
			TransferTo:  strings.TrimSpace(row.TransferTo),
		})
	}
	return out, anomalies
}

// parseAmount coerces malformed or empty amounts to zero.
func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
