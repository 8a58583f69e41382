package core

import "fmt"

// Anomaly kinds. Anomalies never abort a run; they explain why the output is
// smaller than the input.
const (
	AnomalyDividerRow         AnomalyKind = "divider_row"
	AnomalyInactiveRule       AnomalyKind = "inactive_rule"
	AnomalyMissingDescription AnomalyKind = "missing_description"
	AnomalyMissingStartDate   AnomalyKind = "missing_start_date"
	AnomalyMissingDate        AnomalyKind = "missing_date"
	AnomalyUnknownFrequency   AnomalyKind = "unknown_frequency"
	AnomalyMalformedAmount    AnomalyKind = "malformed_amount"
	AnomalyUnknownAccount     AnomalyKind = "unknown_account"
	AnomalyUnknownTransfer    AnomalyKind = "unknown_transfer_account"
)

type AnomalyKind string

// Anomaly is a recovered row-level or data-quality problem.
type Anomaly struct {
	Kind    AnomalyKind
	Month   string // "2025-03"; empty when not tied to a month
	Subject string // description of the offending row
	Detail  string
}

func (a Anomaly) String() string {
	if a.Detail == "" {
		return fmt.Sprintf("%s %s: %s", a.Month, a.Kind, a.Subject)
	}
	return fmt.Sprintf("%s %s: %s (%s)", a.Month, a.Kind, a.Subject, a.Detail)
}

// MonthKey formats a window as "YYYY-MM" for anomaly reporting.
func MonthKey(w MonthWindow) string {
	return fmt.Sprintf("%04d-%02d", w.Year(), int(w.Month()))
}
