package amqp

import (
	"encoding/json"
	"time"
)

// RebuildRequest asks a worker to recompute and rewrite every month ledger.
// The request carries no ledger data; the worker reads the configured store.
type RebuildRequest struct {
	RunID       string    `json:"run_id"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRebuildRequest creates a request stamped with the current time
func NewRebuildRequest(runID, reason string) *RebuildRequest {
	return &RebuildRequest{
		RunID:       runID,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RebuildRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RebuildRequestFromJSON creates a request from JSON bytes
func RebuildRequestFromJSON(data []byte) (*RebuildRequest, error) {
	var msg RebuildRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LedgerRebuilt is published after a rebuild wrote its months. Amounts are
// decimal strings so consumers never round through float64.
type LedgerRebuilt struct {
	RunID      string            `json:"run_id"`
	Year       int               `json:"year"`
	Months     []string          `json:"months"`
	Final      map[string]string `json:"final_balances"`
	NetWorth   string            `json:"net_worth"`
	Anomalies  int               `json:"anomalies"`
	FinishedAt time.Time         `json:"finished_at"`
}

// ToJSON converts the event to JSON bytes
func (m *LedgerRebuilt) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerRebuiltFromJSON creates an event from JSON bytes
func LedgerRebuiltFromJSON(data []byte) (*LedgerRebuilt, error) {
	var msg LedgerRebuilt
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
