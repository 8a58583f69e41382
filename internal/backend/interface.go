package backend

import (
	"context"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
)

// Importer replaces the stored ledger inputs. Only the SQLite backend
// supports it.
type Importer interface {
	Import(ctx context.Context, accounts []core.Account, rules []core.RecurrenceRule, txs []core.OneOffTransaction) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and optional capabilities of a backend
type BackendResult struct {
	Store    sheets.Store
	Importer Importer
	Cleanup  CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Memory specific
	SeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	Sheets gsheet.Options
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
