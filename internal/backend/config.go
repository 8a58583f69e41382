package backend

import (
	"fmt"

	"bilancio/internal/config"
	gsheet "bilancio/internal/sheets/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type:         backendType,
		SeedFile:     appConfig.SeedFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}

	if backendType == SheetsBackend {
		// The sheets adapter names month tabs and balance columns after
		// the ledger configuration.
		lc, err := appConfig.LedgerConfig()
		if err != nil {
			return Config{}, err
		}
		cfg.Sheets = gsheet.Options{
			SpreadsheetID:     appConfig.GoogleSpreadsheetID,
			AccountsSheet:     appConfig.AccountsSheetName,
			RecurringSheet:    appConfig.RecurringSheetName,
			TransactionsSheet: appConfig.TransactionsSheetName,
			Months:            lc.Months,
			Accounts:          append([]string(nil), lc.Axis...),
			CacheTTL:          appConfig.SheetsCacheTTL,
		}
	}

	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		// An empty seed file gives an empty store
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SheetsBackend, SQLiteBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
