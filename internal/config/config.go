package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/ledger"
)

var validBackends = []string{"memory", "sheets", "sqlite"}

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel string

	// Backend selection
	DataBackend string
	SeedFile    string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID   string
	AccountsSheetName     string
	RecurringSheetName    string
	TransactionsSheetName string
	SheetsCacheTTL        time.Duration

	// Ledger
	LedgerAccounts   []string
	LedgerMonths     []string
	LedgerYear       int
	LedgerStartMonth int
	LedgerCurrency   string

	// AMQP
	AMQPURL              string
	AMQPExchange         string
	AMQPRebuildQueue     string
	AMQPEventsRoutingKey string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		SeedFile:    getEnv("SEED_FILE", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		AccountsSheetName:     getEnv("ACCOUNTS_SHEET_NAME", "Accounts"),
		RecurringSheetName:    getEnv("RECURRING_SHEET_NAME", "Recurring"),
		TransactionsSheetName: getEnv("TRANSACTIONS_SHEET_NAME", "Transactions"),
		SheetsCacheTTL:        getEnvDuration("SHEETS_CACHE_TTL", time.Minute),

		LedgerAccounts:   getEnvList("LEDGER_ACCOUNTS", nil),
		LedgerMonths:     getEnvList("LEDGER_MONTHS", nil),
		LedgerYear:       getEnvInt("LEDGER_YEAR", time.Now().Year()),
		LedgerStartMonth: getEnvInt("LEDGER_START_MONTH", 1),
		LedgerCurrency:   getEnv("LEDGER_CURRENCY", "EUR"),

		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPRebuildQueue:     getEnv("AMQP_REBUILD_QUEUE", "ledger_rebuild"),
		AMQPEventsRoutingKey: getEnv("AMQP_EVENTS_ROUTING_KEY", "ledger.rebuilt"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "memory" && c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file not readable: %s", c.SeedFile))
		}
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.AccountsSheetName == "" || c.RecurringSheetName == "" || c.TransactionsSheetName == "" {
			errors = append(errors, "accounts, recurring and transactions sheet names are required when using sheets backend")
		}
		if c.SheetsCacheTTL < 0 {
			errors = append(errors, fmt.Sprintf("invalid sheets cache TTL %v: must not be negative", c.SheetsCacheTTL))
		}
	}

	if len(c.LedgerAccounts) == 0 {
		errors = append(errors, "LEDGER_ACCOUNTS must list at least one account")
	}
	if n := len(c.LedgerMonths); n != 0 && n != 12 {
		errors = append(errors, fmt.Sprintf("LEDGER_MONTHS must list exactly 12 months, got %d", n))
	}
	if c.LedgerYear < 1900 || c.LedgerYear > 9999 {
		errors = append(errors, fmt.Sprintf("invalid ledger year %d", c.LedgerYear))
	}
	if c.LedgerStartMonth < 1 || c.LedgerStartMonth > 12 {
		errors = append(errors, fmt.Sprintf("invalid ledger start month %d: must be between 1 and 12", c.LedgerStartMonth))
	}
	if len(c.LedgerCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid ledger currency '%s': must be an ISO 4217 code", c.LedgerCurrency))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRebuildQueue == "" {
			errors = append(errors, "AMQP rebuild queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsRoutingKey == "" {
			errors = append(errors, "AMQP events routing key cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// LedgerConfig builds the rollforward configuration from the ledger keys.
func (c *Config) LedgerConfig() (ledger.Config, error) {
	return ledger.NewConfig(c.LedgerAccounts, c.LedgerMonths, c.LedgerYear, c.LedgerStartMonth)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
