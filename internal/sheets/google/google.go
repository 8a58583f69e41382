package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"google.golang.org/api/googleapi"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// ledgerColumns is wide enough for the fixed ledger columns plus a generous
// account axis.
const ledgerColumns = "A:ZZ"

// Options names the spreadsheet and its sheets.
type Options struct {
	SpreadsheetID     string
	AccountsSheet     string
	RecurringSheet    string
	TransactionsSheet string
	// Months are the sheet names of the twelve month ledgers.
	Months [12]string
	// Accounts label the balance columns of written ledgers.
	Accounts []string
	// CacheTTL bounds how long input sheets are served from memory.
	// Zero disables caching.
	CacheTTL time.Duration
}

func (o Options) validate() error {
	var missing []string
	if strings.TrimSpace(o.SpreadsheetID) == "" {
		missing = append(missing, "spreadsheet id")
	}
	if o.AccountsSheet == "" {
		missing = append(missing, "accounts sheet")
	}
	if o.RecurringSheet == "" {
		missing = append(missing, "recurring sheet")
	}
	if o.TransactionsSheet == "" {
		missing = append(missing, "transactions sheet")
	}
	for i, m := range o.Months {
		if m == "" {
			missing = append(missing, fmt.Sprintf("month %d sheet", i+1))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("sheets options: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type Client struct {
	svc   *gsheet.Service
	opts  Options
	cache *cache.Cache
}

// New creates a Sheets client. Without client options it authenticates from
// the environment, see clientOptionsFromEnv.
func New(ctx context.Context, opts Options, clientOpts ...goption.ClientOption) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(clientOpts) == 0 {
		envOpts, err := clientOptionsFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		clientOpts = envOpts
	}
	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	c := &Client{svc: svc, opts: opts}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	slog.InfoContext(ctx, "Google Sheets client ready",
		"spreadsheet_id", opts.SpreadsheetID,
		"cache_ttl", opts.CacheTTL)
	return c, nil
}

func (c *Client) LoadAccounts(ctx context.Context) ([]core.Account, error) {
	values, err := c.read(ctx, c.accountsRange())
	if err != nil {
		return nil, err
	}
	return parseAccounts(values)
}

func (c *Client) LoadRecurringRules(ctx context.Context) ([]core.RecurrenceRule, error) {
	values, err := c.read(ctx, c.rulesRange())
	if err != nil {
		return nil, err
	}
	return parseRules(values), nil
}

func (c *Client) LoadOneOffTransactions(ctx context.Context) ([]core.OneOffTransaction, error) {
	values, err := c.read(ctx, c.transactionsRange())
	if err != nil {
		return nil, err
	}
	return parseTransactions(values), nil
}

// WriteMonthLedger clears the month sheet and writes the header plus rows.
func (c *Client) WriteMonthLedger(ctx context.Context, month string, rows []core.LedgerRow) error {
	if !c.knownMonth(month) {
		return fmt.Errorf("write %s: %w", month, ports.ErrMonthNotFound)
	}
	rng := month + "!" + ledgerColumns
	if _, err := c.svc.Spreadsheets.Values.Clear(c.opts.SpreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	vr := &gsheet.ValueRange{Values: ledgerValues(c.opts.Accounts, rows)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.opts.SpreadsheetID, month+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", month, err)
	}
	c.forget(rng)
	slog.DebugContext(ctx, "Month ledger written", "month", month, "rows", len(rows))
	return nil
}

// ClearAllMonths empties the twelve month sheets in one batch request.
func (c *Client) ClearAllMonths(ctx context.Context) error {
	ranges := make([]string, 0, len(c.opts.Months))
	for _, m := range c.opts.Months {
		ranges = append(ranges, m+"!"+ledgerColumns)
	}
	req := &gsheet.BatchClearValuesRequest{Ranges: ranges}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.opts.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear month sheets: %w", err)
	}
	for _, r := range ranges {
		c.forget(r)
	}
	return nil
}

func (c *Client) ReadMonthLedger(ctx context.Context, month string) ([]core.LedgerRow, error) {
	if !c.knownMonth(month) {
		return nil, fmt.Errorf("%s: %w", month, ports.ErrMonthNotFound)
	}
	values, err := c.read(ctx, month+"!"+ledgerColumns)
	if isMissingRange(err) {
		return nil, fmt.Errorf("%s: %w: %v", month, ports.ErrMonthNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", month, ports.ErrMonthNotFound)
	}
	return parseLedger(values)
}

func (c *Client) accountsRange() string     { return c.opts.AccountsSheet + "!A:B" }
func (c *Client) rulesRange() string        { return c.opts.RecurringSheet + "!A:J" }
func (c *Client) transactionsRange() string { return c.opts.TransactionsSheet + "!A:F" }

// InvalidateInputs drops the cached Accounts, Recurring and Transactions
// reads so the next load sees the sheet as it is now. Month ledgers stay
// cached.
func (c *Client) InvalidateInputs() {
	c.forget(c.accountsRange())
	c.forget(c.rulesRange())
	c.forget(c.transactionsRange())
}

// InvalidateCache drops every cached sheet read.
func (c *Client) InvalidateCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

// read returns the cell matrix of rng, served from the cache when possible.
func (c *Client) read(ctx context.Context, rng string) ([][]interface{}, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(rng); ok {
			return v.([][]interface{}), nil
		}
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.opts.SpreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if c.cache != nil {
		c.cache.Set(rng, resp.Values, cache.DefaultExpiration)
	}
	return resp.Values, nil
}

// isMissingRange reports whether err is the 400 Sheets answers for a range on
// a sheet that does not exist.
func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest
}

func (c *Client) forget(rng string) {
	if c.cache != nil {
		c.cache.Delete(rng)
	}
}

func (c *Client) knownMonth(month string) bool {
	for _, m := range c.opts.Months {
		if m == month {
			return true
		}
	}
	return false
}
