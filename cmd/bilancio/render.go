package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// formatMoney renders d with the symbol and grouping of currency. Unknown
// currencies fall back to a plain two-decimal number.
func formatMoney(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return core.FormatAmount(d)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

func ledgerHeader(accounts []string) []string {
	header := []string{"Date", "Description", "Category", "Account", "Amount", "Source"}
	header = append(header, accounts...)
	return append(header, "Net Worth")
}

func ledgerRecord(lr core.LedgerRow, format func(decimal.Decimal) string) []string {
	amount := ""
	if lr.Amount != nil {
		amount = format(*lr.Amount)
	}
	rec := []string{lr.Date.String(), lr.Description, lr.Category, lr.Account, amount, string(lr.Source)}
	for _, b := range lr.Balances {
		rec = append(rec, format(b))
	}
	return append(rec, format(lr.NetWorth))
}

// writeTable prints rows as an aligned table with currency formatting.
func writeTable(w io.Writer, accounts []string, rows []core.LedgerRow, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(ledgerHeader(accounts), "\t"))
	format := func(d decimal.Decimal) string { return formatMoney(d, currency) }
	for _, lr := range rows {
		fmt.Fprintln(tw, strings.Join(ledgerRecord(lr, format), "\t"))
	}
	return tw.Flush()
}

// writeCSV prints rows as CSV with plain decimal amounts.
func writeCSV(w io.Writer, accounts []string, rows []core.LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader(accounts)); err != nil {
		return err
	}
	for _, lr := range rows {
		if err := cw.Write(ledgerRecord(lr, core.FormatAmount)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeBalances prints one line per account plus the net worth.
func writeBalances(w io.Writer, accounts []string, final core.BalanceVector, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, name := range accounts {
		if i < len(final) {
			fmt.Fprintf(tw, "%s\t%s\n", name, formatMoney(final[i], currency))
		}
	}
	fmt.Fprintf(tw, "Net Worth\t%s\n", formatMoney(final.Sum(), currency))
	return tw.Flush()
}
