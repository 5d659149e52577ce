package main

import (
	"fmt"
	"io"
	"strings"

	"finance-link-server/src/finance"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

func printDashboard(w io.Writer, d *finance.Dashboard) {
	warnFallback(w, "accounts", d.Accounts.Status, d.Accounts.Err)
	warnFallback(w, "transactions", d.Transactions.Status, d.Transactions.Err)
	warnFallback(w, "summary chart", d.Chart.Status, d.Chart.Err)
	if n := len(d.Accounts.Data.Rejected) + len(d.Transactions.Data.Rejected); n > 0 {
		fmt.Fprintln(w, text.FgYellow.Sprintf("Skipped %d malformed records", n))
	}
	if d.LookupErr != nil {
		fmt.Fprintln(w, text.FgRed.Sprintf("Unknown accounts: %v", strings.ReplaceAll(d.LookupErr.Error(), "\n", "; ")))
	}

	printAccounts(w, d)
	fmt.Fprintln(w)
	printTransactions(w, d)
	fmt.Fprintln(w)
	printSummary(w, d)
}

func warnFallback(w io.Writer, what string, status finance.Status, err error) {
	if status != finance.Fallback {
		return
	}
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	fmt.Fprintln(w, text.FgYellow.Sprintf("Showing sample %s: %s", what, reason))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func printAccounts(w io.Writer, d *finance.Dashboard) {
	t := newTable(w)
	t.SetTitle("Accounts")
	t.AppendHeader(table.Row{"Name", "Subtype", "Available", "Current"})
	for _, a := range d.Accounts.Data.Accounts {
		t.AppendRow(table.Row{a.Name, a.Subtype, balance(a.Balances.Available), balance(a.Balances.Current)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

func balance(b decimal.NullDecimal) string {
	if !b.Valid {
		return "-"
	}
	return b.Decimal.StringFixed(2)
}

func printTransactions(w io.Writer, d *finance.Dashboard) {
	t := newTable(w)
	t.SetTitle("Transactions")
	t.AppendHeader(table.Row{"Date", "Name", "Account", "Category", "Amount"})
	for _, r := range d.Rows {
		t.AppendRow(table.Row{
			r.Transaction.Date,
			r.Transaction.Name,
			r.Account.Name,
			r.Transaction.PrimaryCategory(),
			r.Transaction.Amount.StringFixed(2),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func printSummary(w io.Writer, d *finance.Dashboard) {
	t := newTable(w)
	t.SetTitle("Spending by category")
	t.AppendHeader(table.Row{"Category", "Total"})
	for _, e := range d.Summary.Entries {
		t.AppendRow(table.Row{e.Label, e.Total.StringFixed(2)})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Total"), text.Bold.Sprint(d.Summary.Sum().StringFixed(2))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()
}
