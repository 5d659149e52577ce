package export

import (
	"fmt"
	"strings"

	"finance-link-server/src/finance"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetAccounts     = "Accounts"
	SheetTransactions = "Transactions"
	SheetSummary      = "Summary"
)

// Workbook lays the dashboard out on three sheets. Data that came from the
// fallback source is flagged in the sheet's first row.
func Workbook(d *finance.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2D3436"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create money style: %w", err)
	}

	sheets := []struct {
		name     string
		fallback bool
		header   []any
		rows     [][]any
		money    []string
	}{
		{
			name:     SheetAccounts,
			fallback: d.Accounts.IsFallback(),
			header:   []any{"Account ID", "Name", "Official Name", "Subtype", "Available", "Current"},
			rows:     accountRows(d),
			money:    []string{"E", "F"},
		},
		{
			name:     SheetTransactions,
			fallback: d.Transactions.IsFallback(),
			header:   []any{"Date", "Name", "Merchant", "Account", "Categories", "Amount"},
			rows:     transactionRows(d),
			money:    []string{"F"},
		},
		{
			name:     SheetSummary,
			fallback: d.Transactions.IsFallback(),
			header:   []any{"Category", "Total"},
			rows:     summaryRows(d),
			money:    []string{"B"},
		},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, s.name, s.fallback, s.header, s.rows, s.money, headerStyle, moneyStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s sheet: %w", s.name, err)
		}
	}

	return f, nil
}

// WriteWorkbook saves the dashboard as an xlsx file at path.
func WriteWorkbook(path string, d *finance.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet string, fallback bool, header []any, rows [][]any, money []string, headerStyle, moneyStyle int) error {
	row := 1
	if fallback {
		if err := f.SetCellValue(sheet, "A1", "Sample data: the live fetch failed"); err != nil {
			return err
		}
		row++
	}

	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), row)
	if err := f.SetCellStyle(sheet, cell, last, headerStyle); err != nil {
		return err
	}
	headerRow := row

	for _, r := range rows {
		row++
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}

	if row > headerRow {
		for _, col := range money {
			if err := f.SetCellStyle(sheet, fmt.Sprintf("%s%d", col, headerRow+1), fmt.Sprintf("%s%d", col, row), moneyStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

func accountRows(d *finance.Dashboard) [][]any {
	rows := make([][]any, 0, len(d.Accounts.Data.Accounts))
	for _, a := range d.Accounts.Data.Accounts {
		rows = append(rows, []any{
			a.ID,
			a.Name,
			a.OfficialName,
			a.Subtype,
			balanceCell(a.Balances.Available),
			balanceCell(a.Balances.Current),
		})
	}
	return rows
}

// balanceCell leaves unreported balances blank.
func balanceCell(b decimal.NullDecimal) any {
	if !b.Valid {
		return nil
	}
	return b.Decimal.InexactFloat64()
}

func transactionRows(d *finance.Dashboard) [][]any {
	rows := make([][]any, 0, len(d.Rows))
	for _, r := range d.Rows {
		rows = append(rows, []any{
			r.Transaction.Date,
			r.Transaction.Name,
			r.Transaction.MerchantName,
			r.Account.Name,
			strings.Join(r.Transaction.Categories, " > "),
			r.Transaction.Amount.InexactFloat64(),
		})
	}
	return rows
}

func summaryRows(d *finance.Dashboard) [][]any {
	rows := make([][]any, 0, len(d.Summary.Entries))
	for _, e := range d.Summary.Entries {
		rows = append(rows, []any{e.Label, e.Total.InexactFloat64()})
	}
	return rows
}
