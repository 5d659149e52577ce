package finance

import (
	"sort"

	"finance-link-server/src/models"

	"github.com/shopspring/decimal"
)

// Summarize buckets each transaction under its first category and totals
// the amounts. Entries are ordered by descending total, then by label.
func Summarize(txns []models.Transaction) models.CategorySummary {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		label := t.PrimaryCategory()
		totals[label] = totals[label].Add(t.Amount)
	}

	entries := make([]models.CategoryTotal, 0, len(totals))
	for label, total := range totals {
		entries = append(entries, models.CategoryTotal{Label: label, Total: total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].Total.Cmp(entries[j].Total); c != 0 {
			return c > 0
		}
		return entries[i].Label < entries[j].Label
	})

	return models.CategorySummary{Totals: totals, Entries: entries}
}
