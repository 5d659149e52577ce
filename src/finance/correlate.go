package finance

import (
	"errors"
	"fmt"

	"finance-link-server/src/models"
)

type AccountLookup interface {
	Lookup(id string) (models.Account, error)
}

// Row is a transaction joined with its account, ready for display.
type Row struct {
	Transaction models.Transaction
	Account     models.Account
}

// Correlate joins transactions with their accounts. Transactions whose
// account is unknown produce no row; each one is reported in the returned
// error, which matches models.ErrAccountLookupMiss.
func Correlate(lookup AccountLookup, txns []models.Transaction) ([]Row, error) {
	rows := make([]Row, 0, len(txns))
	var misses []error
	for i, t := range txns {
		acc, err := lookup.Lookup(t.AccountID)
		if err != nil {
			misses = append(misses, fmt.Errorf("transaction %d: %w", i, err))
			continue
		}
		rows = append(rows, Row{Transaction: t, Account: acc})
	}
	return rows, errors.Join(misses...)
}
