package finance

import (
	"fmt"

	"finance-link-server/src/models"
	"finance-link-server/src/util"
)

// ValidateAccount checks a fetched account against the account schema.
func ValidateAccount(a models.Account) error {
	if !util.ValidateIdentifier(a.ID) {
		return fmt.Errorf("account: invalid account_id %q", a.ID)
	}
	if a.Name == "" {
		return fmt.Errorf("account %s: missing name", a.ID)
	}
	return nil
}

// ValidateTransaction checks a fetched transaction against the transaction
// schema. Categories are normalized separately and are not checked here.
func ValidateTransaction(t models.Transaction) error {
	if !util.ValidateIdentifier(t.AccountID) {
		return fmt.Errorf("transaction: invalid account_id %q", t.AccountID)
	}
	if !util.ValidateISODate(t.Date) {
		return fmt.Errorf("transaction on account %s: invalid date %q", t.AccountID, t.Date)
	}
	return nil
}
