package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts travel as plain JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true
}

// Balances are null when the institution does not report them.
type Balances struct {
	Available decimal.NullDecimal `json:"available"`
	Current   decimal.NullDecimal `json:"current"`
}

// NewBalances builds balances that are both reported.
func NewBalances(available, current decimal.Decimal) Balances {
	return Balances{
		Available: decimal.NewNullDecimal(available),
		Current:   decimal.NewNullDecimal(current),
	}
}

type Account struct {
	ID           string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Subtype      string   `json:"subtype"`
	Balances     Balances `json:"balances"`
}

type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
}
