package models

import "github.com/shopspring/decimal"

// Uncategorized is the label given to transactions that arrive without any
// category.
const Uncategorized = "uncategorized"

type Transaction struct {
	AccountID    string          `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	Categories   []string        `json:"category"`
	Date         string          `json:"date"`
	Name         string          `json:"name"`
	MerchantName string          `json:"merchant_name"`
	OwnerName    string          `json:"account_owner"`
}

// PrimaryCategory returns the first category label, or Uncategorized.
func (t Transaction) PrimaryCategory() string {
	if len(t.Categories) == 0 || t.Categories[0] == "" {
		return Uncategorized
	}
	return t.Categories[0]
}

type TransactionsResponse struct {
	Accounts     map[string]Account `json:"accounts"`
	Transactions []Transaction      `json:"transactions"`
}
