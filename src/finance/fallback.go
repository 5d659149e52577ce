package finance

import (
	"finance-link-server/src/models"

	"github.com/shopspring/decimal"
)

type DatasetKind string

const (
	DatasetAccounts     DatasetKind = "accounts"
	DatasetTransactions DatasetKind = "transactions"
)

// Dataset is a synthetic payload; only the field matching Kind is filled.
type Dataset struct {
	Kind         DatasetKind
	Accounts     []models.Account
	Transactions []models.Transaction
}

// FallbackSource hands out fixed stand-in data when a real fetch fails. It
// does no I/O and never fails. Every call returns fresh copies.
type FallbackSource struct{}

func (FallbackSource) Provide(kind DatasetKind) Dataset {
	switch kind {
	case DatasetAccounts:
		return Dataset{Kind: kind, Accounts: FallbackAccounts()}
	case DatasetTransactions:
		return Dataset{Kind: kind, Transactions: FallbackTransactions()}
	}
	return Dataset{Kind: kind}
}

const (
	fallbackAccountID1 = "123"
	fallbackAccountID2 = "456"
)

func FallbackAccounts() []models.Account {
	return []models.Account{
		{
			ID:           fallbackAccountID1,
			Name:         "Name1",
			OfficialName: "Official Name1",
			Subtype:      "checking",
			Balances:     models.NewBalances(decimal.NewFromInt(100), decimal.NewFromInt(110)),
		},
		{
			ID:           fallbackAccountID2,
			Name:         "Name2",
			OfficialName: "Official Name2",
			Subtype:      "savings",
			Balances:     models.NewBalances(decimal.NewFromInt(200), decimal.NewFromInt(220)),
		},
	}
}

func FallbackTransactions() []models.Transaction {
	return []models.Transaction{
		{
			AccountID:    fallbackAccountID1,
			Amount:       decimal.NewFromInt(123),
			Categories:   []string{"test_cat_1", "test_cat_2"},
			Date:         "2020-01-01",
			Name:         "test_name",
			MerchantName: "test merchant_name",
			OwnerName:    "test account_owner",
		},
	}
}
