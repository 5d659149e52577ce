package finance

import (
	"context"
	"errors"
	"sync"

	"finance-link-server/src/models"

	"github.com/shopspring/decimal"
)

type stubBackend struct {
	mu sync.Mutex

	accounts     []models.Account
	accountsErr  error
	transactions models.TransactionsResponse
	txnErr       error
	chart        models.ChartDataset
	chartErr     error

	accountCalls int
	txnCalls     int
	chartCalls   int
	tokens       []string
}

func (s *stubBackend) Accounts(ctx context.Context, accessToken string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountCalls++
	s.tokens = append(s.tokens, accessToken)
	return s.accounts, s.accountsErr
}

func (s *stubBackend) Transactions(ctx context.Context, accessToken string) (models.TransactionsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txnCalls++
	return s.transactions, s.txnErr
}

func (s *stubBackend) Summary(ctx context.Context, accessToken string) (models.ChartDataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chartCalls++
	return s.chart, s.chartErr
}

var errNetwork = errors.New("connection refused")

func account(id, name string, available, current int64) models.Account {
	return models.Account{
		ID:      id,
		Name:    name,
		Subtype: "checking",
		Balances: models.NewBalances(decimal.NewFromInt(available), decimal.NewFromInt(current)),
	}
}

func txn(accountID, amount string, categories ...string) models.Transaction {
	return models.Transaction{
		AccountID:  accountID,
		Amount:     decimal.RequireFromString(amount),
		Categories: categories,
		Date:       "2022-03-14",
	}
}
