package finance

import (
	"context"
	"strings"

	"finance-link-server/src/models"

	"github.com/rs/zerolog"
)

type TransactionFetcher interface {
	Transactions(ctx context.Context, accessToken string) (models.TransactionsResponse, error)
}

// TransactionBatch is one fetched, validated and normalized set of
// transactions. Accounts is the id-keyed account map the backend sends along.
type TransactionBatch struct {
	Transactions []models.Transaction
	Accounts     map[string]models.Account
	Rejected     []error
}

type TransactionIngest struct {
	fetcher  TransactionFetcher
	fallback FallbackSource
	log      zerolog.Logger
}

func NewTransactionIngest(fetcher TransactionFetcher, log zerolog.Logger) *TransactionIngest {
	return &TransactionIngest{
		fetcher: fetcher,
		log:     log.With().Str("component", "transaction_ingest").Logger(),
	}
}

// Fetch loads the transactions for accessToken. The empty-token rule and the
// fallback policy match AccountDirectory.Fetch.
func (in *TransactionIngest) Fetch(ctx context.Context, accessToken string) (Result[TransactionBatch], error) {
	if accessToken == "" {
		return Result[TransactionBatch]{}, &models.Error{Kind: models.KindTransactionFetchFailed, Op: "fetch transactions", Err: models.ErrEmptyAccessToken}
	}

	res := Result[TransactionBatch]{Status: Real}
	resp, err := in.fetcher.Transactions(ctx, accessToken)
	if err != nil {
		in.log.Error().Err(err).Msg("Failed to fetch transactions, using fallback data")
		res.Status = Fallback
		res.Err = &models.Error{Kind: models.KindTransactionFetchFailed, Op: "fetch transactions", Err: err}
		resp = models.TransactionsResponse{Transactions: in.fallback.Provide(DatasetTransactions).Transactions}
		accounts := in.fallback.Provide(DatasetAccounts).Accounts
		resp.Accounts = make(map[string]models.Account, len(accounts))
		for _, acc := range accounts {
			resp.Accounts[acc.ID] = acc
		}
	}

	res.Data = normalizeBatch(resp)
	for _, rejected := range res.Data.Rejected {
		in.log.Warn().Err(rejected).Msg("Rejected malformed transaction")
	}
	return res, nil
}

func normalizeBatch(resp models.TransactionsResponse) TransactionBatch {
	batch := TransactionBatch{
		Transactions: make([]models.Transaction, 0, len(resp.Transactions)),
		Accounts:     make(map[string]models.Account, len(resp.Accounts)),
	}
	for id, acc := range resp.Accounts {
		batch.Accounts[id] = acc
	}
	for _, txn := range resp.Transactions {
		if err := ValidateTransaction(txn); err != nil {
			batch.Rejected = append(batch.Rejected, err)
			continue
		}
		txn.Categories = NormalizeCategories(txn.Categories)
		batch.Transactions = append(batch.Transactions, txn)
	}
	return batch
}

// NormalizeCategories trims labels, drops blank ones and substitutes
// "uncategorized" for an empty result. The input is not modified.
func NormalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []string{models.Uncategorized}
	}
	return out
}
