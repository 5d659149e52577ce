package finance

import (
	"context"
	"fmt"
	"sync"

	"finance-link-server/src/models"

	"github.com/rs/zerolog"
)

type AccountFetcher interface {
	Accounts(ctx context.Context, accessToken string) ([]models.Account, error)
}

// AccountSet is one fetched account collection and its id index.
type AccountSet struct {
	Accounts []models.Account
	ByID     map[string]models.Account
	Rejected []error
}

func newAccountSet(accounts []models.Account) AccountSet {
	set := AccountSet{ByID: make(map[string]models.Account, len(accounts))}
	for _, acc := range accounts {
		if err := ValidateAccount(acc); err != nil {
			set.Rejected = append(set.Rejected, err)
			continue
		}
		set.Accounts = append(set.Accounts, acc)
		set.ByID[acc.ID] = acc
	}
	return set
}

// Lookup resolves an account id. Unknown ids are an AccountLookupMiss.
func (s AccountSet) Lookup(id string) (models.Account, error) {
	acc, ok := s.ByID[id]
	if !ok {
		return models.Account{}, &models.Error{
			Kind: models.KindAccountLookupMiss,
			Err:  fmt.Errorf("unknown account id %q", id),
		}
	}
	return acc, nil
}

// AccountDirectory holds the accounts of the most recent fetch. Each fetch
// replaces the directory wholesale.
type AccountDirectory struct {
	fetcher  AccountFetcher
	fallback FallbackSource
	log      zerolog.Logger

	mu  sync.RWMutex
	set AccountSet
}

func NewAccountDirectory(fetcher AccountFetcher, log zerolog.Logger) *AccountDirectory {
	return &AccountDirectory{
		fetcher: fetcher,
		log:     log.With().Str("component", "account_directory").Logger(),
		set:     AccountSet{ByID: map[string]models.Account{}},
	}
}

// Fetch loads the accounts for accessToken. An empty token is rejected before
// any request is made; a failed request yields the fallback accounts.
func (d *AccountDirectory) Fetch(ctx context.Context, accessToken string) (Result[AccountSet], error) {
	if accessToken == "" {
		return Result[AccountSet]{}, &models.Error{Kind: models.KindAccountFetchFailed, Op: "fetch accounts", Err: models.ErrEmptyAccessToken}
	}

	res := Result[AccountSet]{Status: Real}
	accounts, err := d.fetcher.Accounts(ctx, accessToken)
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to fetch accounts, using fallback data")
		res.Status = Fallback
		res.Err = &models.Error{Kind: models.KindAccountFetchFailed, Op: "fetch accounts", Err: err}
		accounts = d.fallback.Provide(DatasetAccounts).Accounts
	}
	res.Data = newAccountSet(accounts)
	for _, rejected := range res.Data.Rejected {
		d.log.Warn().Err(rejected).Msg("Rejected malformed account")
	}

	d.mu.Lock()
	d.set = res.Data
	d.mu.Unlock()

	return res, nil
}

func (d *AccountDirectory) Lookup(id string) (models.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.set.Lookup(id)
}

// Accounts returns the accounts of the latest fetch in fetch order.
func (d *AccountDirectory) Accounts() []models.Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Account(nil), d.set.Accounts...)
}
