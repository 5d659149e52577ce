package finance

import (
	"context"

	"finance-link-server/src/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// TokenSource yields the access token once the link handshake is done.
// Done closes when the handshake ends either way; AccessToken then returns
// the token or the error that ended it. *link.Exchange satisfies it.
type TokenSource interface {
	Done() <-chan struct{}
	AccessToken() (string, error)
}

// Dashboard is everything the presentation layer shows after linking.
type Dashboard struct {
	Accounts     Result[AccountSet]
	Transactions Result[TransactionBatch]
	Summary      models.CategorySummary
	Chart        Result[models.ChartDataset]
	Rows         []Row
	// LookupErr reports every transaction whose account is unknown.
	LookupErr error
}

// Fallback reports whether any part of the dashboard is synthetic.
func (d *Dashboard) Fallback() bool {
	return d.Accounts.IsFallback() || d.Transactions.IsFallback() || d.Chart.IsFallback()
}

type Loader struct {
	accounts     *AccountDirectory
	transactions *TransactionIngest
	chart        *SummaryChart
	log          zerolog.Logger
}

// NewLoader wires the data components together. chart may be nil, in which
// case the chart is derived locally from the ingested transactions.
func NewLoader(accounts *AccountDirectory, transactions *TransactionIngest, chart *SummaryChart, log zerolog.Logger) *Loader {
	return &Loader{accounts: accounts, transactions: transactions, chart: chart, log: log}
}

// Load waits for the handshake to finish, then fetches accounts,
// transactions and the chart concurrently. A failed handshake is returned
// as is.
func (l *Loader) Load(ctx context.Context, src TokenSource) (*Dashboard, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-src.Done():
	}
	token, err := src.AccessToken()
	if err != nil {
		return nil, err
	}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := l.accounts.Fetch(gctx, token)
		d.Accounts = res
		return err
	})
	g.Go(func() error {
		res, err := l.transactions.Fetch(gctx, token)
		if err != nil {
			return err
		}
		d.Transactions = res
		d.Summary = Summarize(res.Data.Transactions)
		return nil
	})
	if l.chart != nil {
		g.Go(func() error {
			res, err := l.chart.Fetch(gctx, token)
			d.Chart = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if l.chart == nil {
		d.Chart = Result[models.ChartDataset]{
			Status: d.Transactions.Status,
			Data:   d.Summary.Dataset(),
			Err:    d.Transactions.Err,
		}
	}

	d.Rows, d.LookupErr = Correlate(d.Accounts.Data, d.Transactions.Data.Transactions)
	if d.LookupErr != nil {
		l.log.Warn().Err(d.LookupErr).Msg("Transactions reference unknown accounts")
	}
	l.log.Info().
		Int("accounts", len(d.Accounts.Data.Accounts)).
		Int("transactions", len(d.Transactions.Data.Transactions)).
		Bool("fallback", d.Fallback()).
		Msg("Dashboard loaded")
	return &d, nil
}
