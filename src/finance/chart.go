package finance

import (
	"context"

	"finance-link-server/src/models"

	"github.com/rs/zerolog"
)

type SummaryFetcher interface {
	Summary(ctx context.Context, accessToken string) (models.ChartDataset, error)
}

// SummaryChart fetches the server-side category chart. On failure it builds
// the chart from the fallback transactions instead.
type SummaryChart struct {
	fetcher  SummaryFetcher
	fallback FallbackSource
	log      zerolog.Logger
}

func NewSummaryChart(fetcher SummaryFetcher, log zerolog.Logger) *SummaryChart {
	return &SummaryChart{
		fetcher: fetcher,
		log:     log.With().Str("component", "summary_chart").Logger(),
	}
}

func (c *SummaryChart) Fetch(ctx context.Context, accessToken string) (Result[models.ChartDataset], error) {
	if accessToken == "" {
		return Result[models.ChartDataset]{}, &models.Error{Kind: models.KindSummaryFetchFailed, Op: "fetch summary", Err: models.ErrEmptyAccessToken}
	}
	chart, err := c.fetcher.Summary(ctx, accessToken)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to fetch summary chart, using fallback data")
		return Result[models.ChartDataset]{
			Status: Fallback,
			Data:   Summarize(c.fallback.Provide(DatasetTransactions).Transactions).Dataset(),
			Err:    &models.Error{Kind: models.KindSummaryFetchFailed, Op: "fetch summary", Err: err},
		}, nil
	}
	return Result[models.ChartDataset]{Status: Real, Data: chart}, nil
}
