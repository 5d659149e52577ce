package models

import "github.com/shopspring/decimal"

type CategoryTotal struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// CategorySummary maps category labels to accumulated amounts. Entries holds
// the same totals in display order.
type CategorySummary struct {
	Totals  map[string]decimal.Decimal `json:"totals"`
	Entries []CategoryTotal            `json:"entries"`
}

// Sum adds up every bucket in the summary.
func (s CategorySummary) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, total := range s.Totals {
		sum = sum.Add(total)
	}
	return sum
}

// ChartSeries and ChartDataset follow the shape chart widgets expect:
// one label per bucket and a parallel data series.
type ChartSeries struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

type ChartDataset struct {
	Labels   []string      `json:"labels"`
	Datasets []ChartSeries `json:"datasets"`
}

const SummarySeriesLabel = "Spending by category"

// Dataset converts the ordered entries into a chart dataset.
func (s CategorySummary) Dataset() ChartDataset {
	labels := make([]string, 0, len(s.Entries))
	data := make([]float64, 0, len(s.Entries))
	for _, e := range s.Entries {
		labels = append(labels, e.Label)
		data = append(data, e.Total.InexactFloat64())
	}
	return ChartDataset{
		Labels:   labels,
		Datasets: []ChartSeries{{Label: SummarySeriesLabel, Data: data}},
	}
}
