package contracts

import "context"

// PriceSource fetches the full available daily OHLCV history for a ticker.
type PriceSource interface {
	History(ctx context.Context, ticker string) (PriceSeries, error)
}

// Enricher derives a fixed, named set of indicator columns from a price
// series. Implementations document their output column set via Columns; the
// returned slice is always in that order and every column has one value per
// input row.
type Enricher interface {
	Columns() []string
	Enrich(series PriceSeries) ([]IndicatorColumn, error)
}
