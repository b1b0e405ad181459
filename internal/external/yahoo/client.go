// Package yahoo fetches daily price history from Yahoo Finance.
package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/alext/moneyrobot/internal/contracts"
	"github.com/alext/moneyrobot/pkg/logger"
)

// historyStart is the earliest bar requested per ticker. Yahoo serves
// daily bars back to the ticker's listing date, whichever is later.
var historyStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Client retrieves full daily OHLCV history for a ticker. It rate-limits
// outbound requests so sweep runs over many tickers stay under Yahoo's
// unofficial throttling threshold.
type Client struct {
	limiter *rate.Limiter
	logger  *logger.Logger
}

var _ contracts.PriceSource = (*Client)(nil)

// New creates a Yahoo history client allowing at most rps requests per
// second with a burst of one.
func New(log *logger.Logger, rps float64) *Client {
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  log.WithField("module", "yahoo"),
	}
}

// History fetches the complete daily bar series for a ticker, oldest
// first. Yahoo's chart endpoint does not carry corporate actions, so
// Dividends and StockSplits are zero for every row.
func (c *Client) History(ctx context.Context, ticker string) (contracts.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	start := historyStart
	end := time.Now().UTC()

	params := &chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   ticker,
		Interval: datetime.OneDay,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
	}

	var series contracts.PriceSeries
	iter := chart.Get(params)
	for iter.Next() {
		bar := iter.Bar()

		series = append(series, contracts.PriceRow{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC().Format("2006-01-02"),
			Open:   price(bar.Open),
			High:   price(bar.High),
			Low:    price(bar.Low),
			Close:  price(bar.Close),
			Volume: int64(bar.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", ticker, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no history returned for %s", ticker)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"rows":   len(series),
		"first":  series[0].Date,
		"last":   series[len(series)-1].Date,
	}).Info("Fetched price history")

	return series, nil
}

// price converts a quoted decimal to float64. Bars missing a quote come
// through as zero.
func price(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
