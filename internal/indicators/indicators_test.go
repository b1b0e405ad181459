package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alext/moneyrobot/internal/contracts"
	"github.com/alext/moneyrobot/pkg/logger"
)

func syntheticSeries(n int) contracts.PriceSeries {
	series := make(contracts.PriceSeries, n)
	price := 100.0
	for i := range series {
		if i%3 == 0 {
			price += 2
		} else {
			price -= 0.5
		}
		series[i] = contracts.PriceRow{
			Date:   "2025-01-02",
			Open:   price - 1,
			High:   price + 2,
			Low:    price - 2,
			Close:  price,
			Volume: int64(1000 + i*10),
		}
	}
	return series
}

func TestEnrichFixedColumnSet(t *testing.T) {
	c := NewCalculator(logger.NewNop())
	series := syntheticSeries(60)

	cols, err := c.Enrich(series)
	require.NoError(t, err)
	require.Len(t, cols, len(c.Columns()))

	for i, col := range cols {
		assert.Equal(t, c.Columns()[i], col.Name, "column order must be stable")
		assert.Len(t, col.Values, len(series), "every column aligns with the series")
	}
}

func TestEnrichEmptySeries(t *testing.T) {
	c := NewCalculator(logger.NewNop())
	_, err := c.Enrich(nil)
	assert.Error(t, err)
}

func TestRSIBounds(t *testing.T) {
	values := rsi(syntheticSeries(120).Closes(), rsiPeriod)
	for i, v := range values {
		assert.GreaterOrEqual(t, v, 0.0, "row %d", i)
		assert.LessOrEqual(t, v, 100.0, "row %d", i)
	}
	// Warm-up rows are neutral.
	assert.Equal(t, 50.0, values[0])
}

func TestRSIAllGainsIsMax(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	values := rsi(closes, rsiPeriod)
	assert.Equal(t, 100.0, values[len(values)-1])
}

func TestSMA(t *testing.T) {
	values := sma([]float64{2, 4, 6, 8}, 2)
	assert.Equal(t, []float64{2, 3, 5, 7}, values)
}

func TestROC(t *testing.T) {
	values := roc([]float64{100, 100, 110}, 2)
	assert.Equal(t, 0.0, values[0])
	assert.InDelta(t, 10.0, values[2], 1e-9)
}

func TestOBV(t *testing.T) {
	series := contracts.PriceSeries{
		{Close: 10, Volume: 100},
		{Close: 11, Volume: 200}, // up: +200
		{Close: 9, Volume: 300},  // down: -300
		{Close: 9, Volume: 400},  // flat: unchanged
	}
	values := obv(series)
	assert.Equal(t, []float64{0, 200, -100, -100}, values)
}

func TestATRPositive(t *testing.T) {
	values := atr(syntheticSeries(50), atrPeriod)
	for i, v := range values {
		assert.Greater(t, v, 0.0, "row %d", i)
	}
}
