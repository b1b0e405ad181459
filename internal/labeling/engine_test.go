package labeling

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alext/moneyrobot/internal/contracts"
	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/logger"
)

func seriesFromCloses(closes []float64) contracts.PriceSeries {
	series := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = contracts.PriceRow{Date: "2025-01-01", Close: c}
	}
	return series
}

func newEngine(t *testing.T, policy Policy) *Engine {
	t.Helper()
	e, err := NewEngine(policy, logger.NewNop())
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsUnknownPolicy(t *testing.T) {
	_, err := NewEngine("median", logger.NewNop())
	assert.Error(t, err)
}

func TestThresholdPolicyExactValues(t *testing.T) {
	// close = [100, 102, 98, 105], shift=1, move=2%:
	//   row 1: (102-100)/102*100 = 1.96  -> HOLD for every strategy
	//   row 2: (98-102)/98*100   = -4.08 -> SELL (sell strategy), HOLD (buy)
	//   row 3: (105-98)/105*100  = 6.67  -> BUY (buy strategy), HOLD (sell)
	series := seriesFromCloses([]float64{100, 102, 98, 105})
	e := newEngine(t, PolicyThreshold)

	buy, err := e.Label(series, Params{ShiftPeriods: 1, MoveValue: 2, Strategy: StrategyBuy})
	require.NoError(t, err)
	require.Len(t, buy, 4)
	assert.False(t, buy[0].Valid, "look-back window leaves the series")
	assert.Equal(t, SignalHold, buy[1].Signal)
	assert.Equal(t, SignalHold, buy[2].Signal, "buy strategy folds SELL into HOLD")
	assert.Equal(t, SignalBuy, buy[3].Signal)

	sell, err := e.Label(series, Params{ShiftPeriods: 1, MoveValue: 2, Strategy: StrategySell})
	require.NoError(t, err)
	assert.Equal(t, SignalHold, sell[1].Signal)
	assert.Equal(t, SignalSell, sell[2].Signal)
	assert.Equal(t, SignalHold, sell[3].Signal, "sell strategy folds BUY into HOLD")

	both, err := e.Label(series, Params{ShiftPeriods: 1, MoveValue: 2, Strategy: StrategyBoth})
	require.NoError(t, err)
	assert.Equal(t, SignalHold, both[1].Signal)
	assert.Equal(t, SignalSell, both[2].Signal)
	assert.Equal(t, SignalBuy, both[3].Signal)
}

func TestThresholdTieIsInclusive(t *testing.T) {
	// Row 1 moves exactly +2% of its own close: 98 -> 100, (100-98)/100*100 = 2.
	series := seriesFromCloses([]float64{98, 100})
	e := newEngine(t, PolicyThreshold)

	rows, err := e.Label(series, Params{ShiftPeriods: 1, MoveValue: 2, Strategy: StrategyBuy})
	require.NoError(t, err)
	assert.Equal(t, SignalBuy, rows[1].Signal, ">= is inclusive for BUY")
}

func TestQuantilePolicyBuySell(t *testing.T) {
	// Doubling closes: every look-ahead return is exactly 1.0 in float64,
	// so every defined row sits on the active side of the quantile for
	// both sides.
	series := seriesFromCloses([]float64{100, 200, 400, 800})
	e := newEngine(t, PolicyQuantile)

	buy, err := e.Label(series, Params{ShiftPeriods: 1, MoveValue: 0.75, Strategy: StrategyBuy})
	require.NoError(t, err)
	require.Len(t, buy, 4)
	for i := 0; i < 3; i++ {
		assert.True(t, buy[i].Valid)
		assert.Equal(t, int64(1), buy[i].Binary, "ties at the quantile are active for buy")
	}
	assert.False(t, buy[3].Valid, "look-ahead window leaves the series")

	sell, err := e.Label(series, Params{ShiftPeriods: 1, MoveValue: 0.25, Strategy: StrategySell})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(1), sell[i].Binary, "ties at the quantile are active for sell")
	}
}

func TestQuantileActiveCountMonotonicity(t *testing.T) {
	closes := []float64{100, 104, 99, 108, 95, 112, 107, 118, 103, 125, 119, 131, 115, 140, 128}
	series := seriesFromCloses(closes)
	e := newEngine(t, PolicyQuantile)

	prev := math.MaxInt
	for _, move := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		rows, err := e.Label(series, Params{ShiftPeriods: 2, MoveValue: move, Strategy: StrategyBuy})
		require.NoError(t, err)

		active := 0
		for _, r := range rows {
			if r.Valid && r.Binary == 1 {
				active++
			}
		}
		assert.LessOrEqual(t, active, prev,
			"raising the quantile must never grow the active class")
		prev = active
	}
}

func TestQuantileDependsOnCloseOnly(t *testing.T) {
	closes := []float64{100, 105, 95, 110, 90, 120}
	a := seriesFromCloses(closes)
	b := seriesFromCloses(closes)
	for i := range b {
		// Perturb everything except close.
		b[i].Open = 999
		b[i].High = 999
		b[i].Low = 1
		b[i].Volume = 42
	}

	e := newEngine(t, PolicyQuantile)
	p := Params{ShiftPeriods: 1, MoveValue: 0.5, Strategy: StrategyBuy}

	rowsA, err := e.Label(a, p)
	require.NoError(t, err)
	rowsB, err := e.Label(b, p)
	require.NoError(t, err)

	for i := range rowsA {
		assert.Equal(t, rowsA[i].Binary, rowsB[i].Binary)
		assert.Equal(t, rowsA[i].Valid, rowsB[i].Valid)
	}
}

func TestQuantileRejectsBothStrategy(t *testing.T) {
	e := newEngine(t, PolicyQuantile)
	_, err := e.Label(seriesFromCloses([]float64{1, 2, 3}), Params{ShiftPeriods: 1, MoveValue: 0.5, Strategy: StrategyBoth})
	assert.Error(t, err)
}

func TestDataInsufficient(t *testing.T) {
	e := newEngine(t, PolicyThreshold)
	_, err := e.Label(seriesFromCloses([]float64{100, 101, 102}), Params{ShiftPeriods: 3, MoveValue: 1, Strategy: StrategyBuy})
	require.Error(t, err)

	var insufficient *DataInsufficientError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 3, insufficient.Rows)
	assert.Equal(t, 3, insufficient.ShiftPeriods)
}

func TestValidRange(t *testing.T) {
	q := newEngine(t, PolicyQuantile)
	from, to := q.ValidRange(10, 3)
	assert.Equal(t, 0, from)
	assert.Equal(t, 7, to)

	th := newEngine(t, PolicyThreshold)
	from, to = th.ValidRange(10, 3)
	assert.Equal(t, 3, from)
	assert.Equal(t, 10, to)
}

func TestTargetColumn(t *testing.T) {
	rows := []LabeledRow{
		{Valid: true, Binary: 1},
		{Valid: true, Binary: 0},
		{Valid: false},
	}
	col := TargetColumn(PolicyQuantile, rows)
	assert.Equal(t, dataset.KindInt, col.Kind())
	assert.Equal(t, int64(1), col.Value(0))
	assert.True(t, col.IsNull(2), "undefined targets become nulls, never a default class")

	rows = []LabeledRow{
		{Valid: false},
		{Valid: true, Signal: SignalHold},
		{Valid: true, Signal: SignalBuy},
	}
	col = TargetColumn(PolicyThreshold, rows)
	assert.Equal(t, dataset.KindString, col.Kind())
	assert.True(t, col.IsNull(0))
	assert.Equal(t, "BUY", col.Value(2))
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 1.0, quantile(sorted, 0), 1e-9)
	assert.InDelta(t, 4.0, quantile(sorted, 1), 1e-9)
	assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-9)
}
