package indicators

import (
	"fmt"
	"math"

	"github.com/alext/moneyrobot/internal/contracts"
	"github.com/alext/moneyrobot/pkg/logger"
)

// Default periods for the derived feature set.
const (
	smaPeriod        = 20
	emaFastPeriod    = 12
	emaSlowPeriod    = 26
	macdSignalPeriod = 9
	rsiPeriod        = 14
	atrPeriod        = 14
	rocPeriod        = 10
	volPeriod        = 20
)

// columnNames is the fixed output column set, in order. Downstream schema
// inference and table layouts depend on this set being stable.
var columnNames = []string{
	"SMA_20",
	"EMA_12",
	"EMA_26",
	"MACD",
	"MACD_SIGNAL",
	"RSI_14",
	"ATR_14",
	"ROC_10",
	"OBV",
	"VOLATILITY_20",
}

// Calculator derives technical-indicator feature columns from a price
// series. Rows inside an indicator's warm-up window get a neutral seed value
// rather than being dropped, so every output column aligns with the series.
type Calculator struct {
	logger *logger.Logger
}

// NewCalculator creates an indicator calculator.
func NewCalculator(log *logger.Logger) *Calculator {
	return &Calculator{logger: log.WithField("module", "indicators")}
}

// Columns returns the fixed output column set.
func (c *Calculator) Columns() []string {
	return append([]string(nil), columnNames...)
}

// Enrich computes the full indicator set for the series.
func (c *Calculator) Enrich(series contracts.PriceSeries) ([]contracts.IndicatorColumn, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("cannot enrich an empty series")
	}

	closes := series.Closes()

	emaFast := ema(closes, emaFastPeriod)
	emaSlow := ema(closes, emaSlowPeriod)

	macd := make([]float64, len(closes))
	for i := range macd {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	macdSignal := ema(macd, macdSignalPeriod)

	cols := []contracts.IndicatorColumn{
		{Name: "SMA_20", Values: sma(closes, smaPeriod)},
		{Name: "EMA_12", Values: emaFast},
		{Name: "EMA_26", Values: emaSlow},
		{Name: "MACD", Values: macd},
		{Name: "MACD_SIGNAL", Values: macdSignal},
		{Name: "RSI_14", Values: rsi(closes, rsiPeriod)},
		{Name: "ATR_14", Values: atr(series, atrPeriod)},
		{Name: "ROC_10", Values: roc(closes, rocPeriod)},
		{Name: "OBV", Values: obv(series)},
		{Name: "VOLATILITY_20", Values: rollingStd(closes, volPeriod)},
	}

	c.logger.WithFields(map[string]interface{}{
		"rows":    len(series),
		"columns": len(cols),
	}).Debug("Computed indicator columns")

	return cols, nil
}

// sma computes the simple moving average. Warm-up rows average whatever
// window is available so far.
func sma(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
			out[i] = sum / float64(period)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// ema computes the exponential moving average, seeded with the first value.
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*multiplier + out[i-1]*(1-multiplier)
	}
	return out
}

// rsi computes the Relative Strength Index with Wilder smoothing. Warm-up
// rows hold the neutral value 50.
func rsi(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := 0; i <= period && i < len(values); i++ {
		out[i] = 50
	}
	if len(values) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		out[period] = 100
	} else {
		out[period] = 100 - 100/(1+avgGain/avgLoss)
	}

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}

	return out
}

// atr computes the Average True Range with Wilder smoothing. Row 0 uses the
// high-low range as its true range.
func atr(series contracts.PriceSeries, period int) []float64 {
	out := make([]float64, len(series))

	tr := make([]float64, len(series))
	tr[0] = series[0].High - series[0].Low
	for i := 1; i < len(series); i++ {
		hl := series[i].High - series[i].Low
		hc := math.Abs(series[i].High - series[i-1].Close)
		lc := math.Abs(series[i].Low - series[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i, v := range tr {
		if i < period {
			sum += v
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = (out[i-1]*float64(period-1) + v) / float64(period)
	}
	return out
}

// roc computes the percent rate of change over the period. Warm-up rows are
// zero.
func roc(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := period; i < len(values); i++ {
		if values[i-period] == 0 {
			continue
		}
		out[i] = (values[i] - values[i-period]) / values[i-period] * 100
	}
	return out
}

// obv computes On-Balance Volume.
func obv(series contracts.PriceSeries) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		switch {
		case series[i].Close > series[i-1].Close:
			out[i] = out[i-1] + float64(series[i].Volume)
		case series[i].Close < series[i-1].Close:
			out[i] = out[i-1] - float64(series[i].Volume)
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// rollingStd computes the rolling population standard deviation of the
// window ending at each row. Warm-up rows use the window available so far.
func rollingStd(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		window := values[start : i+1]

		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(len(window))

		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(window))

		out[i] = math.Sqrt(variance)
	}
	return out
}
