package labeling

import (
	"fmt"
	"math"
	"sort"

	"github.com/alext/moneyrobot/internal/contracts"
	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/logger"
)

// Policy selects how the supervised target is computed. The two policies are
// not interchangeable: they differ in shift direction, in the unit of
// MoveValue, and in the classes they emit. A deployment picks exactly one.
type Policy string

const (
	// PolicyQuantile labels on the forward-looking fractional return
	// (close[i+shift]-close[i])/close[i] against the MoveValue quantile of
	// all such returns. MoveValue is a quantile fraction in [0, 1]. Emits
	// two classes (1/0); there is no HOLD band.
	PolicyQuantile Policy = "quantile"

	// PolicyThreshold labels on the backward-looking percent move
	// (close[i]-close[i-shift])/close[i]*100 against a fixed percent
	// threshold. MoveValue is a percentage. Emits BUY/SELL/HOLD.
	PolicyThreshold Policy = "threshold"
)

// Strategy is the trading signal the target encodes.
type Strategy string

const (
	StrategyBuy  Strategy = "buy"
	StrategySell Strategy = "sell"
	StrategyBoth Strategy = "both"
)

// Signal is a three-class threshold-policy label.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Params are the label parameters for one sweep combination.
type Params struct {
	ShiftPeriods int
	MoveValue    float64
	Strategy     Strategy
}

// LabeledRow is a price row plus its computed target. Rows whose shift
// window falls outside the series get Valid=false and must never be given a
// default class.
type LabeledRow struct {
	contracts.PriceRow

	Valid  bool
	Binary int64  // quantile policy: 1 = active class
	Signal Signal // threshold policy
}

// DataInsufficientError reports a series too short for the requested shift.
// The sweep skips the combination; it does not abort the run.
type DataInsufficientError struct {
	Rows         int
	ShiftPeriods int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("series has %d rows, need at least %d for shift_periods=%d",
		e.Rows, e.ShiftPeriods+1, e.ShiftPeriods)
}

// Engine computes target labels under a fixed policy. The policy comes from
// configuration at construction, never from the per-combination strategy.
type Engine struct {
	policy Policy
	logger *logger.Logger
}

// NewEngine creates a label engine for the given policy.
func NewEngine(policy Policy, log *logger.Logger) (*Engine, error) {
	if policy != PolicyQuantile && policy != PolicyThreshold {
		return nil, fmt.Errorf("unknown label policy %q", policy)
	}
	return &Engine{policy: policy, logger: log.WithField("module", "labeling")}, nil
}

// Policy returns the configured policy.
func (e *Engine) Policy() Policy { return e.policy }

// TargetKind returns the dataset kind of the TARGET column this engine
// produces: integer 0/1 under the quantile policy, BUY/SELL/HOLD strings
// under the threshold policy.
func (e *Engine) TargetKind() dataset.Kind {
	if e.policy == PolicyQuantile {
		return dataset.KindInt
	}
	return dataset.KindString
}

// ValidRange returns the half-open row range [from, to) with a defined
// target for a series of n rows. The quantile policy looks ahead, so the
// last shift rows are undefined; the threshold policy looks back, so the
// first shift rows are.
func (e *Engine) ValidRange(n, shiftPeriods int) (int, int) {
	if e.policy == PolicyQuantile {
		return 0, n - shiftPeriods
	}
	return shiftPeriods, n
}

// Label computes the target for every row of the series. Intermediate
// return values are never materialized into the output.
func (e *Engine) Label(series contracts.PriceSeries, p Params) ([]LabeledRow, error) {
	if p.ShiftPeriods <= 0 {
		return nil, fmt.Errorf("shift_periods must be positive, got %d", p.ShiftPeriods)
	}
	if len(series) < p.ShiftPeriods+1 {
		return nil, &DataInsufficientError{Rows: len(series), ShiftPeriods: p.ShiftPeriods}
	}

	switch e.policy {
	case PolicyQuantile:
		return e.labelQuantile(series, p)
	case PolicyThreshold:
		return e.labelThreshold(series, p)
	default:
		return nil, fmt.Errorf("unknown label policy %q", e.policy)
	}
}

// labelQuantile implements the forward-looking quantile policy. The
// quantile is computed over every defined look-ahead return, including rows
// that are later excluded from the training table.
func (e *Engine) labelQuantile(series contracts.PriceSeries, p Params) ([]LabeledRow, error) {
	if p.MoveValue < 0 || p.MoveValue > 1 {
		return nil, fmt.Errorf("quantile policy needs move_value in [0, 1], got %v", p.MoveValue)
	}
	if p.Strategy != StrategyBuy && p.Strategy != StrategySell {
		return nil, fmt.Errorf("quantile policy supports buy or sell strategies, got %q", p.Strategy)
	}

	shift := p.ShiftPeriods
	defined := len(series) - shift

	diffs := make([]float64, defined)
	for i := 0; i < defined; i++ {
		diffs[i] = (series[i+shift].Close - series[i].Close) / series[i].Close
	}

	sorted := append([]float64(nil), diffs...)
	sort.Float64s(sorted)
	q := quantile(sorted, p.MoveValue)

	e.logger.WithFields(map[string]interface{}{
		"strategy":      p.Strategy,
		"shift_periods": shift,
		"move_value":    p.MoveValue,
		"threshold":     q,
	}).Debug("Computed quantile threshold")

	rows := make([]LabeledRow, len(series))
	for i, pr := range series {
		rows[i] = LabeledRow{PriceRow: pr}
		if i >= defined {
			continue
		}
		rows[i].Valid = true
		// Ties sit on the active side: >= for buy, <= for sell.
		switch p.Strategy {
		case StrategyBuy:
			if diffs[i] >= q {
				rows[i].Binary = 1
			}
		case StrategySell:
			if diffs[i] <= q {
				rows[i].Binary = 1
			}
		}
	}

	return rows, nil
}

// labelThreshold implements the backward-looking fixed-percent policy. The
// label reflects a realized move ending at row i, not a look-ahead move.
func (e *Engine) labelThreshold(series contracts.PriceSeries, p Params) ([]LabeledRow, error) {
	if p.MoveValue <= 0 {
		return nil, fmt.Errorf("threshold policy needs a positive percent move_value, got %v", p.MoveValue)
	}
	switch p.Strategy {
	case StrategyBuy, StrategySell, StrategyBoth:
	default:
		return nil, fmt.Errorf("unknown strategy %q", p.Strategy)
	}

	shift := p.ShiftPeriods
	rows := make([]LabeledRow, len(series))
	for i, pr := range series {
		rows[i] = LabeledRow{PriceRow: pr}
		if i < shift {
			continue
		}
		rows[i].Valid = true

		pct := (pr.Close - series[i-shift].Close) / pr.Close * 100

		signal := SignalHold
		switch {
		case pct >= p.MoveValue:
			signal = SignalBuy
		case pct <= -p.MoveValue:
			signal = SignalSell
		}

		// Single-sided strategies fold the non-selected class into HOLD.
		if p.Strategy == StrategyBuy && signal == SignalSell {
			signal = SignalHold
		}
		if p.Strategy == StrategySell && signal == SignalBuy {
			signal = SignalHold
		}
		rows[i].Signal = signal
	}

	return rows, nil
}

// TargetColumn builds the TARGET column for labeled rows under the given
// policy. Invalid rows become nulls, never a default class.
func TargetColumn(policy Policy, rows []LabeledRow) *dataset.Column {
	if policy == PolicyQuantile {
		values := make([]int64, len(rows))
		for i, r := range rows {
			values[i] = r.Binary
		}
		col := dataset.IntColumn("TARGET", values)
		for i, r := range rows {
			if !r.Valid {
				col.SetNull(i)
			}
		}
		return col
	}

	values := make([]string, len(rows))
	for i, r := range rows {
		values[i] = string(r.Signal)
	}
	col := dataset.StringColumn("TARGET", values)
	for i, r := range rows {
		if !r.Valid {
			col.SetNull(i)
		}
	}
	return col
}

// quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
