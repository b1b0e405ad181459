package contracts

// PriceRow is one calendar day of a single ticker. The date is kept as a
// plain YYYY-MM-DD string end to end so it survives the warehouse round trip
// without timezone or locale drift.
type PriceRow struct {
	Date        string
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      int64
	Dividends   float64
	StockSplits float64
}

// PriceSeries is the ordered daily history for one ticker, ascending by
// date. Rows are unique per date.
type PriceSeries []PriceRow

// Closes returns the close column of the series.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, row := range s {
		closes[i] = row.Close
	}
	return closes
}

// IndicatorColumn is one derived feature column, aligned with the series it
// was computed from.
type IndicatorColumn struct {
	Name   string
	Values []float64
}
