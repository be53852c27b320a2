package market

import (
	"fmt"
	"math"
)

// BuildSeries extracts one instrument from a wide table and fills NextOpen
// with the following bar's Open. Rows where the instrument has no prices at
// all are dropped first, so NextOpen always refers to a real trading day.
// The table is not modified.
func BuildSeries(t *Table, symbol string) (*Series, error) {
	if t == nil || !t.Has(symbol) {
		return nil, fmt.Errorf("market: %q: %w", symbol, ErrMissingInstrument)
	}

	cols := make(map[Field][]float64, len(Fields))
	for _, f := range Fields {
		if v, ok := t.Column(f, symbol); ok {
			cols[f] = v
		}
	}
	value := func(f Field, i int) float64 {
		if v, ok := cols[f]; ok {
			return v[i]
		}
		return math.NaN()
	}

	bars := make([]Bar, 0, t.Len())
	for i, ts := range t.Index() {
		b := Bar{
			Time:   ts,
			Open:   value(Open, i),
			High:   value(High, i),
			Low:    value(Low, i),
			Close:  value(Close, i),
			Volume: value(Volume, i),
		}
		if b.empty() {
			continue
		}
		bars = append(bars, b)
	}

	for i := range bars {
		if i+1 < len(bars) {
			bars[i].NextOpen = bars[i+1].Open
		} else {
			bars[i].NextOpen = math.NaN()
		}
	}

	return NewSeries(symbol, bars)
}
