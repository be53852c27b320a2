package market

import (
	"math"
	"time"
)

// Field names one column of a price table.
type Field string

const (
	Open   Field = "Open"
	High   Field = "High"
	Low    Field = "Low"
	Close  Field = "Close"
	Volume Field = "Volume"
)

// Fields lists every column a Table may carry, in display order.
var Fields = []Field{Open, High, Low, Close, Volume}

// Bar is one daily OHLC step of a single instrument.
//
// NextOpen is the Open of the following bar and is the price signals on this
// bar execute at. It is NaN on the last bar of a series.
type Bar struct {
	Time time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64

	NextOpen float64
}

// HasNextOpen reports whether a following bar supplied an execution price.
func (b Bar) HasNextOpen() bool {
	return !math.IsNaN(b.NextOpen) && !math.IsInf(b.NextOpen, 0)
}

// empty reports a row with no price information at all, as produced for a
// symbol before it was listed or after it was delisted.
func (b Bar) empty() bool {
	return math.IsNaN(b.Open) && math.IsNaN(b.High) && math.IsNaN(b.Low) && math.IsNaN(b.Close)
}

func (b Bar) get(f Field) float64 {
	switch f {
	case Open:
		return b.Open
	case High:
		return b.High
	case Low:
		return b.Low
	case Close:
		return b.Close
	case Volume:
		return b.Volume
	}
	return math.NaN()
}
