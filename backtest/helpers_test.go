package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/smacross/market"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

// newSeries builds a series with the given opens and closes and fills
// NextOpen the way the series builder does.
func newSeries(t *testing.T, symbol string, opens, closes []float64) *market.Series {
	t.Helper()
	require.Equal(t, len(opens), len(closes))

	bars := make([]market.Bar, len(closes))
	for i := range closes {
		bars[i] = market.Bar{
			Time:  testStart.AddDate(0, 0, i),
			Open:  opens[i],
			High:  math.Max(opens[i], closes[i]),
			Low:   math.Min(opens[i], closes[i]),
			Close: closes[i],
		}
	}
	for i := range bars {
		if i+1 < len(bars) {
			bars[i].NextOpen = bars[i+1].Open
		} else {
			bars[i].NextOpen = math.NaN()
		}
	}

	s, err := market.NewSeries(symbol, bars)
	require.NoError(t, err)
	return s
}

// closesOnly uses each close as that bar's open too.
func closesOnly(t *testing.T, symbol string, closes ...float64) *market.Series {
	t.Helper()
	return newSeries(t, symbol, closes, closes)
}

func newTable(t *testing.T, closes map[string][]float64) *market.Table {
	t.Helper()

	b := market.NewTableBuilder()
	for sym, cs := range closes {
		for i, c := range cs {
			require.NoError(t, b.Add(sym, market.Bar{
				Time: testStart.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c,
			}))
		}
	}
	tb, err := b.Build()
	require.NoError(t, err)
	return tb
}

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}
