package backtest

import (
	"errors"
	"math"
	"testing"

	"github.com/rustyeddy/smacross/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventsFor(t *testing.T, short, long int, closes, opens []float64) ([]strategies.Event, func() ([]Leg, error)) {
	t.Helper()

	s := newSeries(t, "TEST", opens, closes)
	strat, err := strategies.NewSMACross(short, long)
	require.NoError(t, err)
	events, err := strat.Signals(s)
	require.NoError(t, err)
	return events, func() ([]Leg, error) { return Settle(s, events) }
}

func TestSettle_HandComputedCrossover(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 10, 10, 12, 12, 8, 8}
	opens := []float64{9, 10, 11, 12, 13, 9, 7}

	events, settle := eventsFor(t, 1, 2, closes, opens)
	require.Len(t, events, 2)

	legs, err := settle()
	require.NoError(t, err)
	require.Len(t, legs, 1)

	// Entry on bar 3 fills at bar 4's open, exit on bar 4 at bar 5's open.
	assert.Equal(t, 13.0, legs[0].EntryPrice)
	assert.Equal(t, 9.0, legs[0].ExitPrice)
	assert.False(t, legs[0].MarkToMarket)
	assert.InDelta(t, 9.0/13.0-1, legs[0].Return(), 1e-12)
	assert.InDelta(t, 9.0/13.0, CumulativeGain(legs), 1e-12)
}

func TestSettle_MarkToMarketOpenPosition(t *testing.T) {
	t.Parallel()

	closes := ramp(30, 100, 1)
	opens := ramp(30, 99.5, 1)

	events, settle := eventsFor(t, 2, 5, closes, opens)
	require.Len(t, events, 1, "a steady trend opens exactly once")

	legs, err := settle()
	require.NoError(t, err)
	require.Len(t, legs, 1)

	leg := legs[0]
	assert.Equal(t, opens[5], leg.EntryPrice)
	assert.Equal(t, closes[29], leg.ExitPrice, "synthesized exit is priced at the final close")
	assert.True(t, leg.MarkToMarket)
	assert.Equal(t, testStart.AddDate(0, 0, 29), leg.ExitTime)
	assert.InDelta(t, closes[29]/opens[5], CumulativeGain(legs), 1e-12)
}

func TestSettle_MarkToMarketIgnoresTrailingNextOpen(t *testing.T) {
	t.Parallel()

	full := newSeries(t, "TEST", ramp(12, 50, 1), ramp(12, 10, 1))
	part := full.Slice(0, 8)
	require.True(t, part.At(7).HasNextOpen())

	strat, err := strategies.NewSMACross(1, 2)
	require.NoError(t, err)
	events, err := strat.Signals(part)
	require.NoError(t, err)
	require.Len(t, events, 1)

	legs, err := Settle(part, events)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, 17.0, legs[0].ExitPrice)
	assert.True(t, legs[0].MarkToMarket)
}

func TestSettle_SynthesisDoesNotTouchCallerEvents(t *testing.T) {
	t.Parallel()

	s := closesOnly(t, "TEST", ramp(10, 1, 1)...)
	strat, err := strategies.NewSMACross(1, 3)
	require.NoError(t, err)
	events, err := strat.Signals(s)
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Spare capacity must not receive the synthesized exit.
	withRoom := make([]strategies.Event, 1, 2)
	copy(withRoom, events)

	legs, err := Settle(s, withRoom)
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, strategies.Event{}, withRoom[:2][1])
}

func TestSettle_NoEvents(t *testing.T) {
	t.Parallel()

	s := closesOnly(t, "TEST", 1, 2, 3)
	legs, err := Settle(s, nil)
	require.NoError(t, err)
	assert.Empty(t, legs)
	assert.Equal(t, 1.0, CumulativeGain(legs))
}

func TestSettle_EntryOnLastBar(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 10, 10, 10, 20}
	events, settle := eventsFor(t, 1, 2, closes, closes)
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Index)

	legs, err := settle()
	require.Error(t, err)
	assert.Nil(t, legs)
	assert.True(t, errors.Is(err, ErrMissingExecutionPrice))
}

func TestSettle_ExitOnLastBar(t *testing.T) {
	t.Parallel()

	closes := []float64{10, 10, 20, 25, 10}
	opens := []float64{10, 10, 18, 22, 12}

	events, settle := eventsFor(t, 1, 2, closes, opens)
	require.Len(t, events, 2)
	assert.Equal(t, strategies.Exit, events[1].Side)
	assert.Equal(t, 4, events[1].Index)

	legs, err := settle()
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, 22.0, legs[0].EntryPrice)
	assert.Equal(t, 10.0, legs[0].ExitPrice)
	assert.True(t, legs[0].MarkToMarket)
}

func TestSettle_UndefinedCloseOnFinalExit(t *testing.T) {
	t.Parallel()

	s := closesOnly(t, "TEST", 1, 2, 3, 4)
	s.Bars[3].Close = math.NaN()

	events := []strategies.Event{{Index: 1, Time: s.At(1).Time, Side: strategies.Entry, Bar: s.At(1)}}
	_, err := Settle(s, events)
	assert.True(t, errors.Is(err, ErrMissingExecutionPrice))
}

func TestCumulativeGain_Product(t *testing.T) {
	t.Parallel()

	returns := []float64{0.10, -0.05, 0.20, -0.30}
	legs := make([]Leg, len(returns))
	want := 1.0
	for i, r := range returns {
		legs[i] = Leg{EntryPrice: 100, ExitPrice: 100 * (1 + r)}
		want *= 1 + r
	}
	assert.InDelta(t, want, CumulativeGain(legs), 1e-12)
}

func TestCumulativeGain_NoOpLegIsNeutral(t *testing.T) {
	t.Parallel()

	base := []Leg{
		{EntryPrice: 50, ExitPrice: 55},
		{EntryPrice: 40, ExitPrice: 38},
	}
	withNoOp := []Leg{
		base[0],
		{EntryPrice: 47.25, ExitPrice: 47.25},
		base[1],
	}
	assert.Equal(t, CumulativeGain(base), CumulativeGain(withNoOp))
}
