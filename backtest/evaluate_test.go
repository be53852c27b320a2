package backtest

import (
	"errors"
	"math"
	"testing"

	"github.com/rustyeddy/smacross/config"
	"github.com/rustyeddy/smacross/market"
	"github.com/rustyeddy/smacross/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{name: "defaults", params: Params{ShortWindow: 50, LongWindow: 100, SplitFraction: 0.6}},
		{name: "zero short", params: Params{ShortWindow: 0, LongWindow: 100, SplitFraction: 0.6}, wantErr: true},
		{name: "short equals long", params: Params{ShortWindow: 100, LongWindow: 100, SplitFraction: 0.6}, wantErr: true},
		{name: "short above long", params: Params{ShortWindow: 120, LongWindow: 100, SplitFraction: 0.6}, wantErr: true},
		{name: "split zero", params: Params{ShortWindow: 5, LongWindow: 10, SplitFraction: 0}, wantErr: true},
		{name: "split one", params: Params{ShortWindow: 5, LongWindow: 10, SplitFraction: 1}, wantErr: true},
		{name: "split NaN", params: Params{ShortWindow: 5, LongWindow: 10, SplitFraction: math.NaN()}, wantErr: true},
		{name: "negative workers", params: Params{ShortWindow: 5, LongWindow: 10, SplitFraction: 0.5, Workers: -1}, wantErr: true},
		{name: "noop strategy", params: Params{Strategy: "noop", ShortWindow: 5, LongWindow: 10, SplitFraction: 0.5}},
		{name: "unknown strategy", params: Params{Strategy: "ema-cross", ShortWindow: 5, LongWindow: 10, SplitFraction: 0.5}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := NewEvaluator(tt.params, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, e.Log)
			assert.Greater(t, e.Params.Workers, 0)
			assert.NotEmpty(t, e.Params.Strategy)
		})
	}
}

func TestSplit_Partitions(t *testing.T) {
	t.Parallel()

	s := closesOnly(t, "TEST", ramp(100, 1, 1)...)
	train, test, err := Split(s, 0.6)
	require.NoError(t, err)

	require.Equal(t, 60, train.Len())
	require.Equal(t, 40, test.Len())
	assert.Equal(t, s.At(0).Time, train.Start())
	assert.Equal(t, s.At(59).Time, train.End())
	assert.Equal(t, s.At(60).Time, test.Start())
	assert.Equal(t, s.At(99).Time, test.End())
	assert.True(t, train.End().Before(test.Start()))

	_, _, err = Split(s, 1.5)
	assert.True(t, errors.Is(err, config.ErrInvalidConfiguration))
}

func TestSplit_FloorsTheBoundary(t *testing.T) {
	t.Parallel()

	s := closesOnly(t, "TEST", ramp(7, 1, 1)...)
	train, test, err := Split(s, 0.6)
	require.NoError(t, err)
	assert.Equal(t, 4, train.Len())
	assert.Equal(t, 3, test.Len())
}

func TestEvaluate_CrossoverAtSplitIsNotShared(t *testing.T) {
	t.Parallel()

	closes := append(repeat(60, 10), repeat(40, 20)...)
	s := closesOnly(t, "TEST", closes...)

	// Over the full series the jump at bar 60 is a crossover.
	strat, err := strategies.NewSMACross(1, 2)
	require.NoError(t, err)
	full, err := strat.Signals(s)
	require.NoError(t, err)
	require.NotEmpty(t, full)
	assert.Equal(t, 60, full[0].Index)

	e, err := NewEvaluator(Params{ShortWindow: 1, LongWindow: 2, SplitFraction: 0.6}, nil)
	require.NoError(t, err)
	res, err := e.EvaluateSeries(s)
	require.NoError(t, err)

	assert.Equal(t, 60, res.Training.Bars)
	assert.Equal(t, 40, res.Testing.Bars)
	assert.Empty(t, res.Training.Legs)
	assert.Empty(t, res.Testing.Legs, "testing recomputes averages from its own first bar")
	assert.Equal(t, 1.0, res.Training.Gain)
	assert.Equal(t, 1.0, res.Testing.Gain)
}

func TestEvaluate_NoCrossoverIsBreakeven(t *testing.T) {
	t.Parallel()

	e, err := NewEvaluator(Params{ShortWindow: 5, LongWindow: 10, SplitFraction: 0.5}, nil)
	require.NoError(t, err)

	// One bar beyond the long window, falling the whole way.
	s := closesOnly(t, "TEST", ramp(11, 100, -1)...)
	sr, err := e.evaluateSegment(Testing, s)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sr.Gain)
	assert.Empty(t, sr.Legs)
	assert.Equal(t, 11, sr.Bars)
}

func TestEvaluate_SegmentShorterThanLongWindow(t *testing.T) {
	t.Parallel()

	e, err := NewEvaluator(Params{ShortWindow: 50, LongWindow: 100, SplitFraction: 0.6}, nil)
	require.NoError(t, err)

	res, err := e.EvaluateSeries(closesOnly(t, "TEST", ramp(120, 1, 1)...))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Training.Gain)
	assert.Equal(t, 1.0, res.Testing.Gain)
	assert.Empty(t, res.Training.Legs)
	assert.Empty(t, res.Testing.Legs)
	assert.InDelta(t, 72.0, res.Training.Benchmark, 1e-12)
}

func TestEvaluate_Gains(t *testing.T) {
	t.Parallel()

	cycle := []float64{10, 11, 12, 11, 10, 11, 12, 11, 10, 9}
	s := closesOnly(t, "AAA", append(append([]float64{}, cycle...), cycle...)...)

	e, err := NewEvaluator(Params{ShortWindow: 1, LongWindow: 2, SplitFraction: 0.5}, nil)
	require.NoError(t, err)
	res, err := e.EvaluateSeries(s)
	require.NoError(t, err)

	// Two legs per segment, each bought at 12 and sold at 10.
	for _, sr := range []SegmentResult{res.Training, res.Testing} {
		require.Len(t, sr.Legs, 2)
		for _, l := range sr.Legs {
			assert.Equal(t, 12.0, l.EntryPrice)
			assert.Equal(t, 10.0, l.ExitPrice)
		}
		assert.InDelta(t, 25.0/36.0, sr.Gain, 1e-12)
		assert.InDelta(t, 0.9, sr.Benchmark, 1e-12)
	}
	assert.Equal(t, Training, res.Training.Segment)
	assert.Equal(t, Testing, res.Testing.Segment)
}

func TestEvaluate_OpenPositionClosesAtSegmentClose(t *testing.T) {
	t.Parallel()

	closes := ramp(20, 100, 1)
	opens := ramp(20, 500, 1)
	s := newSeries(t, "TEST", opens, closes)

	e, err := NewEvaluator(Params{ShortWindow: 1, LongWindow: 2, SplitFraction: 0.5}, nil)
	require.NoError(t, err)
	res, err := e.EvaluateSeries(s)
	require.NoError(t, err)

	// The training partition ends long; its last bar still knows the first
	// testing open, which must not be used.
	require.Len(t, res.Training.Legs, 1)
	leg := res.Training.Legs[0]
	assert.Equal(t, opens[2], leg.EntryPrice)
	assert.Equal(t, closes[9], leg.ExitPrice)
	assert.True(t, leg.MarkToMarket)
	assert.Equal(t, s.At(9).Time, leg.ExitTime)
	assert.InDelta(t, closes[9]/opens[2], res.Training.Gain, 1e-12)

	require.Len(t, res.Testing.Legs, 1)
	assert.Equal(t, opens[12], res.Testing.Legs[0].EntryPrice)
	assert.Equal(t, closes[19], res.Testing.Legs[0].ExitPrice)
	assert.True(t, res.Testing.Legs[0].MarkToMarket)
}

func TestEvaluate_NoopBaseline(t *testing.T) {
	t.Parallel()

	cycle := []float64{10, 11, 12, 11, 10, 11, 12, 11, 10, 9}
	s := closesOnly(t, "AAA", append(append([]float64{}, cycle...), cycle...)...)

	e, err := NewEvaluator(Params{Strategy: "noop", ShortWindow: 1, LongWindow: 2, SplitFraction: 0.5}, nil)
	require.NoError(t, err)
	res, err := e.EvaluateSeries(s)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Training.Gain)
	assert.Equal(t, 1.0, res.Testing.Gain)
	assert.InDelta(t, 0.9, res.Testing.Benchmark, 1e-12)
}

func TestEvaluate_MissingExecutionPriceIsIsolated(t *testing.T) {
	t.Parallel()

	s := closesOnly(t, "BBB", append(repeat(9, 10), 20)...)
	e, err := NewEvaluator(Params{ShortWindow: 1, LongWindow: 2, SplitFraction: 0.5}, nil)
	require.NoError(t, err)

	_, err = e.EvaluateSeries(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExecutionPrice))

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "BBB", f.Instrument)
	assert.Equal(t, Testing, f.Segment)
	assert.Contains(t, f.Error(), "BBB (testing)")
}

func TestEvaluateSymbol_MissingInstrument(t *testing.T) {
	t.Parallel()

	tb := newTable(t, map[string][]float64{"AAA": ramp(10, 1, 1)})
	e, err := NewEvaluator(Params{ShortWindow: 1, LongWindow: 2, SplitFraction: 0.5}, nil)
	require.NoError(t, err)

	_, err = e.EvaluateSymbol(tb, "ZZZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, market.ErrMissingInstrument))

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "", f.Segment)
}

func TestBuyAndHold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, BuyAndHold(closesOnly(t, "X")))
	assert.Equal(t, 1.0, BuyAndHold(closesOnly(t, "X", 5)))
	assert.InDelta(t, 1.5, BuyAndHold(closesOnly(t, "X", 10, 12, 15)), 1e-12)

	s := closesOnly(t, "X", 10, 12, 15)
	s.Bars[2].Close = math.NaN()
	assert.InDelta(t, 1.2, BuyAndHold(s), 1e-12)
}
