package backtest

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/smacross/config"
	"github.com/rustyeddy/smacross/indicators"
	"github.com/rustyeddy/smacross/market"
	"github.com/rustyeddy/smacross/strategies"
)

const (
	Training = "training"
	Testing  = "testing"
)

// Params configures one evaluation run.
type Params struct {
	// Strategy names the rule to run; empty means the SMA cross.
	Strategy string

	ShortWindow   int
	LongWindow    int
	SplitFraction float64

	// Workers bounds how many instruments are evaluated at once.
	// Zero means GOMAXPROCS.
	Workers int
}

func (p Params) Validate() error {
	if err := indicators.ValidateWindows(p.ShortWindow, p.LongWindow); err != nil {
		return fmt.Errorf("backtest: %v: %w", err, config.ErrInvalidConfiguration)
	}
	if err := validateFraction(p.SplitFraction); err != nil {
		return err
	}
	if p.Workers < 0 {
		return fmt.Errorf("backtest: workers must not be negative: %w", config.ErrInvalidConfiguration)
	}
	return nil
}

func validateFraction(f float64) error {
	if math.IsNaN(f) || f <= 0 || f >= 1 {
		return fmt.Errorf("backtest: split fraction must be in (0,1), got %v: %w", f, config.ErrInvalidConfiguration)
	}
	return nil
}

// SegmentResult is the outcome of the rule on one partition of a series.
type SegmentResult struct {
	Segment string
	Bars    int
	Start   time.Time
	End     time.Time

	Gain float64
	Legs []Leg

	// Benchmark is the buy-and-hold gain over the same bars.
	Benchmark float64
}

// Result holds both partitions for one instrument.
type Result struct {
	Instrument string
	Training   SegmentResult
	Testing    SegmentResult
}

// Failure isolates an error to one instrument, and to a segment when the
// series could be built.
type Failure struct {
	Instrument string
	Segment    string
	Err        error
}

func (f *Failure) Error() string {
	if f.Segment == "" {
		return fmt.Sprintf("%s: %v", f.Instrument, f.Err)
	}
	return fmt.Sprintf("%s (%s): %v", f.Instrument, f.Segment, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Evaluator runs a strategy over in-sample and out-of-sample partitions of
// a series.
type Evaluator struct {
	Params Params
	Log    *zap.Logger

	strat strategies.Strategy
}

// NewEvaluator validates params up front; a nil log discards output.
func NewEvaluator(p Params, log *zap.Logger) (*Evaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategies.ByName(p.Strategy, p.ShortWindow, p.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("backtest: %v: %w", err, config.ErrInvalidConfiguration)
	}
	p.Strategy = strat.Name()
	if log == nil {
		log = zap.NewNop()
	}
	if p.Workers == 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return &Evaluator{Params: p, Log: log, strat: strat}, nil
}

// Split partitions s by position: train is [0, floor(n*f)), test the rest.
func Split(s *market.Series, f float64) (train, test *market.Series, err error) {
	if err := validateFraction(f); err != nil {
		return nil, nil, err
	}
	k := int(math.Floor(float64(s.Len()) * f))
	return s.Slice(0, k), s.Slice(k, s.Len()), nil
}

// EvaluateSymbol builds symbol's series from t and evaluates it.
func (e *Evaluator) EvaluateSymbol(t *market.Table, symbol string) (Result, error) {
	s, err := market.BuildSeries(t, symbol)
	if err != nil {
		return Result{}, &Failure{Instrument: symbol, Err: err}
	}
	return e.EvaluateSeries(s)
}

// EvaluateSeries splits s and runs indicators, signals and settlement on each
// partition independently.
func (e *Evaluator) EvaluateSeries(s *market.Series) (Result, error) {
	train, test, err := Split(s, e.Params.SplitFraction)
	if err != nil {
		return Result{}, &Failure{Instrument: s.Instrument, Err: err}
	}

	res := Result{Instrument: s.Instrument}
	if res.Training, err = e.evaluateSegment(Training, train); err != nil {
		return Result{}, &Failure{Instrument: s.Instrument, Segment: Training, Err: err}
	}
	if res.Testing, err = e.evaluateSegment(Testing, test); err != nil {
		return Result{}, &Failure{Instrument: s.Instrument, Segment: Testing, Err: err}
	}

	e.Log.Debug("evaluated",
		zap.String("instrument", s.Instrument),
		zap.Int("bars", s.Len()),
		zap.Float64("training_gain", res.Training.Gain),
		zap.Int("training_legs", len(res.Training.Legs)),
		zap.Float64("testing_gain", res.Testing.Gain),
		zap.Int("testing_legs", len(res.Testing.Legs)),
	)
	return res, nil
}

func (e *Evaluator) evaluateSegment(name string, s *market.Series) (SegmentResult, error) {
	sr := SegmentResult{
		Segment:   name,
		Bars:      s.Len(),
		Start:     s.Start(),
		End:       s.End(),
		Gain:      1,
		Benchmark: BuyAndHold(s),
	}

	// Not enough bars for the long average: no signal can fire.
	if s.Len() < e.Params.LongWindow {
		return sr, nil
	}

	events, err := e.strat.Signals(s)
	if err != nil {
		return sr, err
	}
	legs, err := Settle(s, events)
	if err != nil {
		return sr, err
	}
	sr.Legs = legs
	sr.Gain = CumulativeGain(legs)
	return sr, nil
}

// BuyAndHold returns last close over first close, ignoring undefined closes.
// Fewer than two closes is a gain of 1.
func BuyAndHold(s *market.Series) float64 {
	first, last := -1, -1
	for i, b := range s.Bars {
		if math.IsNaN(b.Close) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last || s.Bars[first].Close == 0 {
		return 1
	}
	return s.Bars[last].Close / s.Bars[first].Close
}
