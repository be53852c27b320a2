package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/smacross/backtest"
	"github.com/rustyeddy/smacross/config"
)

var ErrRunNotFound = errors.New("run not found")

// RunRecord mirrors the runs table.
type RunRecord struct {
	RunID   string
	Created time.Time
	Dataset string

	Strategy      string
	ShortWindow   int
	LongWindow    int
	SplitFraction float64

	Instruments int
	Failures    int
}

// ResultRecord is one row of a run's result table.
type ResultRecord struct {
	RunID      string
	Instrument string

	TrainingGain      float64
	TrainingLegs      int
	TrainingBenchmark float64
	TestingGain       float64
	TestingLegs       int
	TestingBenchmark  float64

	TrainingStart time.Time
	TestingStart  time.Time
	TestingEnd    time.Time
}

// FailureRecord is one isolated instrument error.
type FailureRecord struct {
	RunID      string
	Instrument string
	Segment    string
	Error      string
}

type Journal interface {
	RecordReport(ctx context.Context, rep *backtest.Report) error
	Close() error
}

// New opens the journal selected by cfg. Type "none" (or empty) returns a
// journal that discards everything.
func New(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "csv":
		return NewCSV(cfg.ResultsFile)
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	}
	return nil, fmt.Errorf("journal: unknown type %q", cfg.Type)
}

// Nop discards reports.
type Nop struct{}

func (Nop) RecordReport(context.Context, *backtest.Report) error { return nil }
func (Nop) Close() error                                         { return nil }

// Records flattens rep into the rows every journal stores.
func Records(rep *backtest.Report) (RunRecord, []ResultRecord, []FailureRecord) {
	run := RunRecord{
		RunID:         rep.RunID,
		Created:       rep.Started,
		Dataset:       rep.Dataset,
		Strategy:      rep.Params.Strategy,
		ShortWindow:   rep.Params.ShortWindow,
		LongWindow:    rep.Params.LongWindow,
		SplitFraction: rep.Params.SplitFraction,
		Instruments:   len(rep.Results),
		Failures:      len(rep.Failures),
	}
	if run.Strategy == "" {
		run.Strategy = "sma-cross"
	}
	if run.Created.IsZero() {
		run.Created = time.Now().UTC()
	}

	results := make([]ResultRecord, 0, len(rep.Results))
	for _, r := range rep.Results {
		results = append(results, ResultRecord{
			RunID:             rep.RunID,
			Instrument:        r.Instrument,
			TrainingGain:      r.Training.Gain,
			TrainingLegs:      len(r.Training.Legs),
			TrainingBenchmark: r.Training.Benchmark,
			TestingGain:       r.Testing.Gain,
			TestingLegs:       len(r.Testing.Legs),
			TestingBenchmark:  r.Testing.Benchmark,
			TrainingStart:     r.Training.Start,
			TestingStart:      r.Testing.Start,
			TestingEnd:        r.Testing.End,
		})
	}

	failures := make([]FailureRecord, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		failures = append(failures, FailureRecord{
			RunID:      rep.RunID,
			Instrument: f.Instrument,
			Segment:    f.Segment,
			Error:      msg,
		})
	}
	return run, results, failures
}
