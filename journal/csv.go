package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rustyeddy/smacross/backtest"
)

// CSVJournal appends result rows of every recorded run to one file.
type CSVJournal struct {
	results *csv.Writer
	rf      *os.File
}

var resultsHeader = []string{
	"run_id", "symbol",
	"training_gain", "training_legs", "training_benchmark",
	"testing_gain", "testing_legs", "testing_benchmark",
}

// NewCSV opens resultsPath for appending, writing the header only when the
// file is new or empty.
func NewCSV(resultsPath string) (*CSVJournal, error) {
	rf, err := os.OpenFile(resultsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	info, err := rf.Stat()
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	rw := csv.NewWriter(rf)
	if info.Size() == 0 {
		if err := rw.Write(resultsHeader); err != nil {
			_ = rf.Close()
			return nil, err
		}
		rw.Flush()
		if err := rw.Error(); err != nil {
			_ = rf.Close()
			return nil, err
		}
	}

	return &CSVJournal{results: rw, rf: rf}, nil
}

func (j *CSVJournal) RecordReport(_ context.Context, rep *backtest.Report) error {
	_, results, _ := Records(rep)
	for _, r := range results {
		err := j.results.Write([]string{
			r.RunID,
			r.Instrument,
			f(r.TrainingGain),
			strconv.Itoa(r.TrainingLegs),
			f(r.TrainingBenchmark),
			f(r.TestingGain),
			strconv.Itoa(r.TestingLegs),
			f(r.TestingBenchmark),
		})
		if err != nil {
			return err
		}
	}

	j.results.Flush()
	return j.results.Error()
}

func (j *CSVJournal) Close() error {
	j.results.Flush()
	if err := j.results.Error(); err != nil {
		return err
	}
	return j.rf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
