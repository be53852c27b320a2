package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// RankBy selects the column TopN sorts on.
type RankBy string

const (
	ByTraining RankBy = "training"
	ByTesting  RankBy = "testing"
)

// Report is the result table of one run: one row per instrument that
// evaluated cleanly plus the failures of the rest.
type Report struct {
	RunID   string
	Dataset string
	Params  Params

	Started  time.Time
	Finished time.Time

	Results  []Result
	Failures []Failure
}

// Result returns the row for instrument.
func (r *Report) Result(instrument string) (Result, bool) {
	for _, res := range r.Results {
		if res.Instrument == instrument {
			return res, true
		}
	}
	return Result{}, false
}

// TopN returns up to n results ordered by descending gain on the chosen
// segment, ties broken by instrument. n <= 0 returns every result.
func (r *Report) TopN(n int, by RankBy) []Result {
	out := make([]Result, len(r.Results))
	copy(out, r.Results)

	gain := func(res Result) float64 {
		if by == ByTesting {
			return res.Testing.Gain
		}
		return res.Training.Gain
	}
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := gain(out[i]), gain(out[j])
		if gi != gj {
			return gi > gj
		}
		return out[i].Instrument < out[j].Instrument
	})

	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Print writes the top n rows and every failure.
func (r *Report) Print(w io.Writer, n int, by RankBy) {
	fmt.Fprintln(w, "==================================================================")
	fmt.Fprintln(w, " SMA Cross Backtest")
	fmt.Fprintln(w, "==================================================================")
	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	}
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}
	if r.Params.Strategy != "" {
		fmt.Fprintf(w, "Strategy:      %s\n", r.Params.Strategy)
	}
	fmt.Fprintf(w, "Windows:       %d/%d\n", r.Params.ShortWindow, r.Params.LongWindow)
	fmt.Fprintf(w, "Split:         %.2f\n", r.Params.SplitFraction)
	fmt.Fprintf(w, "Instruments:   %d ok, %d failed\n", len(r.Results), len(r.Failures))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %14s %6s %14s %6s %12s\n",
		"symbol", "training_gain", "legs", "testing_gain", "legs", "hold_test")
	fmt.Fprintln(w, "------------------------------------------------------------------")
	for _, res := range r.TopN(n, by) {
		fmt.Fprintf(w, "%-10s %14.4f %6d %14.4f %6d %12.4f\n",
			res.Instrument,
			res.Training.Gain, len(res.Training.Legs),
			res.Testing.Gain, len(res.Testing.Legs),
			res.Testing.Benchmark,
		)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures")
		fmt.Fprintln(w, "------------------------------------------------------------------")
		for _, f := range r.Failures {
			fmt.Fprintf(w, "- %s\n", f.Error())
		}
	}
	fmt.Fprintln(w)
}
