package backtest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/smacross/market"
)

// Run evaluates every symbol against t. Instruments are independent, so
// they are fanned out over Params.Workers goroutines; each worker only writes
// its own result slot.
//
// A failing instrument is recorded in Report.Failures and does not stop the
// others. Only context cancellation aborts the run. An empty symbols list
// means every symbol in t.
func (e *Evaluator) Run(ctx context.Context, t *market.Table, symbols []string) (*Report, error) {
	if t == nil {
		return nil, errors.New("backtest: price table is required")
	}
	if len(symbols) == 0 {
		symbols = t.Symbols()
	}

	rep := &Report{
		Params:  e.Params,
		Started: time.Now().UTC(),
	}

	results := make([]*Result, len(symbols))
	failures := make([]*Failure, len(symbols))

	workers := e.Params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sym := range symbols {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.Log.Debug("evaluating", zap.String("instrument", sym))

			res, err := e.EvaluateSymbol(t, sym)
			if err != nil {
				var f *Failure
				if !errors.As(err, &f) {
					f = &Failure{Instrument: sym, Err: err}
				}
				failures[i] = f
				e.Log.Warn("instrument failed",
					zap.String("instrument", sym),
					zap.String("segment", f.Segment),
					zap.Error(f.Err),
				)
				return nil
			}
			results[i] = &res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("backtest: run aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backtest: run aborted: %w", err)
	}

	for i := range symbols {
		if results[i] != nil {
			rep.Results = append(rep.Results, *results[i])
		}
		if failures[i] != nil {
			rep.Failures = append(rep.Failures, *failures[i])
		}
	}
	rep.Finished = time.Now().UTC()

	e.Log.Info("run complete",
		zap.Int("instruments", len(symbols)),
		zap.Int("results", len(rep.Results)),
		zap.Int("failures", len(rep.Failures)),
		zap.Duration("elapsed", rep.Finished.Sub(rep.Started)),
	)
	return rep, nil
}
