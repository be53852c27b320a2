package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/smacross/backtest"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordReport stores the run, its results and its failures in one
// transaction.
func (j *SQLite) RecordReport(ctx context.Context, rep *backtest.Report) error {
	if rep == nil || rep.RunID == "" {
		return errors.New("journal: report needs a run id")
	}
	run, results, failures := Records(rep)

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, dataset, strategy, short_window, long_window, split_fraction, instruments, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Created, run.Dataset, run.Strategy,
		run.ShortWindow, run.LongWindow, run.SplitFraction, run.Instruments, run.Failures,
	); err != nil {
		return fmt.Errorf("journal: insert run %s: %w", run.RunID, err)
	}

	for _, r := range results {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results
			(run_id, instrument, training_gain, training_legs, training_benchmark,
			 testing_gain, testing_legs, testing_benchmark, training_start, testing_start, testing_end)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Instrument, r.TrainingGain, r.TrainingLegs, r.TrainingBenchmark,
			r.TestingGain, r.TestingLegs, r.TestingBenchmark, r.TrainingStart, r.TestingStart, r.TestingEnd,
		); err != nil {
			return fmt.Errorf("journal: insert result %s: %w", r.Instrument, err)
		}
	}

	for _, f := range failures {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, instrument, segment, error)
			VALUES (?, ?, ?, ?)`,
			f.RunID, f.Instrument, f.Segment, f.Error,
		); err != nil {
			return fmt.Errorf("journal: insert failure %s: %w", f.Instrument, err)
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
