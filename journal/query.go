package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `run_id, created, dataset, strategy, short_window, long_window, split_fraction, instruments, failures`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var rec RunRecord
	err := s.Scan(
		&rec.RunID,
		&rec.Created,
		&rec.Dataset,
		&rec.Strategy,
		&rec.ShortWindow,
		&rec.LongWindow,
		&rec.SplitFraction,
		&rec.Instruments,
		&rec.Failures,
	)
	return rec, err
}

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("journal: run %q: %w", runID, ErrRunNotFound)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListResults returns a run's results ordered by descending training gain.
func (j *SQLite) ListResults(ctx context.Context, runID string) ([]ResultRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, instrument, training_gain, training_legs, training_benchmark,
		       testing_gain, testing_legs, testing_benchmark, training_start, testing_start, testing_end
		FROM results
		WHERE run_id = ?
		ORDER BY training_gain DESC, instrument ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Instrument,
			&rec.TrainingGain,
			&rec.TrainingLegs,
			&rec.TrainingBenchmark,
			&rec.TestingGain,
			&rec.TestingLegs,
			&rec.TestingBenchmark,
			&rec.TrainingStart,
			&rec.TestingStart,
			&rec.TestingEnd,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFailures returns a run's failures in the order they were recorded.
func (j *SQLite) ListFailures(ctx context.Context, runID string) ([]FailureRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, instrument, segment, error
		FROM failures
		WHERE run_id = ?
		ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FailureRecord
	for rows.Next() {
		var rec FailureRecord
		if err := rows.Scan(&rec.RunID, &rec.Instrument, &rec.Segment, &rec.Error); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
