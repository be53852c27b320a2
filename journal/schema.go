package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	strategy TEXT NOT NULL,
	short_window INTEGER NOT NULL,
	long_window INTEGER NOT NULL,
	split_fraction REAL NOT NULL,
	instruments INTEGER NOT NULL,
	failures INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	instrument TEXT NOT NULL,
	training_gain REAL NOT NULL,
	training_legs INTEGER NOT NULL,
	training_benchmark REAL NOT NULL,
	testing_gain REAL NOT NULL,
	testing_legs INTEGER NOT NULL,
	testing_benchmark REAL NOT NULL,
	training_start DATETIME NOT NULL,
	testing_start DATETIME NOT NULL,
	testing_end DATETIME NOT NULL,
	PRIMARY KEY (run_id, instrument)
);

CREATE TABLE IF NOT EXISTS failures (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	instrument TEXT NOT NULL,
	segment TEXT NOT NULL,
	error TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
`
