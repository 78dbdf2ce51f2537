package store

// schemaVersionV1 is the current schema.
const schemaVersionV1 = 1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL,
	documents  INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	document_id  TEXT NOT NULL,
	scenario_id  TEXT NOT NULL,
	verdict      TEXT NOT NULL,
	risk_score   REAL NOT NULL,
	digest       TEXT,
	evaluated_at TEXT NOT NULL,
	payload      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_document ON results(document_id, id);
`
