package history

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the history tables. Times are Unix nanoseconds so that both
// drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    manifest_path TEXT NOT NULL,
    input_path TEXT,
    output_path TEXT,
    status TEXT NOT NULL,
    error_kind TEXT,
    error TEXT,
    started_at INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    rows_in INTEGER NOT NULL DEFAULT 0,
    rows_out INTEGER NOT NULL DEFAULT 0,
    models TEXT
);

CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`

// GetSchemaVersion reads the newest schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version`
