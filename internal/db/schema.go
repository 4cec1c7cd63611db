package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the version recorded for databases created from SchemaSQL.
const SchemaVersion = 1

// SchemaSQL is the complete schema of the run history database.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository tests
// load it via GetSchemaSQL() instead of declaring their own tables, so a
// column referenced by repository code but missing here fails immediately
// with "no such column".
//
// Only raw samples are stored. Summaries are recomputed on every read.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	tests TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK(status IN ('running', 'complete', 'failed', 'aborted')) DEFAULT 'running',
	force_dock INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

CREATE TABLE IF NOT EXISTS samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	test TEXT NOT NULL,
	measurement TEXT NOT NULL DEFAULT '',
	sample_index INTEGER NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	z REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);

CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the schema on a fresh database and checks the recorded
// version of an existing one.
func InitSchema(conn *sql.DB) error {
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}

	var version int
	if err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return err
	}

	switch {
	case version == 0:
		_, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	case version > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, SchemaVersion)
	default:
		return nil
	}
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
