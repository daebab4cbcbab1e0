// Package store is the sqlite persistence layer: employees with profile
// text, meetings, commitments and survey responses. It also implements the
// orchestrator's read-only context providers.
package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	position   TEXT NOT NULL DEFAULT '',
	profile    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meetings (
	id           TEXT PRIMARY KEY,
	employee_id  TEXT NOT NULL REFERENCES employees(id),
	status       TEXT NOT NULL DEFAULT 'active',
	notes        TEXT NOT NULL DEFAULT '',
	satisfaction INTEGER NOT NULL DEFAULT 0,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER
);
CREATE INDEX IF NOT EXISTS idx_meetings_employee ON meetings(employee_id, status);

CREATE TABLE IF NOT EXISTS commitments (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	text        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'open',
	due_at      INTEGER,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commitments_employee ON commitments(employee_id, status);

CREATE TABLE IF NOT EXISTS survey_responses (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	question    TEXT NOT NULL,
	answer      TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_survey_employee ON survey_responses(employee_id);
`

// Store wraps the sqlite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" is accepted for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// The driver serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("store opened", zap.String("path", path))
	return &Store{db: db, logger: logger.Named("store")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
