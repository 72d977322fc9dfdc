package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite relay log
type DB struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS relay_logs (
    log_id           INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id       TEXT    NOT NULL,
    status           INTEGER NOT NULL,
    outcome          TEXT    NOT NULL,
    fragments        INTEGER DEFAULT 0,
    bytes            INTEGER DEFAULT 0,
    skipped_frames   INTEGER DEFAULT 0,
    reasoning_effort TEXT,
    error            TEXT,
    duration_ms      INTEGER DEFAULT 0,
    created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_relay_request ON relay_logs(request_id);
CREATE INDEX IF NOT EXISTS idx_relay_outcome ON relay_logs(outcome);
CREATE INDEX IF NOT EXISTS idx_relay_created ON relay_logs(created_at);
`

// New opens (or creates) the SQLite database at path and initializes the schema
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) initSchema() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
