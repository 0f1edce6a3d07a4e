// Package storage handles persistence: runtime settings and the append-only
// prediction log, both in SQLite.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS prediction_log (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    team1            TEXT NOT NULL,
    team2            TEXT NOT NULL,
    round            TEXT NOT NULL DEFAULT '',
    predicted_winner TEXT NOT NULL DEFAULT '',
    confidence       INTEGER NOT NULL DEFAULT 0,
    risk_level       TEXT NOT NULL DEFAULT '',
    key_factors      TEXT NOT NULL DEFAULT '[]',
    brief_analysis   TEXT NOT NULL DEFAULT '',
    error            TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_prediction_log_created ON prediction_log(created_at);
`

// NewDatabase opens the SQLite database and applies the schema.
// WAL allows concurrent reads while writing; busy_timeout waits on lock
// contention instead of failing.
func NewDatabase(dbPath string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite performs best with a single writer connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
