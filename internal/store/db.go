// Package store provides the SQLite-backed record store for clients,
// properties, users, appointments, and documents.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name     TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'agent',
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS clients (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name      TEXT NOT NULL,
	last_name       TEXT NOT NULL,
	email           TEXT NOT NULL UNIQUE,
	phone           TEXT,
	nationality     TEXT,
	passport_number TEXT UNIQUE,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS properties (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	address     TEXT NOT NULL,
	city        TEXT NOT NULL,
	price       REAL NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'available',
	client_id   INTEGER REFERENCES clients(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS appointments (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	title            TEXT NOT NULL,
	description      TEXT,
	start_date       DATETIME NOT NULL,
	end_date         DATETIME NOT NULL,
	status           TEXT NOT NULL DEFAULT 'scheduled',
	notes            TEXT,
	client_id        INTEGER REFERENCES clients(id) ON DELETE SET NULL,
	property_id      INTEGER REFERENCES properties(id) ON DELETE SET NULL,
	assigned_user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
	revision         INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS documents (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	filename       TEXT NOT NULL UNIQUE,
	original_name  TEXT NOT NULL,
	path           TEXT NOT NULL,
	checksum       TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT 'other',
	client_id      INTEGER REFERENCES clients(id) ON DELETE CASCADE,
	appointment_id INTEGER REFERENCES appointments(id) ON DELETE CASCADE,
	uploaded_by    INTEGER REFERENCES users(id) ON DELETE SET NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_appointment_start_date ON appointments(start_date);
CREATE INDEX IF NOT EXISTS idx_appointment_status     ON appointments(status);
CREATE INDEX IF NOT EXISTS idx_appointment_client     ON appointments(client_id);
CREATE INDEX IF NOT EXISTS idx_appointment_property   ON appointments(property_id);
CREATE INDEX IF NOT EXISTS idx_appointment_user       ON appointments(assigned_user_id);
CREATE INDEX IF NOT EXISTS idx_client_nationality     ON clients(nationality);
CREATE INDEX IF NOT EXISTS idx_client_name            ON clients(last_name, first_name);
CREATE INDEX IF NOT EXISTS idx_property_city          ON properties(city);
CREATE INDEX IF NOT EXISTS idx_property_status        ON properties(status);
CREATE INDEX IF NOT EXISTS idx_document_appointment   ON documents(appointment_id);
CREATE INDEX IF NOT EXISTS idx_document_client        ON documents(client_id);
`

// DB wraps a sql.DB with record-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
