// ABOUTME: Database schema definitions and migrations
// ABOUTME: Creates the records and sync_state tables for SQLite and Postgres
package db

import (
	"database/sql"
	"fmt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	fields TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_records_collection_created ON records(collection, created_at);

CREATE TABLE IF NOT EXISTS sync_state (
	collection TEXT PRIMARY KEY,
	last_load_time DATETIME,
	last_write_time DATETIME,
	status TEXT NOT NULL CHECK(status IN ('idle', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	fields TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_records_collection_created ON records(collection, created_at);

CREATE TABLE IF NOT EXISTS sync_state (
	collection TEXT PRIMARY KEY,
	last_load_time TIMESTAMPTZ,
	last_write_time TIMESTAMPTZ,
	status TEXT NOT NULL CHECK(status IN ('idle', 'error')),
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// InitSchema creates all tables for the dialect if they don't exist.
func InitSchema(db *sql.DB, dialect Dialect) error {
	ddl := sqliteSchema
	if dialect == Postgres {
		ddl = postgresSchema
	}
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to init %s schema: %w", dialect, err)
	}
	return nil
}
