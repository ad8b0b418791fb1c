// ABOUTME: Tests for database schema creation and migrations
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db, SQLite); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"records", "sync_state"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	var indexName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_records_collection_created'").Scan(&indexName)
	if err != nil {
		t.Errorf("Index idx_records_collection_created not found: %v", err)
	}

	// Idempotent
	if err := InitSchema(db, SQLite); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestSyncStateStatusConstraint(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db, SQLite); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	_, err = db.Exec(`INSERT INTO sync_state (collection, status, created_at, updated_at)
		VALUES ('rooms', 'syncing', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err == nil {
		t.Error("expected status check constraint to reject 'syncing'")
	}
}
