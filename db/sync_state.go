// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks the last load and write outcome per collection for status reporting
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Sync statuses stored in sync_state.
const (
	StatusIdle  = "idle"
	StatusError = "error"
)

// SyncState is the last known store outcome for a collection.
type SyncState struct {
	Collection    string
	LastLoadTime  *time.Time
	LastWriteTime *time.Time
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func recordSyncOutcome(ctx context.Context, db *sql.DB, dialect Dialect, name string, kind trackKind, now time.Time, opErr error) error {
	status := StatusIdle
	var errorMsg sql.NullString
	if opErr != nil {
		status = StatusError
		errorMsg = sql.NullString{String: opErr.Error(), Valid: true}
	}

	column := "last_load_time"
	if kind == trackWrite {
		column = "last_write_time"
	}

	var stamp sql.NullTime
	if opErr == nil {
		stamp = sql.NullTime{Time: now, Valid: true}
	}

	query := fmt.Sprintf(`
		INSERT INTO sync_state (collection, %[1]s, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET
			%[1]s = COALESCE(excluded.%[1]s, sync_state.%[1]s),
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, column)

	_, err := db.ExecContext(ctx, rebind(dialect, query), name, stamp, status, errorMsg, now, now)
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}
	return nil
}

// GetSyncState returns the sync state of one collection, or nil if it was
// never touched.
func (s *RecordStore) GetSyncState(ctx context.Context, name string) (*SyncState, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, `
		SELECT collection, last_load_time, last_write_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE collection = ?
	`), name)

	state, err := scanSyncState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

// GetAllSyncStates returns the sync state of every touched collection.
func (s *RecordStore) GetAllSyncStates(ctx context.Context) ([]SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, last_load_time, last_write_time, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY collection
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}

	return states, nil
}

func scanSyncState(row scanner) (*SyncState, error) {
	var state SyncState
	var lastLoad, lastWrite sql.NullTime
	var errorMessage sql.NullString

	err := row.Scan(
		&state.Collection,
		&lastLoad,
		&lastWrite,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastLoad.Valid {
		t := lastLoad.Time.UTC()
		state.LastLoadTime = &t
	}
	if lastWrite.Valid {
		t := lastWrite.Time.UTC()
		state.LastWriteTime = &t
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	return &state, nil
}
