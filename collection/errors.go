// ABOUTME: Error taxonomy for collection sync operations
// ABOUTME: FetchError for failed loads, WriteError for failed create/update/delete
package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID is returned when a record is staged without a caller-assigned id.
	ErrMissingID = errors.New("record id is required")

	// ErrDuplicateID is returned when a create would put two records with the same id in the mirror.
	ErrDuplicateID = errors.New("record id already exists")

	// ErrInFlight is returned when retrying a mutation whose commit has not finished.
	ErrInFlight = errors.New("mutation is still being committed")
)

// FetchError reports a failed load of a collection.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError reports a failed create, update, or delete. Mutation can be
// passed to Sync.Retry; Reverted tells whether the mirror was rolled back.
type WriteError struct {
	Op         Op
	Collection string
	ID         string
	Reverted   bool
	Mutation   *Mutation
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
