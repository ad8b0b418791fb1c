// ABOUTME: Status and state enums for the collection mirror
// ABOUTME: Per-record sync status, load/submit state machines, failure policy, and operation kinds
package collection

import (
	"fmt"
	"strings"
)

// Status is the sync status of one mirrored record.
type Status int

const (
	StatusCommitted Status = iota
	StatusPending
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	default:
		return "committed"
	}
}

// LoadState tracks the initial fetch: idle -> loading -> (loaded | errored).
type LoadState int

const (
	LoadIdle LoadState = iota
	Loading
	Loaded
	LoadErrored
)

func (s LoadState) String() string {
	return [...]string{"idle", "loading", "loaded", "errored"}[s]
}

// SubmitState tracks form submissions: idle -> submitting -> (idle | errored).
type SubmitState int

const (
	SubmitIdle SubmitState = iota
	Submitting
	SubmitErrored
)

func (s SubmitState) String() string {
	return [...]string{"idle", "submitting", "errored"}[s]
}

// FailurePolicy decides what happens to an optimistic mutation whose remote
// write failed after all retries.
type FailurePolicy int

const (
	// FailureRevert undoes the local mutation.
	FailureRevert FailurePolicy = iota
	// FailureKeep leaves the local mutation in place and marks the record failed.
	FailureKeep
)

func (p FailurePolicy) String() string {
	if p == FailureKeep {
		return "keep"
	}
	return "revert"
}

// ParseFailurePolicy parses "revert" or "keep".
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "revert", "rollback":
		return FailureRevert, nil
	case "keep", "fire-and-forget":
		return FailureKeep, nil
	}
	return FailureRevert, fmt.Errorf("unknown failure policy: %s", raw)
}

// Op is the kind of a mutation.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	return [...]string{"create", "update", "delete"}[o]
}
