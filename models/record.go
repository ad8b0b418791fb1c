// ABOUTME: Generic collection record shared by every store backend and screen
// ABOUTME: Defines Record, list options/results, collection names, and ErrRecordNotFound
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrRecordNotFound is returned (wrapped) by every store when an id does not exist.
var ErrRecordNotFound = errors.New("record not found")

// ErrUnknownCollection is returned when a collection name is not one of Collections.
var ErrUnknownCollection = errors.New("unknown collection")

// CodeUnknownCollection tags API error bodies for unknown collections, which
// share the 404 status with missing records.
const CodeUnknownCollection = "unknown_collection"

// Collection names used by the hotel screens. The names match the hosted
// platform's collection ids and never change at runtime.
const (
	CollectionRooms               = "rooms"
	CollectionReservations        = "reservations"
	CollectionGuests              = "guests"
	CollectionStaff               = "staff"
	CollectionServices            = "hotelservices"
	CollectionPayments            = "payments"
	CollectionHousekeepingTasks   = "housekeepingtasks"
	CollectionMaintenanceRequests = "maintenancerequests"
)

// Collections lists every collection in navigation order.
var Collections = []string{
	CollectionRooms,
	CollectionReservations,
	CollectionGuests,
	CollectionStaff,
	CollectionServices,
	CollectionPayments,
	CollectionHousekeepingTasks,
	CollectionMaintenanceRequests,
}

// IsCollection reports whether name is a known collection.
func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Wire keys for the system fields of a record.
const (
	KeyID        = "_id"
	KeyCreatedAt = "_createdDate"
	KeyUpdatedAt = "_updatedDate"
)

// Record is one entity instance in a collection. Fields hold the domain
// values; numbers are kept as json.Number so they survive store round trips
// unchanged.
type Record struct {
	ID        string
	CreatedAt *time.Time
	UpdatedAt *time.Time
	Fields    map[string]any
}

// NewRecord creates a record with the given id and an empty field map.
func NewRecord(id string) Record {
	return Record{ID: id, Fields: map[string]any{}}
}

// Clone returns a copy whose field map can be mutated independently.
func (r Record) Clone() Record {
	out := Record{ID: r.ID, Fields: make(map[string]any, len(r.Fields))}
	if r.CreatedAt != nil {
		t := *r.CreatedAt
		out.CreatedAt = &t
	}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		out.UpdatedAt = &t
	}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// String returns the string value of a field, formatting numbers and bools.
func (r Record) String(key string) string {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		if typed {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(typed)
	}
}

// Set stores a field value; nil or empty-string values remove the key.
func (r *Record) Set(key string, value any) {
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	if value == nil {
		delete(r.Fields, key)
		return
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		delete(r.Fields, key)
		return
	}
	r.Fields[key] = value
}

// Keys returns the field keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON flattens the record into the platform's wire shape.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[KeyID] = r.ID
	if r.CreatedAt != nil {
		out[KeyCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.UpdatedAt != nil {
		out[KeyUpdatedAt] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the platform's wire shape. Numbers decode as json.Number.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*r = Record{Fields: map[string]any{}}
	for k, v := range raw {
		switch k {
		case KeyID:
			id, ok := v.(string)
			if !ok {
				return fmt.Errorf("record %s must be a string", KeyID)
			}
			r.ID = id
		case KeyCreatedAt, KeyUpdatedAt:
			s, ok := v.(string)
			if !ok || s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			if k == KeyCreatedAt {
				r.CreatedAt = &t
			} else {
				r.UpdatedAt = &t
			}
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

// EncodeFields serializes only the domain fields, for stores that keep system
// fields in their own columns.
func (r Record) EncodeFields() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

// DecodeFields parses a field payload written by EncodeFields.
func DecodeFields(data []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 || string(data) == "null" {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ListOptions tunes a GetAll call. Limit is a result-size hint; zero means all.
type ListOptions struct {
	Limit int
}

// ListResult is the response of a GetAll call. TotalCount is the size of the
// whole collection regardless of Limit.
type ListResult struct {
	Items      []Record `json:"items"`
	TotalCount int      `json:"totalCount"`
}
