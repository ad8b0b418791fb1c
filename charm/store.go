// ABOUTME: Collection store over Charm KV, one key per record
// ABOUTME: Keys are <collection>/<id>; values are records in the platform's JSON wire shape

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
)

// Store implements collection.Store on a charm client.
type Store struct {
	client *Client
	mu     sync.Mutex
	now    func() time.Time
}

var _ collection.Store = (*Store)(nil)

// NewStore creates a store on top of client.
func NewStore(client *Client) *Store {
	return &Store{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Client returns the underlying charm client.
func (s *Store) Client() *Client {
	return s.client
}

func recordKey(name, id string) []byte {
	return []byte(name + "/" + id)
}

func collectionPrefix(name string) []byte {
	return []byte(name + "/")
}

// GetAll returns the records of a collection ordered by creation time.
func (s *Store) GetAll(ctx context.Context, name string, opts models.ListOptions) (*models.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := s.client.KeysWithPrefix(collectionPrefix(name))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s keys: %w", name, err)
	}

	items := make([]models.Record, 0, len(keys))
	for _, key := range keys {
		rec, err := s.read(key)
		if errors.Is(err, models.ErrRecordNotFound) {
			// deleted between listing and reading
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		if a == nil || b == nil || a.Equal(*b) {
			return items[i].ID < items[j].ID
		}
		return a.Before(*b)
	})

	total := len(items)
	if opts.Limit > 0 && opts.Limit < total {
		items = items[:opts.Limit]
	}
	return &models.ListResult{Items: items, TotalCount: total}, nil
}

// Create stores a new record. The caller assigns the id.
func (s *Store) Create(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}
	if rec.ID == "" {
		return models.Record{}, collection.ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(name, rec.ID)
	if _, err := s.read(key); err == nil {
		return models.Record{}, fmt.Errorf("%s/%s: %w", name, rec.ID, collection.ErrDuplicateID)
	} else if !errors.Is(err, models.ErrRecordNotFound) {
		return models.Record{}, err
	}

	now := s.now()
	out := rec.Clone()
	out.CreatedAt = &now
	out.UpdatedAt = &now
	if err := s.write(key, out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// Update replaces every field of an existing record.
func (s *Store) Update(ctx context.Context, name string, rec models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}
	if rec.ID == "" {
		return models.Record{}, collection.ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(name, rec.ID)
	existing, err := s.read(key)
	if err != nil {
		return models.Record{}, fmt.Errorf("%s/%s: %w", name, rec.ID, err)
	}

	now := s.now()
	out := rec.Clone()
	out.CreatedAt = existing.CreatedAt
	out.UpdatedAt = &now
	if err := s.write(key, out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(name, id)
	if _, err := s.read(key); err != nil {
		return fmt.Errorf("%s/%s: %w", name, id, err)
	}
	if err := s.client.Delete(key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", name, id, err)
	}
	return nil
}

func (s *Store) read(key []byte) (models.Record, error) {
	data, err := s.client.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Record{}, models.ErrRecordNotFound
	}
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if data == nil {
		return models.Record{}, models.ErrRecordNotFound
	}

	var rec models.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Record{}, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return rec, nil
}

func (s *Store) write(key []byte, rec models.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.client.Set(key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
