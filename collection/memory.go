// ABOUTME: In-process collection store used for demos and tests
// ABOUTME: Keeps records per collection in insertion order with platform-style timestamps
package collection

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/harperreed/innkeep/models"
)

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	now         func() time.Time
	collections map[string][]models.Record
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         func() time.Time { return time.Now().UTC() },
		collections: map[string][]models.Record{},
	}
}

func (m *MemoryStore) GetAll(_ context.Context, name string, opts models.ListOptions) (*models.ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.collections[name]
	n := len(records)
	if opts.Limit > 0 && opts.Limit < n {
		n = opts.Limit
	}

	items := make([]models.Record, 0, n)
	for _, rec := range records[:n] {
		items = append(items, rec.Clone())
	}
	return &models.ListResult{Items: items, TotalCount: len(records)}, nil
}

func (m *MemoryStore) Create(_ context.Context, name string, rec models.Record) (models.Record, error) {
	if rec.ID == "" {
		return models.Record{}, ErrMissingID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index(name, rec.ID) >= 0 {
		return models.Record{}, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	now := m.now()
	stored := rec.Clone()
	stored.CreatedAt = &now
	stored.UpdatedAt = &now
	m.collections[name] = append(m.collections[name], stored)
	return stored.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, name string, rec models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name, rec.ID)
	if i < 0 {
		return models.Record{}, fmt.Errorf("%w: %s", models.ErrRecordNotFound, rec.ID)
	}

	now := m.now()
	stored := rec.Clone()
	stored.CreatedAt = m.collections[name][i].CreatedAt
	stored.UpdatedAt = &now
	m.collections[name][i] = stored
	return stored.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, name, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", models.ErrRecordNotFound, id)
	}
	m.collections[name] = slices.Delete(m.collections[name], i, i+1)
	return nil
}

func (m *MemoryStore) index(name, id string) int {
	return slices.IndexFunc(m.collections[name], func(r models.Record) bool { return r.ID == id })
}

var _ Store = (*MemoryStore)(nil)
