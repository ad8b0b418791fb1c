// ABOUTME: Tests for the charm KV collection store
// ABOUTME: Runs against a temporary BadgerDB through NewTestClient

package charm

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guest(id, name string) models.Record {
	rec := models.NewRecord(id)
	rec.Set("fullName", name)
	rec.Set("email", id+"@example.com")
	return rec
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(NewTestClient(t))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Create(ctx, models.CollectionGuests, guest("g1", "Ada"))
	require.NoError(t, err)
	require.NotNil(t, created.CreatedAt)

	res, err := store.GetAll(ctx, models.CollectionGuests, models.ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Ada", res.Items[0].String("fullName"))
	assert.True(t, created.CreatedAt.Equal(*res.Items[0].CreatedAt))
}

func TestStoreKeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Create(ctx, models.CollectionGuests, guest("g1", "Ada"))
	require.NoError(t, err)

	raw, err := store.Client().Get([]byte("guests/g1"))
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "g1", wire["_id"])
	assert.Equal(t, "Ada", wire["fullName"])

	keys, err := store.Client().Keys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, bytes.Equal([]byte("guests/g1"), keys[0]))
}

func TestStoreOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, id := range []string{"z", "a", "m"} {
		_, err := store.Create(ctx, models.CollectionGuests, guest(id, id))
		require.NoError(t, err)
	}

	res, err := store.GetAll(ctx, models.CollectionGuests, models.ListOptions{})
	require.NoError(t, err)
	ids := []string{}
	for _, rec := range res.Items {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids, "creation order, not key order")

	res, err = store.GetAll(ctx, models.CollectionGuests, models.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.TotalCount)
}

func TestStoreDuplicateAndMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Create(ctx, models.CollectionGuests, guest("g1", "Ada"))
	require.NoError(t, err)
	_, err = store.Create(ctx, models.CollectionGuests, guest("g1", "Grace"))
	assert.ErrorIs(t, err, collection.ErrDuplicateID)

	_, err = store.Update(ctx, models.CollectionGuests, guest("ghost", "Nobody"))
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
	assert.ErrorIs(t, store.Delete(ctx, models.CollectionGuests, "ghost"), models.ErrRecordNotFound)
}

func TestStoreUpdateReplacesFields(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	original := guest("g1", "Ada")
	original.Set("specialRequests", "Late checkout")
	created, err := store.Create(ctx, models.CollectionGuests, original)
	require.NoError(t, err)

	replacement := models.NewRecord("g1")
	replacement.Set("fullName", "Ada King")
	updated, err := store.Update(ctx, models.CollectionGuests, replacement)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(*updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(*updated.CreatedAt))

	res, err := store.GetAll(ctx, models.CollectionGuests, models.ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, map[string]any{"fullName": "Ada King"}, res.Items[0].Fields)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Create(ctx, models.CollectionGuests, guest("g1", "Ada"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, models.CollectionGuests, "g1"))

	res, err := store.GetAll(ctx, models.CollectionGuests, models.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalCount)
}

func TestStoreBacksSync(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	guests := collection.New(store, models.CollectionGuests, collection.Options{})
	require.NoError(t, guests.Load(ctx))

	_, err := guests.Create(ctx, guest("g1", "Ada"))
	require.NoError(t, err)
	_, err = guests.Update(ctx, guest("g1", "Ada King"))
	require.NoError(t, err)

	entry, ok := guests.Get("g1")
	require.True(t, ok)
	assert.Equal(t, collection.StatusCommitted, entry.Status)
	assert.Equal(t, "Ada King", entry.Record.String("fullName"))
}

func TestCommandsWriteOutput(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Create(ctx, models.CollectionGuests, guest("g1", "Ada"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, StatusCommand(store.Client(), &out, nil))
	assert.Contains(t, out.String(), "guests")
	assert.Contains(t, out.String(), "Not connected")

	out.Reset()
	require.NoError(t, WipeCommand(store.Client(), &out, nil))
	assert.Contains(t, out.String(), "--confirm")

	out.Reset()
	require.NoError(t, WipeCommand(store.Client(), &out, []string{"--confirm"}))
	keys, err := store.Client().Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
