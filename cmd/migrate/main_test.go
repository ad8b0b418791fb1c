// ABOUTME: Tests for copying records between collection stores
// ABOUTME: Covers skip-on-duplicate, forced overwrite, and dry runs
package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/db"
	"github.com/harperreed/innkeep/logging"
	"github.com/harperreed/innkeep/models"
)

func seed(t *testing.T, store collection.Store, name, id, title string) {
	t.Helper()
	rec := models.NewRecord(id)
	rec.Set("itemName", title)
	_, err := store.Create(context.Background(), name, rec)
	require.NoError(t, err)
}

func setupSource(t *testing.T) *db.RecordStore {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "source.db"))
	require.NoError(t, err)
	store := db.NewRecordStore(database, db.SQLite)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCopyRecords(t *testing.T) {
	ctx := context.Background()
	src := setupSource(t)
	seed(t, src, models.CollectionRooms, "r1", "Ocean 101")
	seed(t, src, models.CollectionRooms, "r2", "Garden 7")
	seed(t, src, models.CollectionServices, "s1", "Spa")

	dst := collection.NewMemoryStore()
	seed(t, dst, models.CollectionRooms, "r1", "Old name")

	stats, err := copyRecords(ctx, logging.Discard(), src, dst, models.Collections, false, false)
	require.NoError(t, err)
	assert.Equal(t, copyStats{copied: 2, skipped: 1}, stats)

	res, err := dst.GetAll(ctx, models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
	assert.Equal(t, "Old name", res.Items[0].String("itemName"))
}

func TestCopyRecordsForceOverwrites(t *testing.T) {
	ctx := context.Background()
	src := setupSource(t)
	seed(t, src, models.CollectionRooms, "r1", "Ocean 101")

	dst := collection.NewMemoryStore()
	seed(t, dst, models.CollectionRooms, "r1", "Old name")

	stats, err := copyRecords(ctx, logging.Discard(), src, dst, models.Collections, false, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.overwritten)

	res, err := dst.GetAll(ctx, models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Ocean 101", res.Items[0].String("itemName"))
}

func TestCopyRecordsDryRun(t *testing.T) {
	ctx := context.Background()
	src := setupSource(t)
	seed(t, src, models.CollectionRooms, "r1", "Ocean 101")

	dst := collection.NewMemoryStore()
	stats, err := copyRecords(ctx, logging.Discard(), src, dst, models.Collections, true, false)
	require.NoError(t, err)
	assert.Equal(t, copyStats{}, stats)

	res, err := dst.GetAll(ctx, models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)
}
