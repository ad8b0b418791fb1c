// ABOUTME: Tests for collection MCP tool, resource, and prompt handlers
// ABOUTME: Validates form rules on writes, partial updates, counts, and resource URIs
package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/logging"
	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan1 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)

func setupHandlers(t *testing.T) (*CollectionHandlers, *collection.MemoryStore) {
	t.Helper()
	store := collection.NewMemoryStore()
	h := NewCollectionHandlers(store, collection.Options{Logger: logging.Discard()})
	h.now = func() time.Time { return jan1 }
	next := 0
	h.newID = func() string {
		next++
		return "id-" + string(rune('0'+next))
	}
	return h, store
}

func roomFields() map[string]string {
	return map[string]string{
		"itemName":        "Garden Suite",
		"itemPrice":       "189.50",
		"maxOccupancy":    "2",
		"roomType":        "Suite",
		"itemDescription": "Faces the garden",
	}
}

func TestCreateRecordAppliesDefaultsAndIDs(t *testing.T) {
	ctx := context.Background()
	h, store := setupHandlers(t)

	_, out, err := h.CreateRecord(ctx, nil, CreateRecordInput{Collection: models.CollectionRooms, Fields: roomFields()})
	require.NoError(t, err)
	assert.Equal(t, "id-1", out.ID)
	assert.Equal(t, "Garden Suite", out.Title)
	assert.Equal(t, models.RoomAvailable, out.Fields["roomStatus"])
	assert.NotEmpty(t, out.CreatedAt)

	res, err := store.GetAll(ctx, models.CollectionRooms, models.ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, json.Number("189.5"), res.Items[0].Fields["itemPrice"])
}

func TestCreateRecordRunsFormRules(t *testing.T) {
	h, store := setupHandlers(t)

	_, _, err := h.CreateRecord(context.Background(), nil, CreateRecordInput{
		Collection: models.CollectionReservations,
		Fields: map[string]string{
			"reservationNumber": "R-1",
			"roomNumber":        "204",
			"guestName":         "Ada",
			"checkInDate":       "2025-01-10",
			"checkOutDate":      "2025-01-09",
		},
	})
	assert.EqualError(t, err, schema.MsgCheckOutBeforeIn)

	res, err := store.GetAll(context.Background(), models.CollectionReservations, models.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount, "rejected submissions never reach the store")
}

func TestCreateRecordUnknownCollection(t *testing.T) {
	h, _ := setupHandlers(t)

	_, _, err := h.CreateRecord(context.Background(), nil, CreateRecordInput{Collection: "ballrooms"})
	assert.ErrorContains(t, err, "unknown collection")
}

func TestUpdateRecordMergesFields(t *testing.T) {
	ctx := context.Background()
	h, _ := setupHandlers(t)

	_, created, err := h.CreateRecord(ctx, nil, CreateRecordInput{Collection: models.CollectionRooms, ID: "r1", Fields: roomFields()})
	require.NoError(t, err)

	_, updated, err := h.UpdateRecord(ctx, nil, UpdateRecordInput{
		Collection: models.CollectionRooms,
		ID:         created.ID,
		Fields:     map[string]string{"roomStatus": "Occupied"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, updated.Fields["roomStatus"])
	assert.Equal(t, "Garden Suite", updated.Fields["itemName"])

	_, _, err = h.UpdateRecord(ctx, nil, UpdateRecordInput{Collection: models.CollectionRooms, ID: "ghost"})
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	_, _, err = h.UpdateRecord(ctx, nil, UpdateRecordInput{
		Collection: models.CollectionRooms,
		ID:         "r1",
		Fields:     map[string]string{"itemName": ""},
	})
	assert.EqualError(t, err, "Room Name is required")
}

func TestDeleteAndListRecords(t *testing.T) {
	ctx := context.Background()
	h, _ := setupHandlers(t)

	for _, id := range []string{"a", "b"} {
		_, _, err := h.CreateRecord(ctx, nil, CreateRecordInput{Collection: models.CollectionRooms, ID: id, Fields: roomFields()})
		require.NoError(t, err)
	}

	_, deleted, err := h.DeleteRecord(ctx, nil, DeleteRecordInput{Collection: models.CollectionRooms, ID: "a"})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, list, err := h.ListRecords(ctx, nil, ListRecordsInput{Collection: models.CollectionRooms})
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)
	require.Len(t, list.Records, 1)
	assert.Equal(t, "b", list.Records[0].ID)

	_, counts, err := h.CollectionCounts(ctx, nil, CollectionCountsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Counts[models.CollectionRooms])
	assert.Len(t, counts.Counts, len(models.Collections))
}

func TestDescribeCollection(t *testing.T) {
	h, _ := setupHandlers(t)

	_, out, err := h.DescribeCollection(context.Background(), nil, DescribeCollectionInput{Collection: models.CollectionPayments})
	require.NoError(t, err)
	assert.Equal(t, "Payments", out.Title)

	var method FieldOutput
	for _, f := range out.Fields {
		if f.Key == "paymentMethod" {
			method = f
		}
	}
	assert.Equal(t, "choice", method.Kind)
	assert.Contains(t, method.Options, models.MethodCash)
}

func TestReadResource(t *testing.T) {
	ctx := context.Background()
	h, store := setupHandlers(t)
	_, _, err := h.CreateRecord(ctx, nil, CreateRecordInput{Collection: models.CollectionRooms, ID: "r1", Fields: roomFields()})
	require.NoError(t, err)

	resources := NewResourceHandlers(store)
	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return resources.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	result, err := read("innkeep://rooms/r1")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Contains(t, result.Contents[0].Text, `"_id": "r1"`)

	result, err = read("innkeep://counts")
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"rooms": 1`)

	_, err = read("innkeep://rooms/ghost")
	assert.Error(t, err)
	_, err = read("crm://contacts")
	assert.ErrorContains(t, err, "invalid URI scheme")
}

func TestDailyBriefingPrompt(t *testing.T) {
	ctx := context.Background()
	store := collection.NewMemoryStore()
	_, err := store.Create(ctx, models.CollectionReservations, models.Reservation{
		ID: "res1", ReservationNumber: "R-1", GuestName: "Ada Lovelace", RoomNumber: "204",
		CheckInDate: "2025-01-10", CheckOutDate: "2025-01-12", Status: models.ReservationConfirmed,
	}.ToRecord())
	require.NoError(t, err)

	prompts := NewPromptHandlers(store)
	prompts.now = func() time.Time { return jan1 }

	result, err := prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "daily-briefing",
		Arguments: map[string]string{"date": "2025-01-10"},
	}})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Arrivals (1)")
	assert.Contains(t, text, "Ada Lovelace, room 204")
	assert.Contains(t, text, "Departures (0)")

	_, err = prompts.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "daily-briefing", Arguments: map[string]string{"date": "soon"}}})
	assert.ErrorContains(t, err, "invalid date")
}
