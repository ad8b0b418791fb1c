// ABOUTME: Collection MCP tool handlers
// ABOUTME: Implements list_records, describe_collection, create/update/delete_record, and collection_counts
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
)

type CollectionHandlers struct {
	store collection.Store
	opts  collection.Options
	now   func() time.Time
	newID func() string
}

func NewCollectionHandlers(store collection.Store, opts collection.Options) *CollectionHandlers {
	return &CollectionHandlers{
		store: store,
		opts:  opts,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

type RecordOutput struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Fields    map[string]any `json:"fields"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

func recordToOutput(s *schema.Schema, rec models.Record) RecordOutput {
	title, _ := s.Summary(rec)
	out := RecordOutput{ID: rec.ID, Title: title, Fields: rec.Fields}
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}
	if rec.CreatedAt != nil {
		out.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	if rec.UpdatedAt != nil {
		out.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

func lookupSchema(name string) (*schema.Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("collection is required")
	}
	s, ok := schema.For(name)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q (want one of %v)", name, models.Collections)
	}
	return s, nil
}

// mirror loads a fresh Sync so writes go through the same optimistic path
// as the terminal screens.
func (h *CollectionHandlers) mirror(ctx context.Context, name string) (*collection.Sync, error) {
	sync := collection.New(h.store, name, h.opts)
	if err := sync.Load(ctx); err != nil {
		return nil, err
	}
	return sync, nil
}

type ListRecordsInput struct {
	Collection string `json:"collection" jsonschema:"Collection name, e.g. rooms or reservations (required)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of records (default all)"`
}

type ListRecordsOutput struct {
	Collection string         `json:"collection"`
	TotalCount int            `json:"total_count"`
	Records    []RecordOutput `json:"records"`
}

func (h *CollectionHandlers) ListRecords(ctx context.Context, _ *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	s, err := lookupSchema(input.Collection)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}
	if input.Limit < 0 {
		return nil, ListRecordsOutput{}, fmt.Errorf("limit must not be negative")
	}

	res, err := h.store.GetAll(ctx, s.Collection, models.ListOptions{Limit: input.Limit})
	if err != nil {
		return nil, ListRecordsOutput{}, fmt.Errorf("failed to list %s: %w", s.Collection, err)
	}

	records := lo.Map(res.Items, func(rec models.Record, _ int) RecordOutput {
		return recordToOutput(s, rec)
	})
	return nil, ListRecordsOutput{Collection: s.Collection, TotalCount: res.TotalCount, Records: records}, nil
}

type DescribeCollectionInput struct {
	Collection string `json:"collection" jsonschema:"Collection name (required)"`
}

type FieldOutput struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Default  string   `json:"default,omitempty"`
}

type DescribeCollectionOutput struct {
	Collection string        `json:"collection"`
	Title      string        `json:"title"`
	Fields     []FieldOutput `json:"fields"`
}

func (h *CollectionHandlers) DescribeCollection(_ context.Context, _ *mcp.CallToolRequest, input DescribeCollectionInput) (*mcp.CallToolResult, DescribeCollectionOutput, error) {
	s, err := lookupSchema(input.Collection)
	if err != nil {
		return nil, DescribeCollectionOutput{}, err
	}

	fields := lo.Map(s.Fields, func(f schema.Field, _ int) FieldOutput {
		return FieldOutput{
			Key:      f.Key,
			Label:    f.Label,
			Kind:     f.Kind.String(),
			Required: f.Required,
			Options:  f.Options,
			Default:  f.Default,
		}
	})
	return nil, DescribeCollectionOutput{Collection: s.Collection, Title: s.Title, Fields: fields}, nil
}

type CreateRecordInput struct {
	Collection string            `json:"collection" jsonschema:"Collection name (required)"`
	ID         string            `json:"id,omitempty" jsonschema:"Record id (generated when omitted)"`
	Fields     map[string]string `json:"fields" jsonschema:"Field values keyed by field key, as entered on the form"`
}

func (h *CollectionHandlers) CreateRecord(ctx context.Context, _ *mcp.CallToolRequest, input CreateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	s, err := lookupSchema(input.Collection)
	if err != nil {
		return nil, RecordOutput{}, err
	}

	id := input.ID
	if id == "" {
		id = h.newID()
	}
	values := s.Defaults()
	for k, v := range input.Fields {
		values[k] = v
	}

	rec, err := s.Build(id, values, h.now())
	if err != nil {
		return nil, RecordOutput{}, err
	}

	sync, err := h.mirror(ctx, s.Collection)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to load %s: %w", s.Collection, err)
	}
	created, err := sync.Create(ctx, rec)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to create %s record: %w", s.Singular, err)
	}
	return nil, recordToOutput(s, created), nil
}

type UpdateRecordInput struct {
	Collection string            `json:"collection" jsonschema:"Collection name (required)"`
	ID         string            `json:"id" jsonschema:"Record id (required)"`
	Fields     map[string]string `json:"fields" jsonschema:"Changed field values; omitted fields keep their current value, an empty string clears one"`
}

func (h *CollectionHandlers) UpdateRecord(ctx context.Context, _ *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	s, err := lookupSchema(input.Collection)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	if input.ID == "" {
		return nil, RecordOutput{}, fmt.Errorf("id is required")
	}

	sync, err := h.mirror(ctx, s.Collection)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to load %s: %w", s.Collection, err)
	}
	current, ok := sync.Get(input.ID)
	if !ok {
		return nil, RecordOutput{}, fmt.Errorf("%s %s: %w", s.Singular, input.ID, models.ErrRecordNotFound)
	}

	values := s.FormValues(current.Record)
	for k, v := range input.Fields {
		values[k] = v
	}
	rec, err := s.Build(input.ID, values, h.now())
	if err != nil {
		return nil, RecordOutput{}, err
	}

	updated, err := sync.Update(ctx, rec)
	if err != nil {
		return nil, RecordOutput{}, fmt.Errorf("failed to update %s record: %w", s.Singular, err)
	}
	return nil, recordToOutput(s, updated), nil
}

type DeleteRecordInput struct {
	Collection string `json:"collection" jsonschema:"Collection name (required)"`
	ID         string `json:"id" jsonschema:"Record id (required)"`
}

type DeleteRecordOutput struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Deleted    bool   `json:"deleted"`
}

func (h *CollectionHandlers) DeleteRecord(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRecordInput) (*mcp.CallToolResult, DeleteRecordOutput, error) {
	s, err := lookupSchema(input.Collection)
	if err != nil {
		return nil, DeleteRecordOutput{}, err
	}
	if input.ID == "" {
		return nil, DeleteRecordOutput{}, fmt.Errorf("id is required")
	}

	sync, err := h.mirror(ctx, s.Collection)
	if err != nil {
		return nil, DeleteRecordOutput{}, fmt.Errorf("failed to load %s: %w", s.Collection, err)
	}
	if err := sync.Delete(ctx, input.ID); err != nil {
		return nil, DeleteRecordOutput{}, fmt.Errorf("failed to delete %s record: %w", s.Singular, err)
	}
	return nil, DeleteRecordOutput{Collection: s.Collection, ID: input.ID, Deleted: true}, nil
}

type CollectionCountsInput struct{}

type CollectionCountsOutput struct {
	Counts map[string]int `json:"counts"`
}

func (h *CollectionHandlers) CollectionCounts(ctx context.Context, _ *mcp.CallToolRequest, _ CollectionCountsInput) (*mcp.CallToolResult, CollectionCountsOutput, error) {
	counts, err := collection.Summarize(ctx, h.store, models.Collections...)
	if err != nil {
		return nil, CollectionCountsOutput{}, err
	}
	return nil, CollectionCountsOutput{Counts: counts}, nil
}
