// ABOUTME: MCP resource handlers for exposing hotel collections
// ABOUTME: Provides read-only access to collections, single records, and counts via innkeep:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
)

const resourceScheme = "innkeep://"

type ResourceHandlers struct {
	store collection.Store
}

func NewResourceHandlers(store collection.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if parts[0] == "counts" {
		counts, err := collection.Summarize(ctx, h.store, models.Collections...)
		if err != nil {
			return nil, fmt.Errorf("failed to count collections: %w", err)
		}
		return jsonResource(uri, counts)
	}

	s, err := lookupSchema(parts[0])
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	res, err := h.store.GetAll(ctx, s.Collection, models.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.Collection, err)
	}

	if len(parts) == 1 || parts[1] == "" {
		return jsonResource(uri, res)
	}

	rec, ok := lo.Find(res.Items, func(r models.Record) bool { return r.ID == parts[1] })
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, rec)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
