// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server exposing collection tools, resources, and prompts on stdio
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients and by the version command.
var Version = "0.1.0"

// NewMCPServer registers every tool, resource, and prompt over store.
func NewMCPServer(store collection.Store, opts collection.Options) *mcp.Server {
	collectionHandlers := handlers.NewCollectionHandlers(store, opts)
	resourceHandlers := handlers.NewResourceHandlers(store)
	promptHandlers := handlers.NewPromptHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "innkeep",
		Version: Version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List records of a hotel collection (rooms, reservations, guests, staff, hotelservices, payments, housekeepingtasks, maintenancerequests)",
	}, collectionHandlers.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_collection",
		Description: "Describe the fields, types, options, and defaults of a collection",
	}, collectionHandlers.DescribeCollection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_record",
		Description: "Create a record; values are validated with the same rules as the staff forms",
	}, collectionHandlers.CreateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Update a record by id; omitted fields keep their current value",
	}, collectionHandlers.UpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_record",
		Description: "Delete a record by id",
	}, collectionHandlers.DeleteRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collection_counts",
		Description: "Count the records in every collection, as on the dashboard",
	}, collectionHandlers.CollectionCounts)

	// Register resources
	server.AddResource(&mcp.Resource{
		URI:         "innkeep://counts",
		Name:        "counts",
		Description: "Record count of every collection",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "innkeep://{collection}",
		Name:        "collection",
		Description: "All records of a collection",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "innkeep://{collection}/{id}",
		Name:        "record",
		Description: "A single record",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "daily-briefing",
		Description: "Front-desk briefing: arrivals, departures, housekeeping, and open maintenance",
		Arguments: []*mcp.PromptArgument{
			{Name: "date", Description: "Day to brief, YYYY-MM-DD (default today)"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "record-summary",
		Description: "Summarize one record and flag anything needing attention",
		Arguments: []*mcp.PromptArgument{
			{Name: "collection", Description: "Collection name", Required: true},
			{Name: "id", Description: "Record id", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, store collection.Store, opts collection.Options) error {
	log.Info("starting innkeep MCP server")
	return NewMCPServer(store, opts).Run(ctx, &mcp.StdioTransport{})
}
