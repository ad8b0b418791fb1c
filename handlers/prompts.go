// ABOUTME: MCP prompt handlers for reusable front-desk workflow templates
// ABOUTME: Provides the daily-briefing and record-summary prompts built from live collection data
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"
)

type PromptHandlers struct {
	store collection.Store
	now   func() time.Time
}

func NewPromptHandlers(store collection.Store) *PromptHandlers {
	return &PromptHandlers{store: store, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "daily-briefing":
		return h.getDailyBriefingPrompt(ctx, request.Params.Arguments)
	case "record-summary":
		return h.getRecordSummaryPrompt(ctx, request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) all(ctx context.Context, name string) ([]models.Record, error) {
	res, err := h.store.GetAll(ctx, name, models.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	return res.Items, nil
}

func (h *PromptHandlers) getDailyBriefingPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	day := h.now().Format("2006-01-02")
	if raw := strings.TrimSpace(args["date"]); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
		}
		day = raw
	}

	rooms, err := h.all(ctx, models.CollectionRooms)
	if err != nil {
		return nil, err
	}
	reservations, err := h.all(ctx, models.CollectionReservations)
	if err != nil {
		return nil, err
	}
	tasks, err := h.all(ctx, models.CollectionHousekeepingTasks)
	if err != nil {
		return nil, err
	}
	requests, err := h.all(ctx, models.CollectionMaintenanceRequests)
	if err != nil {
		return nil, err
	}

	roomStatus := lo.CountValuesBy(rooms, func(r models.Record) string { return r.String("roomStatus") })
	arrivals := lo.Filter(reservations, func(r models.Record, _ int) bool { return r.String("checkInDate") == day })
	departures := lo.Filter(reservations, func(r models.Record, _ int) bool { return r.String("checkOutDate") == day })
	openTasks := lo.Filter(tasks, func(r models.Record, _ int) bool {
		status := r.String("status")
		return status != models.WorkCompleted && status != models.WorkCancelled && r.String("dueDate") <= day
	})
	openRequests := lo.Filter(requests, func(r models.Record, _ int) bool { return r.String("dateResolved") == "" })

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please prepare the front-desk briefing for %s.\n\n", day))
	promptText.WriteString(fmt.Sprintf("Rooms: %d total", len(rooms)))
	for _, status := range []string{models.RoomAvailable, models.RoomOccupied, models.RoomMaintenance} {
		promptText.WriteString(fmt.Sprintf(", %d %s", roomStatus[status], strings.ToLower(status)))
	}
	promptText.WriteString("\n")

	promptText.WriteString(fmt.Sprintf("\nArrivals (%d):\n", len(arrivals)))
	for _, r := range arrivals {
		promptText.WriteString(fmt.Sprintf("- %s, room %s (%s)\n", r.String("guestName"), r.String("roomNumber"), r.String("status")))
	}
	promptText.WriteString(fmt.Sprintf("\nDepartures (%d):\n", len(departures)))
	for _, r := range departures {
		promptText.WriteString(fmt.Sprintf("- %s, room %s\n", r.String("guestName"), r.String("roomNumber")))
	}
	promptText.WriteString(fmt.Sprintf("\nHousekeeping due (%d):\n", len(openTasks)))
	for _, r := range openTasks {
		promptText.WriteString(fmt.Sprintf("- room %s: %s (%s, %s)\n", r.String("roomNumber"), r.String("taskDescription"), r.String("assignedStaff"), r.String("dueDate")))
	}
	promptText.WriteString(fmt.Sprintf("\nOpen maintenance (%d):\n", len(openRequests)))
	for _, r := range openRequests {
		promptText.WriteString(fmt.Sprintf("- %s: %s [%s]\n", r.String("locationRoomNumber"), r.String("issueDescription"), r.String("priorityLevel")))
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Rooms that need to be ready before arrivals")
	promptText.WriteString("\n2. Housekeeping and maintenance conflicts with today's bookings")
	promptText.WriteString("\n3. A short handover note for the next shift")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Front-desk briefing for %s", day),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}

func (h *PromptHandlers) getRecordSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	s, err := lookupSchema(args["collection"])
	if err != nil {
		return nil, err
	}
	id := args["id"]
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	records, err := h.all(ctx, s.Collection)
	if err != nil {
		return nil, err
	}
	rec, ok := lo.Find(records, func(r models.Record) bool { return r.ID == id })
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", s.Singular, id, models.ErrRecordNotFound)
	}

	title, lines := s.Summary(rec)
	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Please summarize this %s record:\n\n", strings.ToLower(s.Singular)))
	promptText.WriteString(title + "\n")
	for _, line := range lines {
		promptText.WriteString(fmt.Sprintf("%s: %s\n", line.Label, line.Value))
	}
	promptText.WriteString("\nPoint out anything that needs staff attention.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summary for %s: %s", strings.ToLower(s.Singular), title),
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText.String()},
			},
		},
	}, nil
}
