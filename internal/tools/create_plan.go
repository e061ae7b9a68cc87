package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/intent"
)

// CreatePlanTool handles the bibly_create_plan MCP tool.
type CreatePlanTool struct {
	planner Planner
}

// NewCreatePlanTool creates a CreatePlanTool.
func NewCreatePlanTool(planner Planner) *CreatePlanTool {
	return &CreatePlanTool{planner: planner}
}

// Definition returns the MCP tool definition for registration.
func (t *CreatePlanTool) Definition() mcp.Tool {
	return mcp.NewTool("bibly_create_plan",
		mcp.WithDescription(
			"Create a multi-day Bible reading plan on a topic. Replaces any plan already stored "+
				"under the same `context_id`. Returns one verse per day.",
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("Topic to search for, e.g. 'faith', 'forgiveness', 'the holy spirit'"),
		),
		mcp.WithNumber("days",
			mcp.Description(fmt.Sprintf("Number of days (1-%d, default: %d)", t.planner.MaxDays(), intent.DefaultDays)),
		),
		mcp.WithString("context_id",
			mcp.Description("Conversation id to store the plan under. Generated when omitted."),
		),
	)
}

// Handle processes the bibly_create_plan tool call.
func (t *CreatePlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := strings.TrimSpace(req.GetString("topic", ""))
	if topic == "" {
		return mcp.NewToolResultError("'topic' is required"), nil
	}
	days := intArg(req, "days", intent.DefaultDays)
	if days < 1 || days > t.planner.MaxDays() {
		return mcp.NewToolResultError(fmt.Sprintf("'days' must be between 1 and %d", t.planner.MaxDays())), nil
	}

	res, err := t.planner.CreatePlan(ctx, strings.TrimSpace(req.GetString("context_id", "")), topic, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not create plan: %v", err)), nil
	}
	return resultFor(res), nil
}
