package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/intent"
	"github.com/HendryAvila/bibly/internal/reading"
)

// ContinuePlanTool handles the bibly_continue_plan MCP tool.
type ContinuePlanTool struct {
	planner Planner
}

// NewContinuePlanTool creates a ContinuePlanTool.
func NewContinuePlanTool(planner Planner) *ContinuePlanTool {
	return &ContinuePlanTool{planner: planner}
}

// Definition returns the MCP tool definition for registration.
func (t *ContinuePlanTool) Definition() mcp.Tool {
	return mcp.NewTool("bibly_continue_plan",
		mcp.WithDescription(
			"Deliver the next days of an existing reading plan. Day numbering continues "+
				"where the last reply stopped. Never creates a plan.",
		),
		mcp.WithString("context_id",
			mcp.Required(),
			mcp.Description("Conversation id returned when the plan was created"),
		),
		mcp.WithNumber("days",
			mcp.Description(fmt.Sprintf("Number of days (1-%d, default: %d)", t.planner.MaxDays(), intent.DefaultDays)),
		),
	)
}

// Handle processes the bibly_continue_plan tool call.
func (t *ContinuePlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID := strings.TrimSpace(req.GetString("context_id", ""))
	if contextID == "" {
		return mcp.NewToolResultError("'context_id' is required"), nil
	}
	days := intArg(req, "days", intent.DefaultDays)
	if days < 1 || days > t.planner.MaxDays() {
		return mcp.NewToolResultError(fmt.Sprintf("'days' must be between 1 and %d", t.planner.MaxDays())), nil
	}

	res, err := t.planner.ContinuePlan(ctx, contextID, days)
	if errors.Is(err, reading.ErrNoPlan) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"No plan found for conversation %q. Create one with `bibly_create_plan` first.", contextID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Could not continue plan: %v", err)), nil
	}
	return resultFor(res), nil
}
