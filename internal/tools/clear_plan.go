package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ClearPlanTool handles the bibly_clear_plan MCP tool.
type ClearPlanTool struct {
	planner Planner
}

// NewClearPlanTool creates a ClearPlanTool.
func NewClearPlanTool(planner Planner) *ClearPlanTool {
	return &ClearPlanTool{planner: planner}
}

// Definition returns the MCP tool definition for registration.
func (t *ClearPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("bibly_clear_plan",
		mcp.WithDescription("Forget the reading plan of a conversation. Safe to call when no plan exists."),
		mcp.WithString("context_id",
			mcp.Required(),
			mcp.Description("Conversation id of the plan to remove"),
		),
	)
}

// Handle processes the bibly_clear_plan tool call.
func (t *ClearPlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contextID := strings.TrimSpace(req.GetString("context_id", ""))
	if contextID == "" {
		return mcp.NewToolResultError("'context_id' is required"), nil
	}

	if t.planner.ClearPlan(contextID) {
		return mcp.NewToolResultText(fmt.Sprintf("Plan for conversation `%s` cleared.", contextID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("No plan stored for conversation `%s`. Nothing to clear.", contextID)), nil
}
