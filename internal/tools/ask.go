package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/protocol"
)

// AskTool handles the bibly_ask MCP tool.
// It sends free text through the same pipeline as the A2A endpoint, so
// "7 days about faith" and "next 3 days" behave identically on both.
type AskTool struct {
	sender Sender
}

// NewAskTool creates an AskTool.
func NewAskTool(sender Sender) *AskTool {
	return &AskTool{sender: sender}
}

// Definition returns the MCP tool definition for registration.
func (t *AskTool) Definition() mcp.Tool {
	return mcp.NewTool("bibly_ask",
		mcp.WithDescription(
			"Talk to the reading-plan agent in plain language. "+
				"Examples: 'Create a 7-day plan about faith', '5 days on hope', 'next 3 days'. "+
				"Pass the returned conversation id as `context_id` to continue a plan.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("What the user said"),
		),
		mcp.WithString("context_id",
			mcp.Description("Conversation id from an earlier reply. Required to continue a plan unless `user_id` is given."),
		),
		mcp.WithString("user_id",
			mcp.Description("Stable user id. Lets 'next N days' find the user's latest plan without a context id."),
		),
	)
}

// Handle processes the bibly_ask tool call.
func (t *AskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := strings.TrimSpace(req.GetString("text", ""))
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}
	contextID := strings.TrimSpace(req.GetString("context_id", ""))
	userID := strings.TrimSpace(req.GetString("user_id", ""))

	resp := t.sender.Send(ctx, protocol.NewUserMessage(text, contextID, userID))
	if resp.Error != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s (code %d)", resp.Error.Message, resp.Error.Code)), nil
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("bibly_ask: empty response")
	}
	return mcp.NewToolResultText(withConversation(resp.Result.Text(), resp.Result.ContextID)), nil
}
