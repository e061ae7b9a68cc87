// Package tools implements the MCP tool handlers of the reading-plan agent.
//
// Each tool receives its dependencies via its struct and returns a handler
// compatible with mcp-go's CallToolRequest signature. Tools depend on the
// small interfaces below, not on concrete services.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/reading"
)

// Planner is the plan lifecycle the tools drive.
type Planner interface {
	CreatePlan(ctx context.Context, conversationID, topic string, days int) (*reading.Result, error)
	ContinuePlan(ctx context.Context, conversationID string, days int) (*reading.Result, error)
	ClearPlan(conversationID string) bool
	MaxDays() int
}

// Sender runs free text through the full request pipeline.
type Sender interface {
	Send(ctx context.Context, msg protocol.Message) *protocol.Response
}

// intArg extracts an integer argument from a tool request.
// JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// withConversation appends the conversation footer every reply carries so
// the host can pass it back on the next call.
func withConversation(text, conversationID string) string {
	if conversationID == "" {
		return text
	}
	return fmt.Sprintf("%s\n\n---\n**Conversation:** `%s`", strings.TrimRight(text, "\n"), conversationID)
}

// resultFor renders a plan result for the host.
func resultFor(res *reading.Result) *mcp.CallToolResult {
	text := res.Text
	if res.Fallback {
		text += "\n\n_No verses matched this topic, so a general passage was used._"
	}
	return mcp.NewToolResultText(withConversation(text, res.ConversationID))
}
