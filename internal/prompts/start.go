// Package prompts implements MCP prompt handlers for the reading-plan
// agent.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/intent"
)

// StartPrompt handles the bibly-start MCP prompt.
// It guides the AI to create a plan and keep the conversation id around.
type StartPrompt struct {
	maxDays int
}

// NewStartPrompt creates a StartPrompt. Day arguments above maxDays are
// lowered to it.
func NewStartPrompt(maxDays int) *StartPrompt {
	if maxDays <= 0 {
		maxDays = intent.DefaultMaxDays
	}
	return &StartPrompt{maxDays: maxDays}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("bibly-start",
		mcp.WithPromptDescription(
			"Start a themed Bible reading plan. "+
				"Creates the plan and explains how to ask for the next days.",
		),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic of the plan, e.g. 'faith' or 'forgiveness'. Default: "+intent.DefaultTopic),
		),
		mcp.WithArgument("days",
			mcp.ArgumentDescription(fmt.Sprintf("Number of days, 1-%d. Default: %d", p.maxDays, intent.DefaultDays)),
		),
	)
}

// Handle processes the bibly-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := intent.DefaultTopic
	days := intent.DefaultDays
	if args := req.Params.Arguments; args != nil {
		if t := strings.TrimSpace(args["topic"]); t != "" {
			topic = t
		}
		if n, err := strconv.Atoi(strings.TrimSpace(args["days"])); err == nil {
			days = min(max(n, 1), p.maxDays)
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start a %d-day plan about %s", days, topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'd like a %d-day Bible reading plan about %s.\n\n"+
						"Please:\n"+
						"1. Run `bibly_create_plan` with topic='%s' and days=%d\n"+
						"2. Show me the readings exactly as returned, one day per line\n"+
						"3. Remember the conversation id from the reply\n"+
						"4. When I say something like 'next 3 days', run `bibly_continue_plan` with that conversation id",
					days, topic, topic, days,
				)),
			},
		},
	}, nil
}
