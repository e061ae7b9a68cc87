package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ProgressPrompt handles the bibly-progress MCP prompt.
// It instructs the AI to read and present where a plan stands.
type ProgressPrompt struct{}

// NewProgressPrompt creates a ProgressPrompt.
func NewProgressPrompt() *ProgressPrompt {
	return &ProgressPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ProgressPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("bibly-progress",
		mcp.WithPromptDescription(
			"Check how far along a reading plan is and what comes next.",
		),
		mcp.WithArgument("context_id",
			mcp.ArgumentDescription("Conversation id of the plan"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the bibly-progress prompt request.
func (p *ProgressPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	contextID := ""
	if args := req.Params.Arguments; args != nil {
		contextID = strings.TrimSpace(args["context_id"])
	}
	if contextID == "" {
		return nil, fmt.Errorf("context_id is required")
	}

	return &mcp.GetPromptResult{
		Description: "Reading plan progress",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please read the resource `bibly://plans/%s` to check my reading plan.\n\n"+
						"Then:\n"+
						"1. Tell me the topic and how many days I've received so far\n"+
						"2. Tell me how many readings are still available\n"+
						"3. If readings remain, offer to run `bibly_continue_plan` for the next days\n"+
						"4. If none remain, suggest starting a new plan with `bibly_create_plan`",
					contextID,
				)),
			},
		},
	}, nil
}
