package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/intent"
)

func promptReq(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	if len(res.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(res.Messages))
	}
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", res.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt_Defaults(t *testing.T) {
	res, err := NewStartPrompt(0).Handle(context.Background(), promptReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "topic='"+intent.DefaultTopic+"'") {
		t.Errorf("expected default topic, got: %s", text)
	}
	if !strings.Contains(text, "days=5") {
		t.Errorf("expected default days, got: %s", text)
	}
}

func TestStartPrompt_Arguments(t *testing.T) {
	p := NewStartPrompt(7)

	tests := []struct {
		name string
		args map[string]string
		want string
	}{
		{"explicit", map[string]string{"topic": "hope", "days": "3"}, "topic='hope' and days=3"},
		{"clamped high", map[string]string{"topic": "hope", "days": "30"}, "days=7"},
		{"clamped low", map[string]string{"topic": "hope", "days": "-2"}, "days=1"},
		{"garbage days", map[string]string{"topic": "hope", "days": "lots"}, "days=5"},
		{"blank topic", map[string]string{"topic": "  "}, "topic='faith'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Handle(context.Background(), promptReq(tt.args))
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if text := promptText(t, res); !strings.Contains(text, tt.want) {
				t.Errorf("expected %q in: %s", tt.want, text)
			}
		})
	}
}

func TestProgressPrompt(t *testing.T) {
	p := NewProgressPrompt()

	res, err := p.Handle(context.Background(), promptReq(map[string]string{"context_id": "ctx-9"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(promptText(t, res), "bibly://plans/ctx-9") {
		t.Error("prompt should point at the plan resource")
	}

	if _, err := p.Handle(context.Background(), promptReq(nil)); err == nil {
		t.Error("expected error without context_id")
	}
}

func TestDefinitions(t *testing.T) {
	if got := NewStartPrompt(10).Definition().Name; got != "bibly-start" {
		t.Errorf("start name = %q", got)
	}
	if got := NewProgressPrompt().Definition().Name; got != "bibly-progress" {
		t.Errorf("progress name = %q", got)
	}
}
