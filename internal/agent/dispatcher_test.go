package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/bibly/internal/content"
	"github.com/HendryAvila/bibly/internal/intent"
	"github.com/HendryAvila/bibly/internal/plan"
	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/reading"
	"github.com/HendryAvila/bibly/internal/render"
)

var dayLineRe = regexp.MustCompile(`📖 Day (\d+): `)

type fakeSource struct {
	items int
	calls atomic.Int32
	topic atomic.Value
}

func (f *fakeSource) Fetch(ctx context.Context, topic string) ([]content.Item, error) {
	f.calls.Add(1)
	f.topic.Store(topic)
	items := make([]content.Item, f.items)
	for i := range items {
		items[i] = content.Item{Reference: fmt.Sprintf("Ref %d", i+1), Text: "text"}
	}
	return items, nil
}

func newDispatcher(t *testing.T, items int, opts ...Option) (*Dispatcher, *fakeSource) {
	t.Helper()
	src := &fakeSource{items: items}
	svc := reading.New(plan.NewStore(), src, reading.Options{})
	return New(intent.New(intent.DefaultMaxDays), svc, opts...), src
}

func send(text, contextID string, metadata map[string]any) string {
	msg := map[string]any{
		"kind":  "message",
		"role":  "user",
		"parts": []map[string]any{{"kind": "text", "text": text}},
	}
	if contextID != "" {
		msg["contextId"] = contextID
	}
	if metadata != nil {
		msg["metadata"] = metadata
	}
	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "req-1",
		"method":  "message/send",
		"params":  map[string]any{"message": msg},
	})
	return string(body)
}

func handle(t *testing.T, d *Dispatcher, body string) *protocol.Response {
	t.Helper()
	resp := d.Handle(context.Background(), []byte(body))
	require.NotNil(t, resp)
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func TestDispatch_CreatePlan(t *testing.T) {
	d, src := newDispatcher(t, 10)

	resp := handle(t, d, send("Create a 7-day plan about faith", "ctx-1", nil))
	require.Nil(t, resp.Error)
	res := resp.Result
	require.NotNil(t, res)

	assert.JSONEq(t, `"req-1"`, string(resp.ID))
	assert.Equal(t, "faith", src.topic.Load())
	assert.Equal(t, "ctx-1", res.ContextID)
	assert.Equal(t, "task", res.Kind)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, a2a.TaskStateCompleted, res.Status.State)
	assert.Len(t, res.Artifacts, 7)

	text := res.Text()
	matches := dayLineRe.FindAllStringSubmatch(text, -1)
	require.Len(t, matches, 7)
	for i, m := range matches {
		assert.Equal(t, fmt.Sprint(i+1), m[1])
	}

	require.Len(t, res.History, 2)
	assert.Equal(t, protocol.RoleUser, res.History[0].Role)
	assert.Equal(t, protocol.RoleAgent, res.History[1].Role)
	assert.Equal(t, res.Status.Message.MessageID, res.History[1].MessageID)
}

func TestDispatch_ContinueByContextID(t *testing.T) {
	d, _ := newDispatcher(t, 8)
	handle(t, d, send("5 days about hope", "ctx-h", nil))

	resp := handle(t, d, send("next 5 days", "ctx-h", nil))
	require.Nil(t, resp.Error)
	text := resp.Result.Text()
	assert.Contains(t, text, "Next 3 Days for Hope")
	assert.Contains(t, text, "📖 Day 6: ")
	assert.Contains(t, text, "📖 Day 8: ")
	assert.Len(t, resp.Result.Artifacts, 3)

	resp = handle(t, d, send("next 2 days", "ctx-h", nil))
	require.Nil(t, resp.Error)
	assert.Empty(t, dayLineRe.FindAllString(resp.Result.Text(), -1))
	assert.Contains(t, resp.Result.Text(), "Hope")
	assert.Empty(t, resp.Result.Artifacts)
}

func TestDispatch_ContinueByUserID(t *testing.T) {
	d, _ := newDispatcher(t, 8)
	meta := map[string]any{"user_id": "u-7"}

	created := handle(t, d, send("3 days on peace", "", meta))
	require.Nil(t, created.Error)
	ctxID := created.Result.ContextID
	require.NotEmpty(t, ctxID)

	resp := handle(t, d, send("next 2 days", "", meta))
	require.Nil(t, resp.Error)
	assert.Equal(t, ctxID, resp.Result.ContextID)
	assert.Contains(t, resp.Result.Text(), "📖 Day 4: ")

	// Another user has no plan.
	resp = handle(t, d, send("next 2 days", "", map[string]any{"user_id": "u-8"}))
	require.Nil(t, resp.Error)
	assert.Equal(t, render.NoPlanText, resp.Result.Text())
}

func TestDispatch_NoPlanStyles(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		d, src := newDispatcher(t, 3)
		resp := handle(t, d, send("next 3 days", "unknown", nil))
		require.Nil(t, resp.Error)
		assert.Equal(t, a2a.TaskStateCompleted, resp.Result.Status.State)
		assert.Equal(t, render.NoPlanText, resp.Result.Text())
		assert.Empty(t, resp.Result.Artifacts)
		assert.Zero(t, src.calls.Load())
	})

	t.Run("error", func(t *testing.T) {
		d, _ := newDispatcher(t, 3, WithNoPlanStyle(NoPlanError))
		resp := handle(t, d, send("next 3 days", "unknown", nil))
		require.NotNil(t, resp.Error)
		assert.Nil(t, resp.Result)
		assert.Equal(t, protocol.CodeNoPlan, resp.Error.Code)
		assert.Equal(t, "No existing plan found. Create a plan first.", resp.Error.Message)
	})
}

func TestDispatch_EmptyTextUsesDefaultTopic(t *testing.T) {
	d, src := newDispatcher(t, 10)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":"1","method":"message/send",
		"params":{"message":{"parts":[{"kind":"data","data":{"a":1}}]}}}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, intent.DefaultTopic, src.topic.Load())
	assert.Len(t, dayLineRe.FindAllString(resp.Result.Text(), -1), intent.DefaultDays)
}

func TestDispatch_ClampsDays(t *testing.T) {
	d, _ := newDispatcher(t, 30)

	resp := handle(t, d, send("25 days about grace", "", nil))
	require.Nil(t, resp.Error)
	assert.Len(t, dayLineRe.FindAllString(resp.Result.Text(), -1), intent.DefaultMaxDays)
}

func TestDispatch_Execute(t *testing.T) {
	d, src := newDispatcher(t, 10)

	body := `{"jsonrpc":"2.0","id":"b-1","method":"execute","params":{
		"contextId":"ctx-b","taskId":"task-b",
		"messages":[
			{"parts":[{"kind":"text","text":"hello"}]},
			{"parts":[{"kind":"text","text":"4 days"},{"kind":"text","text":"about mercy"}]}
		]}}`
	resp := handle(t, d, body)
	require.Nil(t, resp.Error)

	res := resp.Result
	assert.Equal(t, "mercy", src.topic.Load())
	assert.Equal(t, "ctx-b", res.ContextID)
	assert.Equal(t, "task-b", res.ID)
	assert.Len(t, res.History, 3)
	assert.Len(t, dayLineRe.FindAllString(res.Text(), -1), 4)
}

func TestDispatch_HistoryLength(t *testing.T) {
	d, _ := newDispatcher(t, 5)

	body := `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{
		"message":{"parts":[{"kind":"text","text":"love"}]},
		"configuration":{"historyLength":1}}}`
	resp := handle(t, d, body)
	require.Nil(t, resp.Error)
	require.Len(t, resp.Result.History, 1)
	assert.Equal(t, protocol.RoleAgent, resp.Result.History[0].Role)
}

func TestDispatch_ValidationErrors(t *testing.T) {
	d, _ := newDispatcher(t, 3)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing jsonrpc", `{"id":"1","method":"message/send","params":{"message":{}}}`, protocol.CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":"1","method":"tasks/cancel"}`, protocol.CodeMethodNotFound},
		{"execute without messages", `{"jsonrpc":"2.0","id":"1","method":"execute","params":{"messages":[]}}`, protocol.CodeInvalidParams},
		{"garbage", `nope`, protocol.CodeParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, d, tt.body)
			require.NotNil(t, resp.Error)
			assert.Nil(t, resp.Result)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

type panicSource struct{}

func (panicSource) Fetch(ctx context.Context, topic string) ([]content.Item, error) {
	panic("boom")
}

func TestDispatch_RecoversFromPanic(t *testing.T) {
	svc := reading.New(plan.NewStore(), panicSource{}, reading.Options{})
	d := New(intent.New(0), svc)

	resp := handle(t, d, send("faith", "", nil))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInternal, resp.Error.Code)
	assert.JSONEq(t, `"req-1"`, string(resp.ID))
}

func TestDispatch_CanceledContext(t *testing.T) {
	d, _ := newDispatcher(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := d.Handle(ctx, []byte(send("faith", "c", nil)))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.CodeInternal, resp.Error.Code)
	assert.True(t, strings.Contains(fmt.Sprint(resp.Error.Data), "cancelled"))
}

func TestSend(t *testing.T) {
	d, _ := newDispatcher(t, 4)

	resp := d.Send(context.Background(), protocol.NewUserMessage("2 days about rest", "ctx-s", ""))
	require.Nil(t, resp.Error)
	assert.Equal(t, "ctx-s", resp.Result.ContextID)
	assert.NotEmpty(t, resp.ID)
}

func TestNoPlanStyle_Valid(t *testing.T) {
	assert.True(t, NoPlanCompleted.Valid())
	assert.True(t, NoPlanError.Valid())
	assert.False(t, NoPlanStyle("loud").Valid())
}
