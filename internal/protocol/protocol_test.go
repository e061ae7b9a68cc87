package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_MessageSend(t *testing.T) {
	body := `{
		"jsonrpc": "2.0",
		"id": "req-1",
		"method": "message/send",
		"params": {
			"message": {
				"parts": [{"kind": "data", "data": [1,2]}, {"text": "  7 days about hope  "}],
				"metadata": {"user_id": "u-1"}
			},
			"configuration": {"blocking": true, "historyLength": 1}
		}
	}`

	id, req, rpcErr := Decode([]byte(body))
	require.Nil(t, rpcErr)
	assert.JSONEq(t, `"req-1"`, string(id))

	p := req.Message()
	require.NotNil(t, p)
	assert.Nil(t, req.Batch())
	assert.Equal(t, "message", p.Message.Kind)
	assert.Equal(t, RoleUser, p.Message.Role)
	assert.NotEmpty(t, p.Message.MessageID)
	assert.Equal(t, PartText, p.Message.Parts[1].Kind)
	assert.Equal(t, "7 days about hope", p.Message.FirstText())
	assert.Equal(t, "u-1", p.Message.UserID())
	require.NotNil(t, p.Configuration.HistoryLength)
	assert.Equal(t, 1, *p.Configuration.HistoryLength)
}

func TestDecode_Execute(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":7,"method":"execute","params":{
		"contextId":"ctx","taskId":"task",
		"messages":[{"parts":[{"kind":"text","text":"ignored"}]},
		            {"parts":[{"kind":"text","text":"3 days"},{"kind":"text","text":" on peace "}]}]}}`

	id, req, rpcErr := Decode([]byte(body))
	require.Nil(t, rpcErr)
	assert.Equal(t, "7", string(id))

	b := req.Batch()
	require.NotNil(t, b)
	assert.Equal(t, "ctx", b.ContextID)
	assert.Equal(t, "task", b.TaskID)
	require.Len(t, b.Messages, 2)
	assert.Equal(t, "3 days on peace", b.Messages[1].JoinedText())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		code   int
		wantID string
	}{
		{"not json", `{"jsonrpc":`, CodeParseError, ""},
		{"not an object", `[1,2]`, CodeInvalidRequest, ""},
		{"missing jsonrpc", `{"id":"1","method":"message/send","params":{"message":{}}}`, CodeInvalidRequest, `"1"`},
		{"wrong version", `{"jsonrpc":"1.0","id":"1","method":"message/send"}`, CodeInvalidRequest, `"1"`},
		{"missing id", `{"jsonrpc":"2.0","method":"message/send","params":{"message":{}}}`, CodeInvalidRequest, ""},
		{"empty id", `{"jsonrpc":"2.0","id":"","method":"message/send"}`, CodeInvalidRequest, ""},
		{"object id", `{"jsonrpc":"2.0","id":{},"method":"message/send"}`, CodeInvalidRequest, ""},
		{"missing method", `{"jsonrpc":"2.0","id":"1"}`, CodeInvalidRequest, `"1"`},
		{"unknown method", `{"jsonrpc":"2.0","id":"1","method":"tasks/get"}`, CodeMethodNotFound, `"1"`},
		{"send without message", `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{}}`, CodeInvalidRequest, `"1"`},
		{"send without params", `{"jsonrpc":"2.0","id":"1","method":"message/send"}`, CodeInvalidRequest, `"1"`},
		{"unknown part kind", `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{"message":{"parts":[{"kind":"audio"}]}}}`, CodeInvalidRequest, `"1"`},
		{"unknown role", `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{"message":{"role":"robot"}}}`, CodeInvalidRequest, `"1"`},
		{"negative history", `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{"message":{},"configuration":{"historyLength":-1}}}`, CodeInvalidParams, `"1"`},
		{"push config without url", `{"jsonrpc":"2.0","id":"1","method":"message/send","params":{"message":{},"configuration":{"pushNotificationConfig":{}}}}`, CodeInvalidRequest, `"1"`},
		{"execute without params", `{"jsonrpc":"2.0","id":"1","method":"execute"}`, CodeInvalidParams, `"1"`},
		{"execute empty messages", `{"jsonrpc":"2.0","id":"1","method":"execute","params":{"messages":[]}}`, CodeInvalidParams, `"1"`},
		{"execute bad messages", `{"jsonrpc":"2.0","id":"1","method":"execute","params":{"messages":"hi"}}`, CodeInvalidRequest, `"1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, req, rpcErr := Decode([]byte(tt.body))
			require.NotNil(t, rpcErr)
			assert.Nil(t, req)
			assert.Equal(t, tt.code, rpcErr.Code)
			assert.True(t, rpcErr.Validation())
			assert.Equal(t, tt.wantID, string(id))
		})
	}
}

func TestResponse_Encoding(t *testing.T) {
	out, err := json.Marshal(Failure(nil, InvalidRequest("bad")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32600,"message":"Invalid Request","data":"bad"}}`, string(out))

	res := NewTaskResult("", "ctx", NewStatus(a2a.TaskStateCompleted, nil), nil, nil)
	out, err = json.Marshal(Success(json.RawMessage(`"9"`), res))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	result := decoded["result"].(map[string]any)
	assert.Equal(t, "task", result["kind"])
	assert.Equal(t, "ctx", result["contextId"])
	assert.NotEmpty(t, result["id"])
	assert.Equal(t, []any{}, result["artifacts"])
	assert.Equal(t, []any{}, result["history"])
	assert.Equal(t, "completed", result["status"].(map[string]any)["state"])
	assert.NotContains(t, decoded, "error")
}

func TestError_Validation(t *testing.T) {
	assert.False(t, Internal("x").Validation())
	assert.False(t, NoPlan().Validation())
	assert.True(t, NoMessages().Validation())
	assert.Equal(t, CodeNoPlan, NoPlan().Code)
	assert.Contains(t, MethodNotFound("x").Error(), "-32601")
}

func TestNewStatus_Timestamp(t *testing.T) {
	orig := timeNow
	t.Cleanup(func() { timeNow = orig })
	timeNow = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 123456000, time.FixedZone("x", 3600)) }

	st := NewStatus(a2a.TaskStateFailed, nil)
	assert.Equal(t, "2026-03-01T08:30:00.123456Z", st.Timestamp)
	assert.Equal(t, a2a.TaskStateFailed, st.State)
}

func TestTrimHistory(t *testing.T) {
	res := NewTaskResult("t", "c", TaskStatus{}, nil, []Message{
		NewAgentMessage("a"), NewAgentMessage("b"), NewAgentMessage("c"),
	})

	res.TrimHistory(0)
	assert.Len(t, res.History, 3)

	res.TrimHistory(2)
	require.Len(t, res.History, 2)
	assert.Equal(t, "b", res.History[0].FirstText())
	assert.Equal(t, "c", res.History[1].FirstText())
}

func TestMessage_UserID(t *testing.T) {
	assert.Equal(t, "", Message{}.UserID())
	assert.Equal(t, "42", Message{Metadata: map[string]any{"user_id": float64(42)}}.UserID())
	assert.Equal(t, "", Message{Metadata: map[string]any{"user_id": true}}.UserID())
}

func TestMetadataAndCard(t *testing.T) {
	id := Identity{Name: "Bibly", Version: "1.0.0", URL: "http://localhost:8000/a2a/scripture"}

	md := NewMetadata(id)
	assert.Equal(t, "2.0", md.SchemaVersion)
	assert.Equal(t, "a2a", md.Type)
	assert.Equal(t, "string", md.Inputs["input_text"].Type)

	card := AgentCard(id)
	assert.Equal(t, "Bibly", card.Name)
	assert.Equal(t, id.URL, card.URL)
	assert.Equal(t, a2a.TransportProtocolJSONRPC, card.PreferredTransport)
	assert.Len(t, card.Skills, 2)
}
