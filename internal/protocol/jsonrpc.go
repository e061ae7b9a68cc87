// Package protocol defines the JSON-RPC 2.0 envelope and the A2A message,
// task and artifact shapes the agent speaks.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the only accepted JSON-RPC version.
const Version = "2.0"

// Supported methods.
const (
	MethodMessageSend = "message/send"
	MethodExecute     = "execute"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeNoPlan         = -32000
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("jsonrpc %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message)
}

// Validation reports whether the error rejects the envelope itself, as
// opposed to a failure while serving a well-formed request.
func (e *Error) Validation() bool {
	switch e.Code {
	case CodeParseError, CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams:
		return true
	}
	return false
}

// ParseError reports a body that is not JSON.
func ParseError(detail string) *Error {
	return &Error{Code: CodeParseError, Message: "Parse error", Data: detail}
}

// InvalidRequest reports a malformed envelope.
func InvalidRequest(detail string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: "Invalid Request", Data: detail}
}

// MethodNotFound reports an unsupported method.
func MethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: method}
}

// NoMessages reports a batch request without messages.
func NoMessages() *Error {
	return &Error{Code: CodeInvalidParams, Message: "No messages provided"}
}

// InvalidParams reports params that decode but fail validation.
func InvalidParams(detail string) *Error {
	return &Error{Code: CodeInvalidParams, Message: "Invalid params", Data: detail}
}

// Internal reports an unexpected failure while serving a request.
func Internal(detail string) *Error {
	return &Error{Code: CodeInternal, Message: "Internal error", Data: detail}
}

// NoPlan is the domain error for continuing a conversation that never
// created a plan.
func NoPlan() *Error {
	return &Error{Code: CodeNoPlan, Message: "No existing plan found. Create a plan first."}
}

// Params is either *MessageParams or *BatchParams, selected by method.
type Params interface {
	isParams()
}

// MessageParams carries a single message (method message/send).
type MessageParams struct {
	Message       Message               `json:"message"`
	Configuration *MessageConfiguration `json:"configuration,omitempty"`
}

// BatchParams carries a sequence of messages (method execute).
type BatchParams struct {
	ContextID string    `json:"contextId,omitempty"`
	TaskID    string    `json:"taskId,omitempty"`
	Messages  []Message `json:"messages"`
}

func (*MessageParams) isParams() {}
func (*BatchParams) isParams()   {}

// MessageConfiguration is the optional delivery configuration of
// message/send. Only HistoryLength affects the response.
type MessageConfiguration struct {
	Blocking               *bool                   `json:"blocking,omitempty"`
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
	HistoryLength          *int                    `json:"historyLength,omitempty"`
}

// PushNotificationConfig is accepted for compatibility and never used.
type PushNotificationConfig struct {
	URL            string         `json:"url"`
	Token          string         `json:"token,omitempty"`
	Authentication map[string]any `json:"authentication,omitempty"`
}

// Request is a validated JSON-RPC request.
type Request struct {
	JSONRPC string
	// ID is the raw request identifier, echoed verbatim in the response.
	ID     json.RawMessage
	Method string
	Params Params
}

// Message returns the params of a message/send request, or nil.
func (r *Request) Message() *MessageParams {
	p, _ := r.Params.(*MessageParams)
	return p
}

// Batch returns the params of an execute request, or nil.
func (r *Request) Batch() *BatchParams {
	p, _ := r.Params.(*BatchParams)
	return p
}

type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Decode parses and validates a request body. On failure it still returns
// whatever identifier it could read so the error response can echo it.
func Decode(body []byte) (json.RawMessage, *Request, *Error) {
	if !json.Valid(body) {
		return nil, nil, ParseError("request body is not valid JSON")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, InvalidRequest("request must be a JSON object")
	}
	id := env.ID
	if !validID(id) {
		id = nil
	}

	if env.JSONRPC != Version {
		return id, nil, InvalidRequest(`jsonrpc must be "2.0"`)
	}
	if id == nil {
		return nil, nil, InvalidRequest("id must be a non-empty string or a number")
	}

	req := &Request{JSONRPC: env.JSONRPC, ID: id, Method: env.Method}
	switch env.Method {
	case MethodMessageSend:
		p, rpcErr := decodeMessageParams(env.Params)
		if rpcErr != nil {
			return id, nil, rpcErr
		}
		req.Params = p
	case MethodExecute:
		p, rpcErr := decodeBatchParams(env.Params)
		if rpcErr != nil {
			return id, nil, rpcErr
		}
		req.Params = p
	case "":
		return id, nil, InvalidRequest("method is required")
	default:
		return id, nil, MethodNotFound(env.Method)
	}
	return id, req, nil
}

func validID(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case '"':
		var s string
		return json.Unmarshal(raw, &s) == nil && s != ""
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		return json.Unmarshal(raw, &n) == nil
	}
	return false
}

func decodeMessageParams(raw json.RawMessage) (*MessageParams, *Error) {
	var shape struct {
		Message json.RawMessage `json:"message"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &shape) != nil {
		return nil, InvalidRequest("params must be an object")
	}
	if isNull(shape.Message) {
		return nil, InvalidRequest("params.message is required")
	}

	var p MessageParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, InvalidRequest(fmt.Sprintf("params: %v", err))
	}
	if err := p.Message.normalize(); err != nil {
		return nil, InvalidRequest(fmt.Sprintf("params.message: %v", err))
	}
	if c := p.Configuration; c != nil {
		if c.HistoryLength != nil && *c.HistoryLength < 0 {
			return nil, InvalidParams("configuration.historyLength must not be negative")
		}
		if c.PushNotificationConfig != nil && c.PushNotificationConfig.URL == "" {
			return nil, InvalidRequest("configuration.pushNotificationConfig.url is required")
		}
	}
	return &p, nil
}

func decodeBatchParams(raw json.RawMessage) (*BatchParams, *Error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, NoMessages()
	}
	var p BatchParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, InvalidRequest(fmt.Sprintf("params: %v", err))
	}
	if len(p.Messages) == 0 {
		return nil, NoMessages()
	}
	for i := range p.Messages {
		if err := p.Messages[i].normalize(); err != nil {
			return nil, InvalidRequest(fmt.Sprintf("params.messages[%d]: %v", i, err))
		}
	}
	return &p, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *TaskResult     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Success wraps a result. A nil id is encoded as null.
func Success(id json.RawMessage, result *TaskResult) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// Failure wraps an error. A nil id is encoded as null.
func Failure(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: err}
}
