package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// PartKind discriminates message parts.
type PartKind string

const (
	PartText PartKind = "text"
	PartData PartKind = "data"
	PartFile PartKind = "file"
)

// Part is one piece of a message. Only text parts are read by the agent.
type Part struct {
	Kind    PartKind        `json:"kind"`
	Text    string          `json:"text,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	FileURL string          `json:"file_url,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// Message is an A2A message.
type Message struct {
	Kind      string         `json:"kind"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewAgentMessage builds an agent-authored message with a single text part.
func NewAgentMessage(text string) Message {
	return Message{
		Kind:      "message",
		Role:      RoleAgent,
		Parts:     []Part{TextPart(text)},
		MessageID: uuid.NewString(),
	}
}

// NewUserMessage builds a user message with a single text part. userID,
// when set, is carried as metadata.user_id.
func NewUserMessage(text, contextID, userID string) Message {
	m := Message{
		Kind:      "message",
		Role:      RoleUser,
		Parts:     []Part{TextPart(text)},
		MessageID: uuid.NewString(),
		ContextID: contextID,
	}
	if userID != "" {
		m.Metadata = map[string]any{"user_id": userID}
	}
	return m
}

// normalize fills defaults for omitted fields and rejects unknown enum
// values.
func (m *Message) normalize() error {
	if m.Kind == "" {
		m.Kind = "message"
	}
	if m.Kind != "message" {
		return fmt.Errorf("kind must be \"message\", got %q", m.Kind)
	}
	switch m.Role {
	case "":
		m.Role = RoleUser
	case RoleUser, RoleAgent, RoleSystem:
	default:
		return fmt.Errorf("unknown role %q", m.Role)
	}
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	if m.Parts == nil {
		m.Parts = []Part{}
	}
	for i := range m.Parts {
		switch m.Parts[i].Kind {
		case "":
			m.Parts[i].Kind = PartText
		case PartText, PartData, PartFile:
		default:
			return fmt.Errorf("parts[%d]: unknown kind %q", i, m.Parts[i].Kind)
		}
	}
	return nil
}

// FirstText returns the trimmed text of the first non-empty text part.
func (m Message) FirstText() string {
	for _, p := range m.Parts {
		if p.Kind != PartText {
			continue
		}
		if t := strings.TrimSpace(p.Text); t != "" {
			return t
		}
	}
	return ""
}

// JoinedText concatenates every non-empty text part, trimmed and separated
// by single spaces.
func (m Message) JoinedText() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Kind != PartText {
			continue
		}
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}

// UserID returns metadata.user_id when present.
func (m Message) UserID() string {
	switch v := m.Metadata["user_id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

// Artifact is a named output attached to a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name"`
	Parts      []Part `json:"parts"`
}

// NewArtifact builds an artifact with a fresh identifier.
func NewArtifact(name string, parts ...Part) Artifact {
	if parts == nil {
		parts = []Part{}
	}
	return Artifact{ArtifactID: uuid.NewString(), Name: name, Parts: parts}
}

// TaskStatus is the state of a task at a point in time.
type TaskStatus struct {
	State     a2a.TaskState `json:"state"`
	Timestamp string        `json:"timestamp"`
	Message   *Message      `json:"message,omitempty"`
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// NewStatus stamps state with the current UTC time.
func NewStatus(state a2a.TaskState, msg *Message) TaskStatus {
	return TaskStatus{
		State:     state,
		Timestamp: timeNow().UTC().Format(timestampLayout),
		Message:   msg,
	}
}

// TaskResult is the result object of a successful JSON-RPC response.
type TaskResult struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history"`
	Kind      string     `json:"kind"`
}

// NewTaskResult builds a task. An empty taskID is replaced by a generated
// one. Nil slices are encoded as empty arrays.
func NewTaskResult(taskID, contextID string, status TaskStatus, artifacts []Artifact, history []Message) *TaskResult {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if artifacts == nil {
		artifacts = []Artifact{}
	}
	if history == nil {
		history = []Message{}
	}
	return &TaskResult{
		ID:        taskID,
		ContextID: contextID,
		Status:    status,
		Artifacts: artifacts,
		History:   history,
		Kind:      "task",
	}
}

// TrimHistory keeps the last n history entries. n <= 0 keeps everything.
func (t *TaskResult) TrimHistory(n int) {
	if n <= 0 || len(t.History) <= n {
		return
	}
	t.History = append([]Message(nil), t.History[len(t.History)-n:]...)
}

// Text returns the text of the status message, if any.
func (t *TaskResult) Text() string {
	if t.Status.Message == nil {
		return ""
	}
	return t.Status.Message.JoinedText()
}
