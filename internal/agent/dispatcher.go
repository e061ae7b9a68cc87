// Package agent implements the request state machine of the reading-plan
// agent: validate the envelope, route the text through the intent parser,
// resolve it against the plan service, and assemble the task result.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"

	"github.com/HendryAvila/bibly/internal/intent"
	"github.com/HendryAvila/bibly/internal/logging"
	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/reading"
	"github.com/HendryAvila/bibly/internal/render"
)

// NoPlanStyle selects how continuing without a plan is reported.
type NoPlanStyle string

const (
	// NoPlanCompleted answers with a completed task explaining what to do.
	NoPlanCompleted NoPlanStyle = "completed"
	// NoPlanError answers with the -32000 JSON-RPC error.
	NoPlanError NoPlanStyle = "error"
)

// Valid reports whether s is a known style.
func (s NoPlanStyle) Valid() bool {
	return s == NoPlanCompleted || s == NoPlanError
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithNoPlanStyle sets the no-plan reporting style.
func WithNoPlanStyle(s NoPlanStyle) Option {
	return func(d *Dispatcher) {
		if s.Valid() {
			d.noPlan = s
		}
	}
}

// Dispatcher serves decoded JSON-RPC requests. It is safe for concurrent
// use and never panics out of Handle or Dispatch.
type Dispatcher struct {
	parser *intent.Parser
	svc    *reading.Service
	users  *userContexts
	noPlan NoPlanStyle
	log    *slog.Logger
}

// New creates a Dispatcher.
func New(parser *intent.Parser, svc *reading.Service, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		parser: parser,
		svc:    svc,
		users:  newUserContexts(),
		noPlan: NoPlanCompleted,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle decodes body and dispatches it.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) *protocol.Response {
	id, req, rpcErr := protocol.Decode(body)
	if rpcErr != nil {
		logging.FromContext(ctx, d.log).Warn("rejected request",
			"rpc_id", string(id), "code", rpcErr.Code, "detail", rpcErr.Data)
		return protocol.Failure(id, rpcErr)
	}
	return d.Dispatch(ctx, req)
}

// inbound is the routed view of a request.
type inbound struct {
	text          string
	contextID     string
	taskID        string
	userID        string
	messages      []protocol.Message
	historyLength int
}

// Dispatch serves a validated request.
func (d *Dispatcher) Dispatch(ctx context.Context, req *protocol.Request) (resp *protocol.Response) {
	log := logging.FromContext(ctx, d.log).With("rpc_id", string(req.ID), "method", req.Method)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while serving request", "panic", r, "stack", string(debug.Stack()))
			resp = protocol.Failure(req.ID, protocol.Internal("unexpected error"))
		}
	}()

	in, rpcErr := route(req)
	if rpcErr != nil {
		return protocol.Failure(req.ID, rpcErr)
	}
	if in.text == "" {
		in.text = d.parser.DefaultTopic()
	}

	cmd := d.parser.Parse(in.text)
	log = log.With("intent", fmt.Sprintf("%T", cmd), "days", cmd.Days())

	var (
		res *reading.Result
		err error
	)
	switch c := cmd.(type) {
	case intent.ContinuePlan:
		c.ConversationID = d.resolve(in)
		in.contextID = c.ConversationID
		res, err = d.svc.ContinuePlan(ctx, c.ConversationID, c.NumDays)
	case intent.CreatePlan:
		res, err = d.svc.CreatePlan(ctx, in.contextID, c.Topic, c.NumDays)
		if err == nil {
			d.users.set(in.userID, res.ConversationID)
		}
	default:
		err = fmt.Errorf("unhandled command %T", cmd)
	}

	switch {
	case errors.Is(err, reading.ErrNoPlan):
		log.Info("continue without plan", "context_id", in.contextID)
		if d.noPlan == NoPlanError {
			return protocol.Failure(req.ID, protocol.NoPlan())
		}
		return protocol.Success(req.ID, d.result(in, render.NoPlanText, nil))
	case errors.Is(err, reading.ErrCanceled):
		log.Warn("request abandoned", "error", err)
		return protocol.Failure(req.ID, protocol.Internal(reading.ErrCanceled.Error()))
	case err != nil:
		log.Error("request failed", "error", err)
		return protocol.Failure(req.ID, protocol.Internal("unexpected error"))
	}

	in.contextID = res.ConversationID
	log.Debug("request served", "context_id", in.contextID, "days_delivered", res.Window.Real())
	return protocol.Success(req.ID, d.result(in, res.Text, res.Artifacts))
}

// route extracts the text, identifiers and inbound messages.
func route(req *protocol.Request) (inbound, *protocol.Error) {
	switch req.Method {
	case protocol.MethodMessageSend:
		p := req.Message()
		if p == nil {
			return inbound{}, protocol.InvalidRequest("params.message is required")
		}
		in := inbound{
			text:      p.Message.FirstText(),
			contextID: p.Message.ContextID,
			taskID:    p.Message.TaskID,
			userID:    p.Message.UserID(),
			messages:  []protocol.Message{p.Message},
		}
		if c := p.Configuration; c != nil && c.HistoryLength != nil {
			in.historyLength = *c.HistoryLength
		}
		return in, nil

	case protocol.MethodExecute:
		b := req.Batch()
		if b == nil || len(b.Messages) == 0 {
			return inbound{}, protocol.NoMessages()
		}
		last := b.Messages[len(b.Messages)-1]
		in := inbound{
			text:      last.JoinedText(),
			contextID: b.ContextID,
			taskID:    b.TaskID,
			userID:    last.UserID(),
			messages:  b.Messages,
		}
		if in.contextID == "" {
			in.contextID = last.ContextID
		}
		if in.taskID == "" {
			in.taskID = last.TaskID
		}
		return in, nil
	}
	return inbound{}, protocol.MethodNotFound(req.Method)
}

// resolve picks the conversation a continue refers to: the explicit
// context id, else the last plan created for the user.
func (d *Dispatcher) resolve(in inbound) string {
	if in.contextID != "" {
		return in.contextID
	}
	return d.users.get(in.userID)
}

func (d *Dispatcher) result(in inbound, text string, artifacts []protocol.Artifact) *protocol.TaskResult {
	taskID := in.taskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	reply := protocol.NewAgentMessage(text)
	reply.ContextID = in.contextID
	reply.TaskID = taskID

	history := make([]protocol.Message, 0, len(in.messages)+1)
	history = append(history, in.messages...)
	history = append(history, reply)

	res := protocol.NewTaskResult(taskID, in.contextID,
		protocol.NewStatus(a2a.TaskStateCompleted, &reply), artifacts, history)
	res.TrimHistory(in.historyLength)
	return res
}

// Send runs a single user message through the pipeline. It is the entry
// point for transports that do not speak JSON-RPC themselves.
func (d *Dispatcher) Send(ctx context.Context, msg protocol.Message) *protocol.Response {
	id, _ := json.Marshal(uuid.NewString())
	return d.Dispatch(ctx, &protocol.Request{
		JSONRPC: protocol.Version,
		ID:      id,
		Method:  protocol.MethodMessageSend,
		Params:  &protocol.MessageParams{Message: msg},
	})
}

// userContexts remembers the last conversation created per user.
type userContexts struct {
	mu sync.RWMutex
	m  map[string]string
}

func newUserContexts() *userContexts {
	return &userContexts{m: make(map[string]string)}
}

func (u *userContexts) get(userID string) string {
	if userID == "" {
		return ""
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.m[userID]
}

func (u *userContexts) set(userID, contextID string) {
	if userID == "" || contextID == "" {
		return
	}
	u.mu.Lock()
	u.m[userID] = contextID
	u.mu.Unlock()
}
