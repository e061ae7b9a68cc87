// Package reading runs the create and continue paths of a reading plan:
// fetch content, fill in the fallback, paginate, and render the reply.
package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HendryAvila/bibly/internal/content"
	"github.com/HendryAvila/bibly/internal/intent"
	"github.com/HendryAvila/bibly/internal/plan"
	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/render"
)

// DefaultFetchTimeout bounds the wait for content on the create path.
const DefaultFetchTimeout = 15 * time.Second

var (
	// ErrNoPlan is returned when continuing a conversation without a plan.
	ErrNoPlan = errors.New("no existing plan")
	// ErrCanceled is returned when the caller gave up while the request
	// was waiting. Nothing is committed in that case.
	ErrCanceled = errors.New("request cancelled or timed out")
	// ErrEmptyTopic is returned by CreatePlan for a blank topic.
	ErrEmptyTopic = errors.New("topic is required")
)

// Result is the outcome of one create or continue request.
type Result struct {
	ConversationID string
	Topic          string
	Text           string
	Artifacts      []protocol.Artifact
	Window         plan.Window
	Exhausted      bool
	// Fallback is set when the upstream had nothing and the built-in item
	// was used instead.
	Fallback bool
}

// Summary is a read-only view of a stored plan.
type Summary struct {
	ConversationID string    `json:"contextId"`
	Topic          string    `json:"topic"`
	Cursor         int       `json:"cursor"`
	TotalDelivered int       `json:"totalDelivered"`
	ItemCount      int       `json:"itemCount"`
	Remaining      int       `json:"remaining"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Options tunes a Service.
type Options struct {
	// FetchTimeout bounds the content fetch. Zero means DefaultFetchTimeout.
	FetchTimeout time.Duration
	// MaxDays clamps day counts. Zero means intent.DefaultMaxDays.
	MaxDays int
	Logger  *slog.Logger
}

// Service owns the plan lifecycle. It is safe for concurrent use.
type Service struct {
	store        *plan.Store
	source       content.Source
	fetchTimeout time.Duration
	maxDays      int
	log          *slog.Logger
}

// New creates a Service. Source failures are logged and treated as "no
// content"; they never reach callers.
func New(store *plan.Store, source content.Source, opts Options) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = intent.DefaultMaxDays
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:        store,
		source:       content.NewGuard(source, opts.Logger),
		fetchTimeout: opts.FetchTimeout,
		maxDays:      opts.MaxDays,
		log:          opts.Logger,
	}
}

// MaxDays returns the day cap.
func (s *Service) MaxDays() int { return s.maxDays }

// CreatePlan fetches content for topic and stores a new plan under
// conversationID (generated when empty), replacing any existing one.
//
// The per-conversation lock is held across the fetch so a continue racing
// with a create sees either the old plan or the new one.
func (s *Service) CreatePlan(ctx context.Context, conversationID, topic string, days int) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	days = s.clamp(days)

	id := s.store.Reserve(conversationID)
	release, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
	}
	defer release()

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	started := time.Now()
	items, _ := s.source.Fetch(fetchCtx, topic)
	cancel()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	fallback := len(items) == 0
	if fallback {
		s.log.Info("no content for topic, using fallback", "topic", topic)
		items = []content.Item{content.Fallback()}
	}

	id, w := s.store.Create(id, topic, items, 0, days)
	text, artifacts := render.Render(topic, w, render.Create)

	s.log.Info("plan created",
		"context_id", id,
		"topic", topic,
		"days", days,
		"items", len(items),
		"fetch_ms", time.Since(started).Milliseconds(),
	)
	return &Result{
		ConversationID: id,
		Topic:          topic,
		Text:           text,
		Artifacts:      artifacts,
		Window:         w,
		Fallback:       fallback,
	}, nil
}

// ContinuePlan delivers the next days of the plan stored under
// conversationID. It never creates a plan; an unknown or empty id yields
// ErrNoPlan.
func (s *Service) ContinuePlan(ctx context.Context, conversationID string, days int) (*Result, error) {
	if conversationID == "" {
		return nil, ErrNoPlan
	}
	days = s.clamp(days)

	p, w, exhausted, err := s.store.Continue(ctx, conversationID, days)
	if errors.Is(err, plan.ErrNotFound) {
		return nil, ErrNoPlan
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCanceled, err)
	}

	mode := render.Continue
	if exhausted {
		mode = render.Exhausted
	}
	text, artifacts := render.Render(p.Topic, w, mode)

	s.log.Info("plan continued",
		"context_id", conversationID,
		"topic", p.Topic,
		"days", days,
		"delivered", w.Real(),
		"exhausted", exhausted,
	)
	return &Result{
		ConversationID: conversationID,
		Topic:          p.Topic,
		Text:           text,
		Artifacts:      artifacts,
		Window:         w,
		Exhausted:      exhausted,
	}, nil
}

// ClearPlan removes the plan for conversationID. It reports whether a plan
// existed; clearing an unknown id is not an error.
func (s *Service) ClearPlan(conversationID string) bool {
	existed := s.store.Clear(conversationID)
	if existed {
		s.log.Info("plan cleared", "context_id", conversationID)
	}
	return existed
}

// Inspect returns a summary of the plan for conversationID without
// changing it.
func (s *Service) Inspect(conversationID string) (Summary, bool) {
	p, ok := s.store.Get(conversationID)
	if !ok {
		return Summary{}, false
	}
	return Summary{
		ConversationID: conversationID,
		Topic:          p.Topic,
		Cursor:         p.Cursor,
		TotalDelivered: p.TotalDelivered,
		ItemCount:      len(p.Items),
		Remaining:      p.Remaining(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}, true
}

// Plans returns the number of stored plans.
func (s *Service) Plans() int { return s.store.Len() }

func (s *Service) clamp(days int) int {
	if days < 1 {
		return 1
	}
	if days > s.maxDays {
		return s.maxDays
	}
	return days
}
