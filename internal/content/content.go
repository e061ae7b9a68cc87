// Package content defines the units of reading material a plan is built
// from and the Source abstraction that produces them.
//
// Sources are external collaborators: an HTTP search API, a cache in
// front of it, or a fake in tests. The core never sees transport errors;
// Guard translates every failure into an empty result.
package content

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Item is one unit of content, typically a single verse or passage.
// Items are immutable once fetched.
type Item struct {
	// Reference is a short label, e.g. "John 3:16".
	Reference string `json:"reference"`
	// Text is the body shown to the reader.
	Text string `json:"text"`
	// RawSource keeps the upstream payload for diagnostics.
	RawSource json.RawMessage `json:"raw_source,omitempty"`
}

// Label renders the item the way artifacts carry it: "<reference>: <text>".
func (i Item) Label() string {
	return i.Reference + ": " + i.Text
}

// Source fetches the ordered items for a topic.
// Implementations may return an empty slice when nothing matches.
type Source interface {
	Fetch(ctx context.Context, topic string) ([]Item, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, topic string) ([]Item, error)

// Fetch calls f(ctx, topic).
func (f SourceFunc) Fetch(ctx context.Context, topic string) ([]Item, error) {
	return f(ctx, topic)
}

// Fallback is served when the upstream has nothing for a topic or fails.
func Fallback() Item {
	return Item{
		Reference: "1 Corinthians 13:4-7",
		Text:      "Love is patient, love is kind; it does not envy or boast.",
	}
}

// Guard wraps a Source so that failures surface as an empty slice and a
// log line instead of an error. It never returns a non-nil error.
type Guard struct {
	src Source
	log *slog.Logger
}

// NewGuard creates a Guard around src. A nil logger discards output.
func NewGuard(src Source, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Guard{src: src, log: log}
}

// Fetch implements Source.
func (g *Guard) Fetch(ctx context.Context, topic string) ([]Item, error) {
	items, err := g.src.Fetch(ctx, topic)
	if err != nil {
		g.log.Warn("content fetch failed", "topic", topic, "error", err)
		return nil, nil
	}
	return items, nil
}
