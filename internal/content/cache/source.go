package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/HendryAvila/bibly/internal/content"
)

// DefaultFetchTimeout bounds a shared upstream call.
const DefaultFetchTimeout = 15 * time.Second

// Source serves topics from the Store and falls through to an upstream
// Source on a miss. Concurrent misses for the same topic share one
// upstream call. Cache errors are logged and never fail a fetch.
type Source struct {
	store    *Store
	upstream content.Source
	group    singleflight.Group
	timeout  time.Duration
	log      *slog.Logger
}

// SourceOption customises a Source.
type SourceOption func(*Source)

// WithFetchTimeout bounds each shared upstream call. Non-positive values
// keep DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSource creates a caching Source. A nil logger discards output.
func NewSource(store *Store, upstream content.Source, log *slog.Logger, opts ...SourceOption) *Source {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Source{store: store, upstream: upstream, timeout: DefaultFetchTimeout, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements content.Source.
func (s *Source) Fetch(ctx context.Context, topic string) ([]content.Item, error) {
	items, ok, err := s.store.Get(topic)
	if err != nil {
		s.log.Warn("cache read failed", "topic", topic, "error", err)
	}
	if ok {
		s.log.Debug("cache hit", "topic", topic, "items", len(items))
		return items, nil
	}

	// The call is shared by every caller that joins the flight, so it must
	// not inherit the first caller's cancellation. Each caller still stops
	// waiting on its own ctx below.
	ch := s.group.DoChan(Key(topic), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		fetched, err := s.upstream.Fetch(fetchCtx, topic)
		if err != nil {
			return nil, err
		}
		// Empty results are not cached so the next request retries upstream.
		if len(fetched) > 0 {
			if err := s.store.Put(topic, fetched); err != nil {
				s.log.Warn("cache write failed", "topic", topic, "error", err)
			}
		}
		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		items, _ := res.Val.([]content.Item)
		return items, nil
	}
}
