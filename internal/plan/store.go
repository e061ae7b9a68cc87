package plan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/bibly/internal/content"
)

// ErrNotFound is returned when no plan exists for a conversation.
var ErrNotFound = errors.New("plan not found")

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// newID generates conversation identifiers. Replaced in tests.
var newID = func() string { return uuid.NewString() }

// Store is the process-wide, in-memory plan registry.
//
// The map itself is guarded by a short-lived mutex used only for lookups
// and id bookkeeping. Mutations of a single conversation are serialised by
// a per-conversation lock (see Lock), so unrelated conversations never
// wait on each other.
type Store struct {
	mu    sync.Mutex
	plans map[string]*Plan
	locks *keyedMutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		plans: make(map[string]*Plan),
		locks: newKeyedMutex(),
	}
}

// Lock acquires the per-conversation lock for id, honouring ctx while
// waiting. The returned release func must be called exactly once.
func (s *Store) Lock(ctx context.Context, id string) (release func(), err error) {
	return s.locks.lock(ctx, id)
}

// Reserve returns id unchanged when non-empty. For an empty id it generates
// a fresh identifier that is guaranteed not to collide with a stored plan.
func (s *Store) Reserve(id string) string {
	if id != "" {
		return id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		candidate := newID()
		if _, taken := s.plans[candidate]; !taken {
			return candidate
		}
	}
}

// Create stores a new plan for id and delivers its first window in
// ModeCreate, starting at startIndex. An empty id is replaced by a
// generated one. Any existing plan for id is overwritten.
//
// Callers that need the create to be atomic with a preceding fetch should
// hold Lock(id) around both.
func (s *Store) Create(id, topic string, items []content.Item, startIndex, days int) (string, Window) {
	id = s.Reserve(id)

	now := timeNow()
	p := &Plan{
		Topic:     topic,
		Items:     items,
		Cursor:    startIndex - 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	w, _ := Advance(p, days, ModeCreate)

	s.mu.Lock()
	s.plans[id] = p
	s.mu.Unlock()

	return id, w
}

// Get returns a snapshot of the plan for id. It never changes the stored
// cursor or counters.
func (s *Store) Get(id string) (Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return Plan{}, false
	}
	return p.clone(), true
}

// Continue delivers the next window of up to days items for id in
// ModeContinue. It returns ErrNotFound when id has no plan; it never
// creates one. The whole read-advance-write sequence runs under the
// per-conversation lock.
func (s *Store) Continue(ctx context.Context, id string, days int) (Plan, Window, bool, error) {
	release, err := s.Lock(ctx, id)
	if err != nil {
		return Plan{}, nil, false, err
	}
	defer release()

	return s.continueLocked(id, days)
}

// continueLocked is Continue for callers already holding Lock(id).
//
// Stored plans are never mutated in place: the window is taken from a copy
// which then replaces the stored pointer under s.mu, so Get can copy a plan
// without the per-conversation lock.
func (s *Store) continueLocked(id string, days int) (Plan, Window, bool, error) {
	s.mu.Lock()
	p, ok := s.plans[id]
	s.mu.Unlock()
	if !ok {
		return Plan{}, nil, false, ErrNotFound
	}

	next := p.clone()
	w, exhausted := Advance(&next, days, ModeContinue)
	if exhausted {
		return next, w, true, nil
	}
	next.UpdatedAt = timeNow()

	s.mu.Lock()
	// A concurrent Clear wins; the advanced copy is not published.
	if s.plans[id] == p {
		s.plans[id] = &next
	}
	s.mu.Unlock()
	return next, w, false, nil
}

// Clear removes the plan for id and reports whether one existed. Clearing
// an unknown id is a no-op.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.plans[id]
	delete(s.plans, id)
	return ok
}

// Len returns the number of stored plans.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}

// keyedMutex hands out one lock per key and forgets keys nobody holds or
// waits for, so the lock table does not grow with every conversation.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			k.unref(key, l)
		})
	}, nil
}

func (k *keyedMutex) unref(key string, l *keyedLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
