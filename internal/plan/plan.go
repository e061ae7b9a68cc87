// Package plan holds per-conversation reading plans and the pagination
// engine that hands out their content one window at a time.
package plan

import (
	"time"

	"github.com/HendryAvila/bibly/internal/content"
)

// Plan is the active reading plan for one conversation.
//
// Cursor is the index of the last item already delivered (-1 before the
// first window). It may point past the end of Items, which means the plan
// is exhausted.
type Plan struct {
	Topic          string         `json:"topic"`
	Items          []content.Item `json:"items"`
	Cursor         int            `json:"cursor"`
	TotalDelivered int            `json:"total_delivered"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Remaining reports how many items are still undelivered.
func (p *Plan) Remaining() int {
	n := len(p.Items) - (p.Cursor + 1)
	if n < 0 {
		return 0
	}
	return n
}

// Exhausted reports whether no item remains past the cursor.
func (p *Plan) Exhausted() bool {
	return p.Cursor+1 >= len(p.Items)
}

// clone returns a copy that shares the immutable items.
func (p *Plan) clone() Plan {
	cp := *p
	return cp
}

// Mode selects how Advance treats a window running past the end of the
// available items.
type Mode int

const (
	// ModeCreate pads missing days with placeholders so a fresh plan always
	// shows exactly the requested number of days.
	ModeCreate Mode = iota
	// ModeContinue stops at the true end of content.
	ModeContinue
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// Day is one numbered entry of a window. Item is nil for a placeholder.
type Day struct {
	Number int
	Item   *content.Item
}

// Placeholder reports whether the day has no content item.
func (d Day) Placeholder() bool { return d.Item == nil }

// Window is the ordered set of days delivered by one request.
type Window []Day

// Real returns the number of non-placeholder days.
func (w Window) Real() int {
	n := 0
	for _, d := range w {
		if !d.Placeholder() {
			n++
		}
	}
	return n
}

// Advance hands out the next window of up to days items and moves the
// cursor past them.
//
// In ModeContinue the window stops early at the end of the items and
// TotalDelivered grows by the number of real items. If nothing remains,
// Advance reports exhausted and leaves p untouched.
//
// In ModeCreate every requested day is emitted, missing ones as
// placeholders, and TotalDelivered grows by days so later continuation
// windows keep their day numbering aligned.
func Advance(p *Plan, days int, mode Mode) (w Window, exhausted bool) {
	if days < 0 {
		days = 0
	}
	start := p.Cursor + 1
	if start < 0 {
		start = 0
	}

	if mode == ModeContinue && p.Exhausted() {
		return nil, true
	}

	w = make(Window, 0, days)
	included := 0
	for i := 0; i < days; i++ {
		idx := start + i
		if idx < len(p.Items) {
			item := p.Items[idx]
			w = append(w, Day{Number: p.TotalDelivered + i + 1, Item: &item})
			included++
			continue
		}
		if mode == ModeContinue {
			break
		}
		w = append(w, Day{Number: p.TotalDelivered + i + 1})
	}

	p.Cursor = start + included - 1
	if mode == ModeCreate {
		p.TotalDelivered += days
	} else {
		p.TotalDelivered += included
	}
	return w, false
}
