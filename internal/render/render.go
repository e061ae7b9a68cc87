// Package render turns a delivered window of days into the agent's reply
// text and per-day artifacts.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HendryAvila/bibly/internal/plan"
	"github.com/HendryAvila/bibly/internal/protocol"
)

// Mode selects the framing of a reply.
type Mode int

const (
	Create Mode = iota
	Continue
	Exhausted
)

// NoPlanText is the explanation sent when a conversation has no plan.
const NoPlanText = "No existing plan found. Create a plan first."

const placeholderText = "No verse found for this day."

// Render builds the reply for topic. Exhausted ignores w and yields no
// artifacts.
func Render(topic string, w plan.Window, mode Mode) (string, []protocol.Artifact) {
	title := titleCase(topic)

	if mode == Exhausted {
		return fmt.Sprintf("✅ You've completed every reading available for %s. "+
			"Ask for a new plan to keep going.", title), nil
	}

	lines := make([]string, 0, len(w))
	artifacts := make([]protocol.Artifact, 0, w.Real())
	for _, d := range w {
		lines = append(lines, Line(d))
		if d.Placeholder() {
			continue
		}
		artifacts = append(artifacts, protocol.NewArtifact(
			fmt.Sprintf("day_%d", d.Number),
			protocol.TextPart(d.Item.Label()),
		))
	}

	var b strings.Builder
	switch mode {
	case Create:
		fmt.Fprintf(&b, "🕊️ Your %d-Day %s Reading Plan\n\n", len(w), title)
	case Continue:
		fmt.Fprintf(&b, "🕊️ Next %d Days for %s\n\n", len(w), title)
	}
	b.WriteString(strings.Join(lines, "\n\n"))
	if mode == Create {
		fmt.Fprintf(&b, "\n\n👉 Say \"next %d days\" to continue this plan.", len(w))
	}
	return b.String(), artifacts
}

// Line formats one day.
func Line(d plan.Day) string {
	if d.Placeholder() {
		return fmt.Sprintf("📖 Day %d: %s", d.Number, placeholderText)
	}
	return fmt.Sprintf("📖 Day %d: %s — %s", d.Number, d.Item.Reference, d.Item.Text)
}

// titleCase upper-cases the first letter of each word and lower-cases the
// rest. A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
