// Package intent turns free-form user text into a typed plan command.
//
// Parsing is deterministic pattern matching. Rules are evaluated in a fixed
// order and the first match wins; a topic containing the word "day" can
// therefore be claimed by an earlier rule.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultMaxDays caps the number of days a single request can ask for.
	DefaultMaxDays = 10
	// DefaultDays is used when the text names a topic but no day count.
	DefaultDays = 5
	// DefaultTopic is used when the text carries no usable topic.
	DefaultTopic = "faith"
)

// Command is either CreatePlan or ContinuePlan.
type Command interface {
	// Days is the effective day count, always in 1..MaxDays.
	Days() int
	isCommand()
}

// CreatePlan asks for a new plan on Topic.
type CreatePlan struct {
	Topic   string
	NumDays int
}

// Days implements Command.
func (c CreatePlan) Days() int { return c.NumDays }
func (CreatePlan) isCommand() {}

// ContinuePlan asks for the next window of an existing plan. The parser
// never fills ConversationID; callers resolve it from request context.
type ContinuePlan struct {
	ConversationID string
	NumDays        int
}

// Days implements Command.
func (c ContinuePlan) Days() int { return c.NumDays }
func (ContinuePlan) isCommand() {}

var (
	nextDaysRe   = regexp.MustCompile(`(?i)next\s+(\d+)\s*days?`)
	daysTopicRe  = regexp.MustCompile(`(?i)(\d+)\s*-?\s*days?\b.*\b(?:on|about|for)\b\s+(.+)`)
	topicRe      = regexp.MustCompile(`(?i)\b(?:about|on|for)\s+(.+)`)
	leadingNumRe = regexp.MustCompile(`^(\d+)\b`)
)

// Parser classifies text. The zero value is not usable; use New.
type Parser struct {
	maxDays      int
	defaultDays  int
	defaultTopic string
}

// Option customises a Parser.
type Option func(*Parser)

// WithDefaultDays overrides DefaultDays.
func WithDefaultDays(n int) Option {
	return func(p *Parser) { p.defaultDays = n }
}

// WithDefaultTopic overrides DefaultTopic.
func WithDefaultTopic(topic string) Option {
	return func(p *Parser) { p.defaultTopic = topic }
}

// New creates a Parser that caps day counts at maxDays. A non-positive
// maxDays falls back to DefaultMaxDays.
func New(maxDays int, opts ...Option) *Parser {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	p := &Parser{
		maxDays:      maxDays,
		defaultDays:  DefaultDays,
		defaultTopic: DefaultTopic,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.defaultDays = p.clamp(p.defaultDays)
	if strings.TrimSpace(p.defaultTopic) == "" {
		p.defaultTopic = DefaultTopic
	}
	return p
}

// MaxDays returns the configured cap.
func (p *Parser) MaxDays() int { return p.maxDays }

// DefaultTopic returns the topic used for empty input.
func (p *Parser) DefaultTopic() string { return p.defaultTopic }

// Parse classifies text. It never fails: unrecognised or empty input
// becomes a CreatePlan on the default topic.
func (p *Parser) Parse(text string) Command {
	text = strings.TrimSpace(text)

	if m := nextDaysRe.FindStringSubmatch(text); m != nil {
		return ContinuePlan{NumDays: p.days(m[1])}
	}

	if m := daysTopicRe.FindStringSubmatch(text); m != nil {
		return CreatePlan{Topic: p.topic(m[2]), NumDays: p.days(m[1])}
	}

	if m := topicRe.FindStringSubmatch(text); m != nil {
		return CreatePlan{Topic: p.topic(m[1]), NumDays: p.defaultDays}
	}

	if loc := leadingNumRe.FindStringSubmatchIndex(text); loc != nil {
		return CreatePlan{
			Topic:   p.topic(text[loc[1]:]),
			NumDays: p.days(text[loc[2]:loc[3]]),
		}
	}

	return CreatePlan{Topic: p.topic(text), NumDays: p.defaultDays}
}

// days converts a matched digit run into a day count in 1..maxDays.
// Runs too long for an int are treated as "more than the cap".
func (p *Parser) days(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return p.maxDays
	}
	return p.clamp(n)
}

func (p *Parser) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > p.maxDays {
		return p.maxDays
	}
	return n
}

func (p *Parser) topic(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return p.defaultTopic
	}
	return s
}
