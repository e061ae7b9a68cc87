// Package supersearch is a content.Source backed by the Bible SuperSearch
// public API (https://api.biblesupersearch.com).
//
// The API returns one result per matching passage. Each result is decoded
// independently: malformed entries are counted and logged, never allowed to
// abort the whole batch.
package supersearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/HendryAvila/bibly/internal/content"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.biblesupersearch.com"

	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 10 * time.Second

	// MissingText replaces verse text that cannot be located in a result.
	MissingText = "Verse text not found."
)

// Config controls how the client talks to the API.
type Config struct {
	BaseURL       string
	Bible         string
	WholeWord     bool
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	UserAgent     string
}

// DefaultConfig returns the settings used by the hosted agent.
func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Bible:         "kjv",
		WholeWord:     true,
		Timeout:       DefaultTimeout,
		RatePerSecond: 5,
		Burst:         5,
		UserAgent:     "bibly",
	}
}

// Client fetches verses for a topic.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for per-result decode failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client. Zero fields in cfg fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Bible == "" {
		cfg.Bible = def.Bible
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the subset of the API envelope we read.
type searchResponse struct {
	Results    []json.RawMessage `json:"results"`
	ErrorLevel int               `json:"error_level"`
}

// Fetch implements content.Source. Transport and HTTP errors are returned
// as errors; wrap the client in content.Guard to turn them into an empty
// result.
func (c *Client) Fetch(ctx context.Context, topic string) ([]content.Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("supersearch: rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(topic), nil)
	if err != nil {
		return nil, fmt.Errorf("supersearch: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supersearch: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supersearch: API returned %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("supersearch: decoding response: %w", err)
	}

	items, failed := c.decodeResults(body.Results)
	if failed > 0 {
		c.log.Warn("skipped malformed search results",
			"topic", topic, "skipped", failed, "kept", len(items))
	}
	return items, nil
}

func (c *Client) searchURL(topic string) string {
	q := url.Values{}
	q.Set("bible", c.cfg.Bible)
	q.Set("search", topic)
	if c.cfg.WholeWord {
		q.Set("whole_word", "on")
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/api?" + q.Encode()
}

// result holds the outcome of decoding one upstream entry.
type result struct {
	item content.Item
	err  error
}

func (c *Client) decodeResults(raw []json.RawMessage) ([]content.Item, int) {
	results := make([]result, 0, len(raw))
	for _, r := range raw {
		item, err := decodeResult(r, c.cfg.Bible)
		results = append(results, result{item: item, err: err})
	}

	items := make([]content.Item, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			c.log.Debug("search result skipped", "error", r.err)
			continue
		}
		items = append(items, r.item)
	}
	return items, failed
}

var (
	errNotObject        = errors.New("result is not an object")
	errMissingReference = errors.New("result has no book_name or chapter_verse")
)

type rawResult struct {
	BookName     string          `json:"book_name"`
	ChapterVerse string          `json:"chapter_verse"`
	Verses       json.RawMessage `json:"verses"`
}

// decodeResult turns one upstream entry into an Item.
func decodeResult(raw json.RawMessage, bible string) (content.Item, error) {
	var r rawResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return content.Item{}, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if r.BookName == "" || r.ChapterVerse == "" {
		return content.Item{}, errMissingReference
	}

	text, ok := ExtractText(r.Verses, bible)
	if !ok {
		text = MissingText
	}

	return content.Item{
		Reference: strings.TrimSpace(r.BookName + " " + r.ChapterVerse),
		Text:      sanitize(text),
		RawSource: raw,
	}, nil
}

// ExtractText locates the first verse's text inside the nested
// bible -> chapter -> verse -> {text} structure. The lowest chapter and
// verse numbers win. It reports false on any structural mismatch.
func ExtractText(verses json.RawMessage, bible string) (string, bool) {
	if len(verses) == 0 {
		return "", false
	}

	var byBible map[string]json.RawMessage
	if err := json.Unmarshal(verses, &byBible); err != nil {
		return "", false
	}
	chapters, ok := byBible[bible]
	if !ok {
		return "", false
	}

	chapter, ok := firstEntry(chapters)
	if !ok {
		return "", false
	}
	verse, ok := firstEntry(chapter)
	if !ok {
		return "", false
	}

	var v struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(verse, &v); err != nil || v.Text == nil {
		return "", false
	}
	return *v.Text, true
}

// firstEntry returns the value of the lowest key of a JSON object whose
// keys are chapter or verse numbers. Non-numeric keys sort after numbers.
func firstEntry(obj json.RawMessage) (json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil || len(m) == 0 {
		return nil, false
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return m[keys[0]], true
}

func sanitize(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
