package supersearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "error_level": 0,
  "results": [
    {
      "book_name": "Hebrews",
      "chapter_verse": "11:1",
      "verses": {"kjv": {"11": {"1": {"text": "Now faith is the substance\nof things hoped for."}}}}
    },
    "not-an-object",
    {"book_name": "", "chapter_verse": "1:1"},
    {
      "book_name": "Romans",
      "chapter_verse": "10:17",
      "verses": {"kjv": {"10": {"18": {"text": "later"}, "17": {"text": "So then faith cometh by hearing."}}}}
    },
    {
      "book_name": "James",
      "chapter_verse": "2:17",
      "verses": []
    }
  ]
}`

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *url.URL) {
	t.Helper()
	seen := &url.URL{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.URL
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestFetch_DecodesResultsAndSkipsMalformed(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, sampleResponse)
	c := New(Config{BaseURL: srv.URL, Bible: "kjv", WholeWord: true})

	items, err := c.Fetch(context.Background(), "faith")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Hebrews 11:1", items[0].Reference)
	assert.Equal(t, "Now faith is the substance of things hoped for.", items[0].Text)
	assert.NotEmpty(t, items[0].RawSource)

	assert.Equal(t, "Romans 10:17", items[1].Reference)
	assert.Equal(t, "So then faith cometh by hearing.", items[1].Text)

	assert.Equal(t, "James 2:17", items[2].Reference)
	assert.Equal(t, MissingText, items[2].Text)

	q := seen.Query()
	assert.Equal(t, "/api", seen.Path)
	assert.Equal(t, "kjv", q.Get("bible"))
	assert.Equal(t, "faith", q.Get("search"))
	assert.Equal(t, "on", q.Get("whole_word"))
}

func TestFetch_HTTPErrorIsReturned(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, `oops`)
	c := New(Config{BaseURL: srv.URL})

	items, err := c.Fetch(context.Background(), "hope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Empty(t, items)
}

func TestFetch_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"results": [`)
	c := New(Config{BaseURL: srv.URL})

	_, err := c.Fetch(context.Background(), "hope")
	require.Error(t, err)
}

func TestFetch_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "peace")
	require.Error(t, err)
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		verses string
		want   string
		ok     bool
	}{
		{"simple", `{"kjv":{"3":{"16":{"text":"For God so loved"}}}}`, "For God so loved", true},
		{"lowest chapter wins", `{"kjv":{"10":{"1":{"text":"ten"}},"9":{"2":{"text":"nine"}}}}`, "nine", true},
		{"lowest verse wins over document order", `{"kjv":{"5":{"12":{"text":"twelve"},"3":{"text":"three"}}}}`, "three", true},
		{"other bible", `{"web":{"3":{"16":{"text":"x"}}}}`, "", false},
		{"list instead of map", `[]`, "", false},
		{"no text", `{"kjv":{"3":{"16":{"id":1}}}}`, "", false},
		{"empty chapter", `{"kjv":{}}`, "", false},
		{"empty input", ``, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractText(json.RawMessage(tt.verses), "kjv")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, "kjv", c.cfg.Bible)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}
