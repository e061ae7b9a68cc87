package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/bibly/internal/config"
	"github.com/HendryAvila/bibly/internal/content"
	"github.com/HendryAvila/bibly/internal/content/cache"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.DataDir = t.TempDir()
	return cfg
}

func TestBuild(t *testing.T) {
	app, cleanup, err := Build(testConfig(t), nil)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "Bibly", app.Identity.Name)
	assert.Equal(t, "http://localhost:8000/a2a/scripture", app.Identity.URL)
	assert.Equal(t, 10, app.Service.MaxDays())
	assert.Equal(t, "faith", app.Parser.DefaultTopic())
}

func TestBuild_PublicURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.PublicURL = "https://bibly.example.com/a2a/scripture"
	cfg.Cache.Enabled = false

	app, cleanup, err := Build(cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, cfg.Server.PublicURL, app.Identity.URL)
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.MaxDays = 0

	_, cleanup, err := Build(cfg, nil)
	require.Error(t, err)
	assert.NotNil(t, cleanup)
	cleanup()

	var verrs config.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestBuild_NilConfig(t *testing.T) {
	_, cleanup, err := Build(nil, nil)
	require.Error(t, err)
	cleanup()
}

func TestApp_HTTPHandler(t *testing.T) {
	app, cleanup, err := Build(testConfig(t), nil)
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	app.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","plans":0,"cache":{"topics":0,"items":0}}`, rec.Body.String())

	to := app.HTTPTimeouts()
	assert.Equal(t, app.Config.Server.ReadTimeout, to.Read)
	assert.Equal(t, app.Config.Server.WriteTimeout, to.Write)
}

func TestApp_HTTPHandler_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false

	app, cleanup, err := Build(cfg, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, app.Cache)

	rec := httptest.NewRecorder()
	app.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok","plans":0}`, rec.Body.String())
}

func TestBuild_PurgesExpiredCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.TTL = time.Hour

	seed, err := cache.New(cache.Config{DataDir: cfg.Cache.DataDir, TTL: cfg.Cache.TTL})
	require.NoError(t, err)
	require.NoError(t, seed.Put("faith", []content.Item{{Reference: "Heb 11:1", Text: "Now faith"}}))
	require.NoError(t, seed.Close())

	db, err := sql.Open("sqlite", filepath.Join(cfg.Cache.DataDir, "cache.db"))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE topic_items SET fetched_at = ?`, time.Now().Add(-2*time.Hour).Unix())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	app, cleanup, err := Build(cfg, nil)
	require.NoError(t, err)
	defer cleanup()

	st, err := app.Cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Topics)
	assert.Equal(t, 0, st.Items)
}

func rpc(t *testing.T, handle func(context.Context, json.RawMessage) any, method string) string {
	t.Helper()
	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":{}}`)
	out, err := json.Marshal(handle(context.Background(), msg))
	require.NoError(t, err)
	return string(out)
}

func TestNewMCP_Registrations(t *testing.T) {
	app, cleanup, err := Build(testConfig(t), nil)
	require.NoError(t, err)
	defer cleanup()

	s := NewMCP(app)
	handle := func(ctx context.Context, m json.RawMessage) any { return s.HandleMessage(ctx, m) }

	tools := rpc(t, handle, "tools/list")
	for _, name := range []string{"bibly_ask", "bibly_create_plan", "bibly_continue_plan", "bibly_clear_plan"} {
		assert.Contains(t, tools, `"`+name+`"`)
	}

	prompts := rpc(t, handle, "prompts/list")
	assert.Contains(t, prompts, `"bibly-start"`)
	assert.Contains(t, prompts, `"bibly-progress"`)

	assert.Contains(t, rpc(t, handle, "resources/list"), "bibly://agent/metadata")
	assert.Contains(t, rpc(t, handle, "resources/templates/list"), "bibly://plans/{contextId}")
}

func TestServerInstructions(t *testing.T) {
	text := serverInstructions(7)
	assert.Contains(t, text, "days 1-7")
	assert.Contains(t, text, "bibly_create_plan")
}
