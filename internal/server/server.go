// Package server wires all components and creates the server instances.
//
// This is the composition root: it creates concrete implementations and
// injects them into the A2A dispatcher, the HTTP surface and the
// tools/prompts/resources that depend on abstractions. No business logic
// lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/bibly/internal/agent"
	"github.com/HendryAvila/bibly/internal/config"
	"github.com/HendryAvila/bibly/internal/content"
	"github.com/HendryAvila/bibly/internal/content/cache"
	"github.com/HendryAvila/bibly/internal/content/supersearch"
	"github.com/HendryAvila/bibly/internal/httpapi"
	"github.com/HendryAvila/bibly/internal/intent"
	"github.com/HendryAvila/bibly/internal/logging"
	"github.com/HendryAvila/bibly/internal/plan"
	"github.com/HendryAvila/bibly/internal/prompts"
	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/reading"
	"github.com/HendryAvila/bibly/internal/resources"
	"github.com/HendryAvila/bibly/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App holds the wired components shared by the HTTP and MCP surfaces.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Parser     *intent.Parser
	Service    *reading.Service
	Dispatcher *agent.Dispatcher
	Identity   protocol.Identity
	// Cache is nil when the content cache is disabled or failed to open.
	Cache *cache.Store
}

// Build resolves every dependency from cfg. This is the single place where
// the dependency graph is assembled.
//
// The returned cleanup function closes the content cache and must be called
// on shutdown (typically via defer). It is always non-nil and safe to call
// even if the cache failed to open.
func Build(cfg *config.Config, log *slog.Logger) (*App, func(), error) {
	if cfg == nil {
		return nil, noop, fmt.Errorf("server: nil config")
	}
	if log == nil {
		log = logging.Discard()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, noop, config.ValidationErrors(errs)
	}

	// --- Content source ---

	upstream := supersearch.New(supersearch.Config{
		BaseURL:       cfg.Source.BaseURL,
		Bible:         cfg.Source.Bible,
		WholeWord:     cfg.Source.WholeWord,
		Timeout:       cfg.Source.Timeout,
		RatePerSecond: cfg.Source.RatePerSecond,
		Burst:         cfg.Source.Burst,
		UserAgent:     cfg.Agent.Name + "/" + cfg.Agent.Version,
	}, supersearch.WithLogger(log))

	// The cache is optional: if it fails to open, requests go straight to
	// the upstream.
	var source content.Source = upstream
	var contentCache *cache.Store
	cleanup := noop
	if cfg.Cache.Enabled {
		store, err := cache.New(cache.Config{DataDir: cfg.Cache.DataDir, TTL: cfg.Cache.TTL})
		if err != nil {
			log.Warn("content cache disabled", "err", err)
		} else {
			contentCache = store
			if n, err := store.Purge(); err != nil {
				log.Warn("content cache purge failed", "err", err)
			} else {
				log.Info("content cache opened", "dir", cfg.Cache.DataDir, "expired_purged", n)
			}
			source = cache.NewSource(store, upstream, log, cache.WithFetchTimeout(cfg.Source.Timeout))
			cleanup = func() {
				if err := store.Close(); err != nil {
					log.Warn("content cache close", "err", err)
				}
			}
		}
	}

	// --- Plan lifecycle ---

	parser := intent.New(cfg.Agent.MaxDays,
		intent.WithDefaultDays(cfg.Agent.DefaultDays),
		intent.WithDefaultTopic(cfg.Agent.DefaultTopic),
	)
	svc := reading.New(plan.NewStore(), source, reading.Options{
		FetchTimeout: cfg.Agent.FetchTimeout,
		MaxDays:      cfg.Agent.MaxDays,
		Logger:       log,
	})
	dispatcher := agent.New(parser, svc,
		agent.WithLogger(log),
		agent.WithNoPlanStyle(agent.NoPlanStyle(cfg.Agent.NoPlanStyle)),
	)

	return &App{
		Config:     cfg,
		Logger:     log,
		Parser:     parser,
		Service:    svc,
		Dispatcher: dispatcher,
		Identity:   identity(cfg),
		Cache:      contentCache,
	}, cleanup, nil
}

// identity names the running agent. The advertised URL is the configured
// public URL or the local JSON-RPC endpoint.
func identity(cfg *config.Config) protocol.Identity {
	url := cfg.Server.PublicURL
	if url == "" {
		url = fmt.Sprintf("http://localhost:%d%s", cfg.Server.Port, httpapi.RPCPath)
	}
	return protocol.Identity{
		Name:    cfg.Agent.Name,
		Version: cfg.Agent.Version,
		URL:     url,
	}
}

// HTTPHandler returns the A2A HTTP surface of the app.
func (a *App) HTTPHandler() http.Handler {
	deps := httpapi.Deps{
		Dispatcher: a.Dispatcher,
		Service:    a.Service,
		Identity:   a.Identity,
		CORSOrigin: a.Config.Server.CORSOrigin,
		Logger:     a.Logger,
	}
	if a.Cache != nil {
		deps.Cache = a.Cache
	}
	return httpapi.NewHandler(deps)
}

// HTTPTimeouts returns the listener timeouts from the config.
func (a *App) HTTPTimeouts() httpapi.Timeouts {
	return httpapi.Timeouts{
		Read:  a.Config.Server.ReadTimeout,
		Write: a.Config.Server.WriteTimeout,
	}
}

// NewMCP creates the MCP server with all tools, prompts, and resources
// registered against the app's components.
func NewMCP(a *App) *server.MCPServer {
	s := server.NewMCPServer(
		"bibly",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions(a.Service.MaxDays())),
	)

	// --- Register tools ---

	askTool := tools.NewAskTool(a.Dispatcher)
	s.AddTool(askTool.Definition(), askTool.Handle)

	createTool := tools.NewCreatePlanTool(a.Service)
	s.AddTool(createTool.Definition(), createTool.Handle)

	continueTool := tools.NewContinuePlanTool(a.Service)
	s.AddTool(continueTool.Definition(), continueTool.Handle)

	clearTool := tools.NewClearPlanTool(a.Service)
	s.AddTool(clearTool.Definition(), clearTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt(a.Service.MaxDays())
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	progressPrompt := prompts.NewProgressPrompt()
	s.AddPrompt(progressPrompt.Definition(), progressPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(a.Identity, a.Service)
	s.AddResource(resourceHandler.MetadataResource(), resourceHandler.HandleMetadata)
	s.AddResourceTemplate(resourceHandler.PlanTemplate(), resourceHandler.HandlePlan)

	return s
}

// noop is a no-op cleanup function used as the default when the cache
// is disabled or hasn't been initialized.
func noop() {}

func serverInstructions(maxDays int) string {
	return fmt.Sprintf(`You have access to Bibly, an agent that builds themed Bible reading plans.

## WHEN TO USE Bibly

Use Bibly when the user:
- Asks for a devotional, a reading plan or daily verses on a topic
- Says things like "7 days about faith" or "a plan on forgiveness"
- Asks for "the next few days" of a plan they already started

## HOW TO USE Bibly

1. Create a plan with bibly_create_plan (topic, days 1-%d). The reply ends
   with a conversation id.
2. Continue it with bibly_continue_plan using that conversation id. Day
   numbers carry on from the last reply.
3. When the user writes free text, pass it to bibly_ask unchanged. Reuse the
   conversation id (or a stable user_id) so "next N days" finds the plan.
4. bibly_clear_plan forgets a plan.

## RULES

- Present the readings exactly as returned. Never invent verses.
- A plan runs out when the topic has no more readings. Offer a new topic then.
- The bibly://plans/{contextId} resource shows a plan's progress.`, maxDays)
}
