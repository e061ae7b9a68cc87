// Package httpapi exposes the agent over HTTP: the JSON-RPC endpoint,
// discovery documents, plan inspection and health.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/go-chi/chi/v5"

	"github.com/HendryAvila/bibly/internal/agent"
	"github.com/HendryAvila/bibly/internal/content/cache"
	"github.com/HendryAvila/bibly/internal/logging"
	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/reading"
)

// RPCPath is the primary JSON-RPC endpoint.
const RPCPath = "/a2a/scripture"

// maxBodyBytes caps JSON-RPC request bodies.
const maxBodyBytes = 1 << 20

// CacheStats reports content cache counters.
type CacheStats interface {
	Stats() (*cache.Stats, error)
}

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Dispatcher *agent.Dispatcher
	Service    *reading.Service
	Identity   protocol.Identity
	// Cache is reported by /healthz when set.
	Cache CacheStats
	// CORSOrigin is sent as Access-Control-Allow-Origin. Empty means "*".
	CORSOrigin string
	Logger     *slog.Logger
}

type server struct {
	dispatcher *agent.Dispatcher
	svc        *reading.Service
	cache      CacheStats
	metadata   protocol.Metadata
	log        *slog.Logger
}

// NewHandler builds the router.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	s := &server{
		dispatcher: d.Dispatcher,
		svc:        d.Service,
		cache:      d.Cache,
		metadata:   protocol.NewMetadata(d.Identity),
		log:        d.Logger,
	}
	card := a2asrv.NewStaticAgentCardHandler(protocol.AgentCard(d.Identity))

	r := chi.NewRouter()
	r.Use(withRequestID(d.Logger), withLogging(d.Logger), withRecovery(d.Logger), withCORS(d.CORSOrigin))

	r.Post(RPCPath, s.handleRPC)
	r.Post("/", s.handleRPC)
	r.Get("/a2a/metadata", s.handleMetadata)
	r.Handle(a2asrv.WellKnownAgentCardPath, card)
	r.Handle("/.well-known/agent.json", card)
	r.Get("/healthz", s.handleHealth)

	r.Get("/a2a/plans/{contextID}", s.handleGetPlan)
	r.Delete("/a2a/plans/{contextID}", s.handleDeletePlan)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}

func (s *server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		detail := "could not read request body"
		if errors.As(err, &tooLarge) {
			detail = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
		}
		writeRPC(w, protocol.Failure(nil, protocol.InvalidRequest(detail)))
		return
	}

	writeRPC(w, s.dispatcher.Handle(r.Context(), body))
}

func (s *server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metadata)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"plans":  s.svc.Plans(),
	}
	if s.cache != nil {
		st, err := s.cache.Stats()
		if err != nil {
			logging.FromContext(r.Context(), s.log).Warn("cache stats failed", "err", err)
			body["cache"] = map[string]string{"error": "unavailable"}
		} else {
			body["cache"] = st
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "contextID"))
	sum, ok := s.svc.Inspect(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "contextID"))
	existed := s.svc.ClearPlan(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"contextId": id,
		"cleared":   existed,
	})
}

// writeRPC writes a JSON-RPC response. Envelope validation failures are
// 400; everything else, including application errors, is 200.
func writeRPC(w http.ResponseWriter, resp *protocol.Response) {
	status := http.StatusOK
	if resp.Error != nil && resp.Error.Validation() {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Timeouts for the HTTP server.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, t Timeouts, log *slog.Logger) error {
	if t.Shutdown <= 0 {
		t.Shutdown = 10 * time.Second
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      t.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpapi: listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), t.Shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}
