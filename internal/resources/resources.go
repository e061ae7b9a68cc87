// Package resources implements MCP resource handlers for the reading-plan
// agent.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (bibly://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/bibly/internal/protocol"
	"github.com/HendryAvila/bibly/internal/reading"
)

const (
	// MetadataURI addresses the agent metadata document.
	MetadataURI = "bibly://agent/metadata"

	// PlanURIPrefix prefixes the per-conversation plan resources.
	PlanURIPrefix = "bibly://plans/"
)

// Inspector exposes read-only plan state.
type Inspector interface {
	Inspect(conversationID string) (reading.Summary, bool)
}

// Handler manages the agent's resource endpoints.
type Handler struct {
	identity protocol.Identity
	plans    Inspector
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(identity protocol.Identity, plans Inspector) *Handler {
	return &Handler{identity: identity, plans: plans}
}

// MetadataResource returns the MCP resource definition for the agent
// metadata.
func (h *Handler) MetadataResource() mcp.Resource {
	return mcp.NewResource(
		MetadataURI,
		"Agent Metadata",
		mcp.WithResourceDescription("Name, version and accepted inputs of the reading-plan agent"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleMetadata returns the agent metadata as JSON.
func (h *Handler) HandleMetadata(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, protocol.NewMetadata(h.identity))
}

// PlanTemplate returns the MCP resource template for stored plans.
func (h *Handler) PlanTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		PlanURIPrefix+"{contextId}",
		"Reading Plan",
		mcp.WithTemplateDescription("Progress of the reading plan stored for a conversation"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandlePlan returns the summary of one stored plan as JSON.
func (h *Handler) HandlePlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, PlanURIPrefix)
	if id == "" || id == uri {
		return errorResource(uri, "expected "+PlanURIPrefix+"<contextId>"), nil
	}

	sum, ok := h.plans.Inspect(id)
	if !ok {
		return errorResource(uri, fmt.Sprintf("no plan stored for conversation %q", id)), nil
	}
	return jsonResource(uri, sum)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
