// Package mcp exposes the governance surface over the Model Context
// Protocol so MCP-capable agent hosts can query definitions, evaluate
// policies and read the audit trail without speaking the REST API.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/audit"
	"github.com/Strob0t/Warden/internal/domain/policy"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
	"github.com/Strob0t/Warden/internal/service"
)

// DefinitionReader resolves agent definitions by ID.
type DefinitionReader interface {
	Resolve(ctx context.Context, agentID string) (*agent.Definition, error)
}

// KillSwitchReader reports which agents and models are disabled.
type KillSwitchReader interface {
	Snapshot() (agents, models []string)
}

// PolicyEvaluator evaluates a policy decision for the given input.
type PolicyEvaluator interface {
	Evaluate(ctx context.Context, policyID string, input map[string]any) (policy.Decision, error)
	KnownPolicies() []string
}

// TrailReader queries audit entries, most recent first.
type TrailReader interface {
	Query(ctx context.Context, agentID string, limit int) ([]audit.Entry, error)
}

// RuntimeBuilder constructs governed runtimes for capability invocation.
type RuntimeBuilder interface {
	Build(ctx context.Context, agentID string) (*service.Runtime, error)
}

// CatalogReader lists the known capability catalog entries.
type CatalogReader interface {
	List() []toolcatalog.Meta
}

// ServerConfig holds the MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
}

// ServerDeps are the service dependencies the MCP tools call into.
// Nil dependencies cause the corresponding tools to return error results
// rather than panic, so a partially wired server remains usable.
type ServerDeps struct {
	Definitions DefinitionReader
	KillSwitch  KillSwitchReader
	Policies    PolicyEvaluator
	Trail       TrailReader
	Runtimes    RuntimeBuilder
	Catalog     CatalogReader
}

// Server wraps an mcp-go server with Warden's tools and resources.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer builds the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log,
		mcpServer: mcpserver.NewMCPServer(
			cfg.Name,
			cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying mcp-go server, mainly for tests and
// for mounting on an existing HTTP mux.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start serves MCP over streamable HTTP on the configured address.
// It returns immediately; errors from the listener are logged.
func (s *Server) Start() error {
	s.streamable = mcpserver.NewStreamableHTTPServer(s.mcpServer)
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           AuthMiddleware(s.cfg.APIKey, s.streamable),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		s.log.Info("mcp server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("mcp server stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the HTTP listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
