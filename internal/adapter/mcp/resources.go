package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"warden://kill-switch",
			"Kill Switch Status",
			mcplib.WithResourceDescription("Agents and models currently disabled by the kill switch"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleKillSwitchResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"warden://policies",
			"Known Policies",
			mcplib.WithResourceDescription("Policy IDs with a local degraded-mode fallback"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePoliciesResource,
	)
}

func (s *Server) handleKillSwitchResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.KillSwitch == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"kill switch not configured"}`,
			},
		}, nil
	}
	agents, models := s.deps.KillSwitch.Snapshot()
	data, err := json.Marshal(map[string][]string{
		"disabled_agents": agents,
		"disabled_models": models,
	})
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePoliciesResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Policies == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"policy engine not configured"}`,
			},
		}, nil
	}
	data, err := json.Marshal(map[string][]string{
		"known_fallbacks": s.deps.Policies.KnownPolicies(),
	})
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
