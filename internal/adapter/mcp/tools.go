package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/Warden/internal/port/toolcatalog"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.getAgentTool(),
		s.killSwitchStatusTool(),
		s.evaluatePolicyTool(),
		s.queryAuditTrailTool(),
		s.invokeCapabilityTool(),
		s.listToolsTool(),
	)
}

func (s *Server) getAgentTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_agent",
		mcplib.WithDescription("Resolve an agent definition by ID, including its declared capabilities and risk tier"),
		mcplib.WithString("agent_id",
			mcplib.Required(),
			mcplib.Description("The agent ID to resolve"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetAgent,
	}
}

func (s *Server) killSwitchStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("kill_switch_status",
		mcplib.WithDescription("List the agents and models currently disabled by the kill switch"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleKillSwitchStatus,
	}
}

func (s *Server) evaluatePolicyTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("evaluate_policy",
		mcplib.WithDescription("Evaluate a governance policy against an input document and return the decision"),
		mcplib.WithString("policy_id",
			mcplib.Required(),
			mcplib.Description("Namespaced policy ID, e.g. payments/retry"),
		),
		mcplib.WithObject("input",
			mcplib.Description("Input document for the policy evaluation"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleEvaluatePolicy,
	}
}

func (s *Server) queryAuditTrailTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("query_audit_trail",
		mcplib.WithDescription("Query audit trail entries for an agent, most recent first"),
		mcplib.WithString("agent_id",
			mcplib.Required(),
			mcplib.Description("The agent whose trail to query"),
		),
		mcplib.WithNumber("limit",
			mcplib.Description("Maximum number of entries to return"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleQueryAuditTrail,
	}
}

func (s *Server) invokeCapabilityTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("invoke_capability",
		mcplib.WithDescription("Invoke a capability through an agent's governed runtime: kill switch, declared set and audit trail all apply"),
		mcplib.WithString("agent_id",
			mcplib.Required(),
			mcplib.Description("The agent whose runtime executes the capability"),
		),
		mcplib.WithString("capability",
			mcplib.Required(),
			mcplib.Description("The declared capability name to invoke"),
		),
		mcplib.WithObject("args",
			mcplib.Description("Arguments passed to the capability"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleInvokeCapability,
	}
}

func (s *Server) listToolsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_tools",
		mcplib.WithDescription("List the capability catalog entries and registered builtins"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListTools,
	}
}

func (s *Server) handleGetAgent(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Definitions == nil {
		return mcplib.NewToolResultError("definition resolver not configured"), nil
	}
	args := req.GetArguments()
	agentID, ok := args["agent_id"].(string)
	if !ok || agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	def, err := s.deps.Definitions.Resolve(ctx, agentID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to resolve agent %s", agentID), err,
		), nil
	}
	data, err := json.Marshal(def)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal definition", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleKillSwitchStatus(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.KillSwitch == nil {
		return mcplib.NewToolResultError("kill switch not configured"), nil
	}
	agents, models := s.deps.KillSwitch.Snapshot()
	data, err := json.Marshal(map[string][]string{
		"disabled_agents": agents,
		"disabled_models": models,
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal status", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleEvaluatePolicy(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Policies == nil {
		return mcplib.NewToolResultError("policy engine not configured"), nil
	}
	args := req.GetArguments()
	policyID, ok := args["policy_id"].(string)
	if !ok || policyID == "" {
		return mcplib.NewToolResultError("policy_id is required"), nil
	}
	input, _ := args["input"].(map[string]any)

	// A deny decision is still a valid result; only transport-level
	// problems surface as tool errors.
	decision, _ := s.deps.Policies.Evaluate(ctx, policyID, input)
	data, err := json.Marshal(decision)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal decision", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleQueryAuditTrail(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Trail == nil {
		return mcplib.NewToolResultError("audit trail not configured"), nil
	}
	args := req.GetArguments()
	agentID, ok := args["agent_id"].(string)
	if !ok || agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	limit := 0
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	entries, err := s.deps.Trail.Query(ctx, agentID, limit)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to query trail for %s", agentID), err,
		), nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal entries", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleInvokeCapability(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Runtimes == nil {
		return mcplib.NewToolResultError("runtime builder not configured"), nil
	}
	args := req.GetArguments()
	agentID, ok := args["agent_id"].(string)
	if !ok || agentID == "" {
		return mcplib.NewToolResultError("agent_id is required"), nil
	}
	tool, ok := args["capability"].(string)
	if !ok || tool == "" {
		return mcplib.NewToolResultError("capability is required"), nil
	}
	callArgs, _ := args["args"].(map[string]any)

	rt, err := s.deps.Runtimes.Build(ctx, agentID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to build runtime for %s", agentID), err,
		), nil
	}
	result, err := rt.Call(ctx, tool, callArgs)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("capability %s failed", tool), err,
		), nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (s *Server) handleListTools(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	var catalog []toolcatalog.Meta
	if s.deps.Catalog != nil {
		catalog = s.deps.Catalog.List()
	}
	data, err := json.Marshal(map[string]any{
		"catalog":  catalog,
		"builtins": toolcatalog.BuiltinNames(),
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal tools", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
