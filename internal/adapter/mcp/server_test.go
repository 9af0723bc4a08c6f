package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	wmcp "github.com/Strob0t/Warden/internal/adapter/mcp"
	"github.com/Strob0t/Warden/internal/domain"
	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/audit"
	"github.com/Strob0t/Warden/internal/domain/policy"
)

// --- Mocks ---

type mockDefinitions struct {
	defs map[string]agent.Definition
}

func (m *mockDefinitions) Resolve(_ context.Context, agentID string) (*agent.Definition, error) {
	if d, ok := m.defs[agentID]; ok {
		return &d, nil
	}
	return nil, fmt.Errorf("definition %q: %w", agentID, domain.ErrNotFound)
}

type mockKillSwitch struct {
	agents []string
	models []string
}

func (m *mockKillSwitch) Snapshot() ([]string, []string) {
	return m.agents, m.models
}

type mockPolicies struct {
	decision policy.Decision
}

func (m *mockPolicies) Evaluate(context.Context, string, map[string]any) (policy.Decision, error) {
	return m.decision, nil
}

func (m *mockPolicies) KnownPolicies() []string {
	return []string{"payments/escalate", "payments/retry"}
}

type mockTrail struct {
	entries []audit.Entry
}

func (m *mockTrail) Query(_ context.Context, agentID string, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range m.entries {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Tests ---

func TestNewServer(t *testing.T) {
	cfg := wmcp.ServerConfig{
		Addr:    ":3001",
		Name:    "test-server",
		Version: "0.1.0",
	}
	s := wmcp.NewServer(cfg, wmcp.ServerDeps{}, nil)
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestToolRegistration(t *testing.T) {
	deps := wmcp.ServerDeps{
		Definitions: &mockDefinitions{defs: map[string]agent.Definition{
			"payments-agent": {ID: "payments-agent"},
		}},
		KillSwitch: &mockKillSwitch{},
		Policies:   &mockPolicies{decision: policy.Allow("ok")},
		Trail:      &mockTrail{},
	}
	s := wmcp.NewServer(wmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps, nil)

	tools := s.MCPServer().ListTools()
	if len(tools) != 6 {
		t.Fatalf("expected 6 tools, got %d", len(tools))
	}

	expectedTools := map[string]bool{
		"get_agent":          false,
		"kill_switch_status": false,
		"evaluate_policy":    false,
		"query_audit_trail":  false,
		"invoke_capability":  false,
		"list_tools":         false,
	}
	for name := range tools {
		if _, ok := expectedTools[name]; ok {
			expectedTools[name] = true
		} else {
			t.Errorf("unexpected tool: %s", name)
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleGetAgent(t *testing.T) {
	deps := wmcp.ServerDeps{
		Definitions: &mockDefinitions{defs: map[string]agent.Definition{
			"payments-agent": {ID: "payments-agent", Capabilities: []string{"lookup"}},
		}},
	}
	s := wmcp.NewServer(wmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps, nil)

	tools := s.MCPServer().ListTools()
	getTool, ok := tools["get_agent"]
	if !ok {
		t.Fatal("get_agent tool not found")
	}

	ctx := context.Background()
	result, err := getTool.Handler(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "get_agent",
			Arguments: map[string]any{"agent_id": "payments-agent"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var def agent.Definition
	if err := json.Unmarshal([]byte(text.Text), &def); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if def.ID != "payments-agent" {
		t.Fatalf("expected payments-agent, got %q", def.ID)
	}
}

func TestHandleGetAgentMissingArg(t *testing.T) {
	s := wmcp.NewServer(wmcp.ServerConfig{Name: "test", Version: "0.1.0"}, wmcp.ServerDeps{
		Definitions: &mockDefinitions{defs: map[string]agent.Definition{}},
	}, nil)

	tools := s.MCPServer().ListTools()
	getTool, ok := tools["get_agent"]
	if !ok {
		t.Fatal("get_agent tool not found")
	}

	result, err := getTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "get_agent"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing agent_id")
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := wmcp.NewServer(wmcp.ServerConfig{Name: "test", Version: "0.1.0"}, wmcp.ServerDeps{}, nil)

	tools := s.MCPServer().ListTools()
	getTool, ok := tools["get_agent"]
	if !ok {
		t.Fatal("get_agent tool not found")
	}

	result, err := getTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "get_agent",
			Arguments: map[string]any{"agent_id": "x"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result when deps are nil")
	}
}

func TestHandleEvaluatePolicy(t *testing.T) {
	deps := wmcp.ServerDeps{
		Policies: &mockPolicies{decision: policy.Deny("amount exceeds limit")},
	}
	s := wmcp.NewServer(wmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps, nil)

	tools := s.MCPServer().ListTools()
	evalTool, ok := tools["evaluate_policy"]
	if !ok {
		t.Fatal("evaluate_policy tool not found")
	}

	result, err := evalTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name: "evaluate_policy",
			Arguments: map[string]any{
				"policy_id": "payments/retry",
				"input":     map[string]any{"amount": 15000.0},
			},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var d policy.Decision
	if err := json.Unmarshal([]byte(text.Text), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected deny decision")
	}
}

func TestHandleQueryAuditTrail(t *testing.T) {
	deps := wmcp.ServerDeps{
		Trail: &mockTrail{entries: []audit.Entry{
			{AgentID: "payments-agent", Kind: audit.KindCapabilityCall, Seq: 2},
			{AgentID: "payments-agent", Kind: audit.KindDecision, Seq: 1},
			{AgentID: "other-agent", Kind: audit.KindDecision, Seq: 1},
		}},
	}
	s := wmcp.NewServer(wmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps, nil)

	tools := s.MCPServer().ListTools()
	queryTool, ok := tools["query_audit_trail"]
	if !ok {
		t.Fatal("query_audit_trail tool not found")
	}

	result, err := queryTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "query_audit_trail",
			Arguments: map[string]any{"agent_id": "payments-agent"},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var entries []audit.Entry
	if err := json.Unmarshal([]byte(text.Text), &entries); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
