package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	wotel "github.com/Strob0t/Warden/internal/adapter/otel"
	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/audit"
	"github.com/Strob0t/Warden/internal/domain/capability"
	"github.com/Strob0t/Warden/internal/domain/policy"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
)

// RuntimeService constructs governed runtimes. Construction is the first
// enforcement point: a disabled agent or model fails here, before any
// gateway exists to call through.
type RuntimeService struct {
	resolver *DefinitionService
	ks       *KillSwitchService
	policies *PolicyService
	trail    *AuditService
	loaders  []toolcatalog.Loader
	metrics  *wotel.Metrics // optional
	log      *slog.Logger
}

// NewRuntimeService creates a RuntimeService.
func NewRuntimeService(resolver *DefinitionService, ks *KillSwitchService, policies *PolicyService, trail *AuditService, log *slog.Logger, loaders ...toolcatalog.Loader) *RuntimeService {
	return &RuntimeService{
		resolver: resolver,
		ks:       ks,
		policies: policies,
		trail:    trail,
		loaders:  loaders,
		log:      log,
	}
}

// SetMetrics attaches metric instruments.
func (s *RuntimeService) SetMetrics(m *wotel.Metrics) {
	s.metrics = m
}

// Build resolves the agent's definition and returns a runtime for it.
// The kill switch is consulted before the gateway is created, so a
// disabled agent or model cannot even be constructed.
func (s *RuntimeService) Build(ctx context.Context, agentID string) (*Runtime, error) {
	def, err := s.resolver.Resolve(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if s.ks.AgentDisabled(def.ID) {
		s.blockMetric(ctx)
		return nil, fmt.Errorf("build runtime for %q: %w", def.ID, agent.ErrAgentDisabled)
	}
	if def.Model != "" && s.ks.ModelDisabled(def.Model) {
		s.blockMetric(ctx)
		return nil, fmt.Errorf("build runtime for %q: model %q: %w", def.ID, def.Model, agent.ErrModelDisabled)
	}

	s.log.Info("runtime built", "agent_id", def.ID, "risk_tier", def.RiskTier, "capabilities", len(def.Capabilities))
	return &Runtime{
		def:     def,
		gateway: NewCapabilityGateway(def, s.loaders...),
		svc:     s,
	}, nil
}

func (s *RuntimeService) blockMetric(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.KillSwitchBlocks.Add(ctx, 1)
	}
}

// Runtime is one agent's governed execution surface: every capability call,
// policy check and decision goes through it and lands in the audit trail.
type Runtime struct {
	def     *agent.Definition
	gateway *CapabilityGateway
	svc     *RuntimeService
}

// Definition returns the resolved definition backing this runtime.
func (r *Runtime) Definition() *agent.Definition {
	return r.def
}

// Register binds a capability implementation on this runtime's gateway.
func (r *Runtime) Register(name string, fn capability.Func) {
	r.gateway.Register(name, fn)
}

// Call resolves and executes a capability, recording the attempt in the
// audit trail regardless of outcome. High-risk agents re-check the kill
// switch on every call so a mid-session flip takes effect immediately.
func (r *Runtime) Call(ctx context.Context, tool string, args map[string]any) (any, error) {
	ctx, span := wotel.StartCapabilitySpan(ctx, r.def.ID, tool)
	defer span.End()

	if r.def.RiskTier == agent.RiskHigh && r.svc.ks.AgentDisabled(r.def.ID) {
		r.svc.blockMetric(ctx)
		err := fmt.Errorf("call %q: %w", tool, agent.ErrAgentDisabled)
		r.svc.trail.Append(ctx, audit.CapabilityCall(r.def.ID, tool, args, "", err))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	fn, err := r.gateway.Resolve(tool)
	if err != nil {
		r.svc.trail.Append(ctx, audit.CapabilityCall(r.def.ID, tool, args, "", err))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	result, callErr := fn(ctx, args)
	elapsed := time.Since(start)

	r.svc.trail.Append(ctx, audit.CapabilityCall(r.def.ID, tool, args, summarizeResult(result), callErr))

	if r.svc.metrics != nil {
		r.svc.metrics.CapabilityCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("capability.name", tool)))
		r.svc.metrics.CallDuration.Record(ctx, elapsed.Seconds())
	}
	if callErr != nil {
		span.SetStatus(codes.Error, callErr.Error())
		return nil, fmt.Errorf("call %q: %w", tool, callErr)
	}
	return result, nil
}

// CheckPolicy evaluates a policy for this agent and audits the check.
func (r *Runtime) CheckPolicy(ctx context.Context, policyID string, input map[string]any) (policy.Decision, error) {
	ctx, span := wotel.StartPolicySpan(ctx, r.def.ID, policyID)
	defer span.End()

	d, err := r.svc.policies.Evaluate(ctx, policyID, input)
	r.svc.trail.Append(ctx, audit.PolicyCheck(r.def.ID, policyID, input, d.Allowed, d.Reason))

	if !d.Allowed && r.svc.metrics != nil {
		r.svc.metrics.PolicyDenials.Add(ctx, 1, metric.WithAttributes(attribute.String("policy.id", policyID)))
	}
	if !d.Allowed {
		span.SetStatus(codes.Error, d.Reason)
	}
	return d, err
}

// Decide records a free-text decision made by the agent.
func (r *Runtime) Decide(ctx context.Context, label string, info map[string]any) {
	r.svc.trail.Append(ctx, audit.Decision(r.def.ID, label, info))
}

// summarizeResult renders a capability result for the trail. JSON when it
// marshals, %v otherwise; truncation happens in the entry constructor.
func summarizeResult(result any) string {
	if result == nil {
		return ""
	}
	if data, err := json.Marshal(result); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", result)
}
