package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	wotel "github.com/Strob0t/Warden/internal/adapter/otel"
	"github.com/Strob0t/Warden/internal/domain/policy"
	"github.com/Strob0t/Warden/internal/port/policyeval"
)

// PolicyService evaluates policies with a two-tier strategy: the remote
// evaluator first, then the built-in degraded fallbacks when the evaluator
// is unreachable or errors. A policy with no fallback is denied rather than
// allowed when the evaluator is down.
type PolicyService struct {
	evaluator policyeval.Evaluator // optional, nil goes straight to fallback
	timeout   time.Duration
	metrics   *wotel.Metrics // optional
	log       *slog.Logger
}

// NewPolicyService creates a PolicyService. evaluator may be nil.
func NewPolicyService(evaluator policyeval.Evaluator, timeout time.Duration, log *slog.Logger) *PolicyService {
	return &PolicyService{evaluator: evaluator, timeout: timeout, log: log}
}

// SetMetrics attaches metric instruments. Call before serving traffic.
func (s *PolicyService) SetMetrics(m *wotel.Metrics) {
	s.metrics = m
}

// Evaluate returns the decision for policyID against input. Transport
// failures, non-2xx responses and timeouts all degrade to the fallback tier;
// only an unknown policy in both tiers produces a non-nil error, and even
// then the returned decision is a deny so callers that ignore the error
// still fail closed.
func (s *PolicyService) Evaluate(ctx context.Context, policyID string, input map[string]any) (policy.Decision, error) {
	if s.evaluator != nil {
		evalCtx, cancel := context.WithTimeout(ctx, s.timeout)
		d, err := s.evaluator.Evaluate(evalCtx, policyID, input)
		cancel()
		if err == nil {
			return d, nil
		}
		s.log.Warn("policy evaluator unavailable, degrading", "policy_id", policyID, "error", err)
	}

	if fb, ok := policy.FallbackFor(policyID); ok {
		if s.metrics != nil {
			s.metrics.PolicyDegraded.Add(ctx, 1, metric.WithAttributes(attribute.String("policy.id", policyID)))
		}
		return fb(input), nil
	}

	s.log.Error("unknown policy denied", "policy_id", policyID)
	return policy.Deny("unknown policy " + policyID),
		fmt.Errorf("evaluate %q: %w", policyID, policy.ErrUnknownPolicy)
}

// KnownPolicies returns the policy identifiers with a degraded fallback,
// sorted. Exposed on the control-plane API for operator visibility.
func (s *PolicyService) KnownPolicies() []string {
	return policy.KnownFallbacks()
}
