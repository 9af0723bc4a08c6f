package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "warden"

// StartCapabilitySpan starts a span for a governed capability call.
func StartCapabilitySpan(ctx context.Context, agentID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "capability.call",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("capability.name", tool),
		),
	)
}

// StartPolicySpan starts a span for a policy evaluation.
func StartPolicySpan(ctx context.Context, agentID, policyID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "policy.evaluate",
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("policy.id", policyID),
		),
	)
}

// StartInvocationSpan starts a span for an agent-to-agent invocation.
func StartInvocationSpan(ctx context.Context, callerID, calleeID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent.invoke",
		trace.WithAttributes(
			attribute.String("caller.id", callerID),
			attribute.String("callee.id", calleeID),
		),
	)
}
