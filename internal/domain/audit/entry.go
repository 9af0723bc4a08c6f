// Package audit defines the immutable audit entry recorded for every
// governed event: capability calls, policy checks, decisions and
// agent-to-agent invocations.
package audit

import "time"

// Kind is the event kind of an audit entry.
type Kind string

const (
	KindCapabilityCall Kind = "capability_call"
	KindPolicyCheck    Kind = "policy_check"
	KindDecision       Kind = "decision"
	KindInvocation     Kind = "invocation"
)

// ResultSummaryLimit bounds the stored size of a capability result summary.
// Full results never enter the trail.
const ResultSummaryLimit = 200

// Entry is one immutable audit record. Seq is assigned when the trail
// accepts the entry and totally orders entries per agent; entries are never
// mutated or reordered after append.
type Entry struct {
	ID        string         `json:"id"`
	AgentID   string         `json:"agent_id"`
	Kind      Kind           `json:"kind"`
	Payload   map[string]any `json:"payload"`
	RequestID string         `json:"request_id,omitempty"`
	Seq       int64          `json:"seq"`
	CreatedAt time.Time      `json:"created_at"`
}

// CapabilityCall builds an entry for a tool invocation. The result summary
// is truncated to ResultSummaryLimit.
func CapabilityCall(agentID, tool string, args map[string]any, resultSummary string, callErr error) Entry {
	payload := map[string]any{
		"tool":           tool,
		"args":           args,
		"result_summary": Summarize(resultSummary),
	}
	if callErr != nil {
		payload["error"] = callErr.Error()
	}
	return Entry{AgentID: agentID, Kind: KindCapabilityCall, Payload: payload}
}

// PolicyCheck builds an entry for a policy evaluation.
func PolicyCheck(agentID, policyID string, input map[string]any, allowed bool, reason string) Entry {
	return Entry{
		AgentID: agentID,
		Kind:    KindPolicyCheck,
		Payload: map[string]any{
			"policy_id": policyID,
			"input":     input,
			"allowed":   allowed,
			"reason":    reason,
		},
	}
}

// Decision builds an entry for a free-text agent decision.
func Decision(agentID, label string, context map[string]any) Entry {
	if context == nil {
		context = map[string]any{}
	}
	return Entry{
		AgentID: agentID,
		Kind:    KindDecision,
		Payload: map[string]any{
			"decision": label,
			"context":  context,
		},
	}
}

// Invocation builds an entry for an agent-to-agent authorization check.
// Both identifiers are recorded regardless of outcome so unauthorized
// attempt patterns stay visible without a separate security log.
func Invocation(callerID, calleeID string, authorized bool, detail string) Entry {
	payload := map[string]any{
		"caller_id":  callerID,
		"callee_id":  calleeID,
		"authorized": authorized,
	}
	if detail != "" {
		payload["detail"] = detail
	}
	return Entry{AgentID: callerID, Kind: KindInvocation, Payload: payload}
}

// Summarize truncates s to ResultSummaryLimit runes, never splitting a
// multi-byte sequence.
func Summarize(s string) string {
	if len(s) <= ResultSummaryLimit {
		return s
	}
	n := 0
	for i := range s {
		if n == ResultSummaryLimit {
			return s[:i]
		}
		n++
	}
	return s
}
