package policy

import (
	"fmt"
	"sort"
)

// DefaultRetryLimit is the amount ceiling the degraded payments/retry rule
// applies when the input carries no explicit limit.
const DefaultRetryLimit = 10000

// Fallback is a conservative in-process approximation of one policy's rule,
// applied only when the external evaluator is unreachable. Approximations
// err toward denial: an outage degrades critical policies to conservative
// behavior instead of blocking all activity or silently allowing it.
type Fallback func(input map[string]any) Decision

// fallbacks is the fixed, documented set of known policy identifiers.
// Identifiers outside this set fail closed with ErrUnknownPolicy.
var fallbacks = map[string]Fallback{
	"payments/retry":    retryFallback,
	"payments/escalate": escalateFallback,
}

// FallbackFor returns the conservative approximation for a known policy
// identifier, or false when the identifier is outside the known set.
func FallbackFor(policyID string) (Fallback, bool) {
	fb, ok := fallbacks[policyID]
	return fb, ok
}

// KnownFallbacks returns the identifiers covered by in-process fallbacks.
func KnownFallbacks() []string {
	ids := make([]string, 0, len(fallbacks))
	for id := range fallbacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// retryFallback approximates payments/retry: deny blocked beneficiaries,
// allow explicit escalation, and otherwise allow only small amounts with
// few prior retries.
func retryFallback(input map[string]any) Decision {
	if truthy(input["beneficiary_blocked"]) {
		return Deny("degraded evaluation: beneficiary is blocked")
	}
	if truthy(input["escalation_requested"]) {
		return Allow("degraded evaluation: escalation requested")
	}

	limit := DefaultRetryLimit
	if v, ok := asFloat(input["limit"]); ok {
		limit = int(v)
	}

	amount, hasAmount := asFloat(input["amount"])
	retries, _ := asFloat(input["previous_retries"])

	if hasAmount && amount <= float64(limit) && retries < 2 {
		return Allow("degraded evaluation: within limits")
	}
	return Deny(fmt.Sprintf("degraded evaluation: amount or retry count exceeds limit %d", limit))
}

// escalateFallback always allows: handing off to a human is the safe path.
func escalateFallback(map[string]any) Decision {
	return Allow("degraded evaluation: escalation to human is always permitted")
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// asFloat coerces the numeric shapes JSON and YAML decoding produce.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
