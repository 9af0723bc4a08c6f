// Package policy defines the normalized policy decision and the
// conservative in-process fallback rules used when the external rule
// evaluator is unreachable.
package policy

import "errors"

// ErrUnknownPolicy indicates a policy identifier outside the known fallback
// set while the external evaluator is unavailable. Callers treat it as a
// denial.
var ErrUnknownPolicy = errors.New("unknown policy")

// ErrEvaluatorUnavailable indicates the external evaluator could not be
// reached or returned an unusable response.
var ErrEvaluatorUnavailable = errors.New("policy evaluator unavailable")

// Decision is the normalized result of evaluating one policy against one
// input object. Transient; it is persisted only through an audit entry.
type Decision struct {
	Allowed bool           `json:"allowed"`
	Reason  string         `json:"reason"`
	Details map[string]any `json:"details,omitempty"`
}

// Allow builds an allowing decision with the given reason.
func Allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny builds a denying decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
