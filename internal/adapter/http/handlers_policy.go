package http

import (
	"errors"
	"net/http"

	"github.com/Strob0t/Warden/internal/domain/policy"
)

// evaluateRequest is the body of the policy evaluation endpoint.
type evaluateRequest struct {
	Input map[string]any `json:"input"`
}

// ListPolicies returns the policy identifiers with degraded fallbacks.
func (h *Handlers) ListPolicies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"known_fallbacks": h.Policies.KnownPolicies(),
	})
}

// EvaluatePolicy evaluates a policy. Policy identifiers are
// namespace/name pairs, split across two path segments. An unknown policy
// is a valid outcome (a deny), not a client error: runtimes depend on
// always getting a decision back.
func (h *Handlers) EvaluatePolicy(w http.ResponseWriter, r *http.Request) {
	policyID := urlParam(r, "namespace") + "/" + urlParam(r, "name")

	req, ok := readJSON[evaluateRequest](w, r)
	if !ok {
		return
	}

	d, err := h.Policies.Evaluate(r.Context(), policyID, req.Input)
	if err != nil && !errors.Is(err, policy.ErrUnknownPolicy) {
		writeDomainError(w, err, "policy evaluation failed")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
