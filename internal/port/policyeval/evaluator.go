// Package policyeval defines the port interface for the external rule
// evaluator.
package policyeval

import (
	"context"

	"github.com/Strob0t/Warden/internal/domain/policy"
)

// Evaluator submits a policy identifier plus a structured input to an
// external rule engine and returns the normalized decision. Transport
// failures and engine errors return an error; the policy client recovers
// via its conservative fallback tier.
type Evaluator interface {
	Evaluate(ctx context.Context, policyID string, input map[string]any) (policy.Decision, error)
}
