// Package agent defines the governed agent definition: the static profile
// an agent instance is constructed from. Definitions are authored externally
// and read-only from the execution pipeline's perspective.
package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/Warden/internal/domain"
)

// Kill-switch sentinels. Runtime construction fails with one of these before
// any capability is resolved or any policy evaluated.
var (
	ErrAgentDisabled = errors.New("agent disabled by kill-switch")
	ErrModelDisabled = errors.New("model disabled by kill-switch")
)

// RiskTier classifies how much damage an agent can do when it misbehaves.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Level returns the ordinal rank of the tier (low < medium < high).
func (t RiskTier) Level() int {
	switch t {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// Definition is an agent's static profile. The ID is unique and immutable
// once created; versioning happens in the authoring flow, the pipeline only
// ever consumes the current version.
type Definition struct {
	ID           string    `json:"id" yaml:"id"`
	Purpose      string    `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Domain       string    `json:"domain,omitempty" yaml:"domain,omitempty"`
	Capabilities []string  `json:"capabilities" yaml:"capabilities"`
	Policies     []string  `json:"policies,omitempty" yaml:"policies,omitempty"`
	RiskTier     RiskTier  `json:"risk_tier" yaml:"risk_tier"`
	Model        string    `json:"model,omitempty" yaml:"model,omitempty"`
	Interactive  *bool     `json:"interactive,omitempty" yaml:"interactive,omitempty"`
	HumanInLoop  bool      `json:"human_in_loop,omitempty" yaml:"human_in_loop,omitempty"`
	Owner        string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	Visibility   string    `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Version      int       `json:"version,omitempty" yaml:"version,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Normalize applies the defaulting rules the resolver guarantees:
// capability names are deduplicated preserving declaration order, the risk
// tier defaults to medium, and an agent with a model reference defaults to
// interactive unless the flag was set explicitly.
func (d *Definition) Normalize() {
	d.Capabilities = dedupe(d.Capabilities)

	if d.RiskTier == "" {
		d.RiskTier = RiskMedium
	}

	if d.Interactive == nil && d.Model != "" {
		interactive := true
		d.Interactive = &interactive
	}
}

// Validate checks required-field presence. No further validation is done
// here; the authoring flow owns schema-level checks.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("agent id is required: %w", domain.ErrValidation)
	}
	if d.RiskTier != "" && d.RiskTier.Level() < 0 {
		return fmt.Errorf("unknown risk tier %q: %w", d.RiskTier, domain.ErrValidation)
	}
	return nil
}

// IsInteractive reports whether the agent supports conversational sessions.
func (d *Definition) IsInteractive() bool {
	if d.Interactive != nil {
		return *d.Interactive
	}
	return d.Model != ""
}

// DeclaresCapability reports whether name is in the declared capability set.
func (d *Definition) DeclaresCapability(name string) bool {
	for _, c := range d.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

func dedupe(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
