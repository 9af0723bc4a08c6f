package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/capability"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
)

// CapabilityGateway is the per-agent tool surface. It holds the immutable
// declared set from the agent's definition plus the mutable bindings
// registered at runtime. Resolution checks the declared set before anything
// else: registering an undeclared implementation never widens the surface,
// and loaders are consulted only for names that already passed the check.
type CapabilityGateway struct {
	agentID  string
	declared map[string]struct{}

	mu       sync.RWMutex
	bindings map[string]capability.Func

	loaders []toolcatalog.Loader
}

// NewCapabilityGateway builds the gateway for def. loaders are consulted in
// order for declared-but-unbound names.
func NewCapabilityGateway(def *agent.Definition, loaders ...toolcatalog.Loader) *CapabilityGateway {
	declared := make(map[string]struct{}, len(def.Capabilities))
	for _, name := range def.Capabilities {
		declared[name] = struct{}{}
	}
	return &CapabilityGateway{
		agentID:  def.ID,
		declared: declared,
		bindings: make(map[string]capability.Func),
		loaders:  loaders,
	}
}

// Register binds an implementation to name. Last write wins. Registration
// succeeds even for undeclared names; the declared-set check happens at
// resolution so a stale binding can never leak through.
func (g *CapabilityGateway) Register(name string, fn capability.Func) {
	g.mu.Lock()
	g.bindings[name] = fn
	g.mu.Unlock()
}

// Resolve returns the implementation for name. The declared set is checked
// first; an undeclared name fails identically whether or not an
// implementation is registered.
func (g *CapabilityGateway) Resolve(name string) (capability.Func, error) {
	if _, ok := g.declared[name]; !ok {
		return nil, fmt.Errorf("agent %q capability %q: %w", g.agentID, name, capability.ErrNotDeclared)
	}

	g.mu.RLock()
	fn, ok := g.bindings[name]
	g.mu.RUnlock()
	if ok {
		return fn, nil
	}

	for _, loader := range g.loaders {
		if fn, ok := loader.Load(name); ok {
			g.mu.Lock()
			g.bindings[name] = fn
			g.mu.Unlock()
			return fn, nil
		}
	}

	return nil, fmt.Errorf("agent %q capability %q: %w", g.agentID, name, capability.ErrNotImplemented)
}

// Declared returns the declared capability names, sorted.
func (g *CapabilityGateway) Declared() []string {
	names := make([]string, 0, len(g.declared))
	for name := range g.declared {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
