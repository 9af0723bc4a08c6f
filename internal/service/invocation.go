package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	wotel "github.com/Strob0t/Warden/internal/adapter/otel"
	"github.com/Strob0t/Warden/internal/domain/audit"
)

// ErrInvocationNotAuthorized is returned when the allowlist does not permit
// the caller to invoke the callee.
var ErrInvocationNotAuthorized = errors.New("invocation not authorized")

// allowlistFile is the on-disk shape of the invocation allowlist: each
// callee maps to the callers permitted to invoke it.
type allowlistFile struct {
	InvocationPolicy map[string][]string `yaml:"invocation_policy"`
}

// InvocationService gates agent-to-agent calls through a directional
// allowlist keyed by callee. Unknown pairs are denied, and every
// authorization check lands in the audit trail whatever the outcome.
type InvocationService struct {
	mu        sync.RWMutex
	allowlist map[string]map[string]struct{} // callee -> allowed callers

	runtimes *RuntimeService
	trail    *AuditService
	log      *slog.Logger
}

// NewInvocationService creates an InvocationService with an empty allowlist,
// which denies everything until LoadAllowlist or Allow is called.
func NewInvocationService(runtimes *RuntimeService, trail *AuditService, log *slog.Logger) *InvocationService {
	return &InvocationService{
		allowlist: make(map[string]map[string]struct{}),
		runtimes:  runtimes,
		trail:     trail,
		log:       log,
	}
}

// LoadAllowlist replaces the allowlist with the contents of the YAML file
// at path. A missing file leaves the deny-all default in place.
func (s *InvocationService) LoadAllowlist(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn("invocation allowlist missing, denying all", "path", path)
			return nil
		}
		return fmt.Errorf("read allowlist %s: %w", path, err)
	}

	var file allowlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse allowlist %s: %w", path, err)
	}

	next := make(map[string]map[string]struct{}, len(file.InvocationPolicy))
	for callee, callers := range file.InvocationPolicy {
		set := make(map[string]struct{}, len(callers))
		for _, caller := range callers {
			set[caller] = struct{}{}
		}
		next[callee] = set
	}

	s.mu.Lock()
	s.allowlist = next
	s.mu.Unlock()

	s.log.Info("invocation allowlist loaded", "path", path, "callees", len(next))
	return nil
}

// Allow adds a caller to a callee's allowed set at runtime.
func (s *InvocationService) Allow(callerID, calleeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allowlist[calleeID] == nil {
		s.allowlist[calleeID] = make(map[string]struct{})
	}
	s.allowlist[calleeID][callerID] = struct{}{}
}

// Authorize reports whether caller may invoke callee. The check is
// directional and fails closed for callees the allowlist never mentions.
// Exactly one audit entry naming both agents is appended per check.
func (s *InvocationService) Authorize(ctx context.Context, callerID, calleeID string) bool {
	s.mu.RLock()
	_, ok := s.allowlist[calleeID][callerID]
	s.mu.RUnlock()

	detail := ""
	if !ok {
		detail = fmt.Sprintf("caller %q not in allowlist for callee %q", callerID, calleeID)
	}
	s.trail.Append(ctx, audit.Invocation(callerID, calleeID, ok, detail))
	return ok
}

// Invoke authorizes and then routes a capability call to the callee's own
// governed runtime, so the callee's declared set, kill switch and audit
// trail all apply as if the callee were called directly.
func (s *InvocationService) Invoke(ctx context.Context, callerID, calleeID, tool string, args map[string]any) (any, error) {
	ctx, span := wotel.StartInvocationSpan(ctx, callerID, calleeID)
	defer span.End()

	if !s.Authorize(ctx, callerID, calleeID) {
		return nil, fmt.Errorf("invoke %q -> %q: %w", callerID, calleeID, ErrInvocationNotAuthorized)
	}

	rt, err := s.runtimes.Build(ctx, calleeID)
	if err != nil {
		return nil, fmt.Errorf("invoke %q -> %q: %w", callerID, calleeID, err)
	}
	return rt.Call(ctx, tool, args)
}

// Callees returns the callee identifiers present in the allowlist, sorted.
func (s *InvocationService) Callees() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.allowlist))
	for callee := range s.allowlist {
		out = append(out, callee)
	}
	sort.Strings(out)
	return out
}

// CallersOf returns the callers allowed to invoke callee, sorted.
func (s *InvocationService) CallersOf(calleeID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.allowlist[calleeID]))
	for caller := range s.allowlist[calleeID] {
		out = append(out, caller)
	}
	sort.Strings(out)
	return out
}
