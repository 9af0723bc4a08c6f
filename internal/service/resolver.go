package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/port/cache"
	"github.com/Strob0t/Warden/internal/port/definitions"
)

// DefinitionService resolves agent definitions: cache, then the primary
// source, then the local fallback source on ANY primary failure, including
// not-found. Resolved definitions are normalized and validated before use.
type DefinitionService struct {
	primary  definitions.Source
	fallback definitions.Source // optional, nil disables degraded resolution
	cache    cache.Cache        // optional, nil disables caching
	ttl      time.Duration
	group    singleflight.Group
	log      *slog.Logger
}

// NewDefinitionService creates a DefinitionService. fallback and c may be nil.
func NewDefinitionService(primary, fallback definitions.Source, c cache.Cache, ttl time.Duration, log *slog.Logger) *DefinitionService {
	return &DefinitionService{
		primary:  primary,
		fallback: fallback,
		cache:    c,
		ttl:      ttl,
		log:      log,
	}
}

// Resolve returns the definition for agentID. Concurrent resolutions of the
// same agent are collapsed into one upstream fetch.
func (s *DefinitionService) Resolve(ctx context.Context, agentID string) (*agent.Definition, error) {
	if def, ok := s.fromCache(ctx, agentID); ok {
		return def, nil
	}

	v, err, _ := s.group.Do(agentID, func() (any, error) {
		return s.fetch(ctx, agentID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*agent.Definition), nil
}

// Invalidate drops the cached definition so the next resolve refetches.
func (s *DefinitionService) Invalidate(ctx context.Context, agentID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cacheKey(agentID))
}

func (s *DefinitionService) fetch(ctx context.Context, agentID string) (*agent.Definition, error) {
	def, primaryErr := s.primary.Fetch(ctx, agentID)
	if primaryErr != nil {
		if s.fallback == nil {
			return nil, fmt.Errorf("resolve %q: %w", agentID, primaryErr)
		}

		s.log.Warn("primary definition source failed, using fallback", "agent_id", agentID, "error", primaryErr)
		var fallbackErr error
		def, fallbackErr = s.fallback.Fetch(ctx, agentID)
		if fallbackErr != nil {
			return nil, fmt.Errorf("resolve %q: primary: %w; fallback: %w", agentID, primaryErr, fallbackErr)
		}
	}

	def.Normalize()
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("resolve %q: %w", agentID, err)
	}

	s.toCache(ctx, agentID, def)
	return def, nil
}

func (s *DefinitionService) fromCache(ctx context.Context, agentID string) (*agent.Definition, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, ok, err := s.cache.Get(ctx, cacheKey(agentID))
	if err != nil || !ok {
		return nil, false
	}

	var def agent.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		_ = s.cache.Delete(ctx, cacheKey(agentID))
		return nil, false
	}
	return &def, true
}

func (s *DefinitionService) toCache(ctx context.Context, agentID string, def *agent.Definition) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(def)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(agentID), data, s.ttl); err != nil {
		s.log.Debug("definition cache set failed", "agent_id", agentID, "error", err)
	}
}

func cacheKey(agentID string) string {
	return "def:" + agentID
}
