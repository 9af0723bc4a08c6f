// Package service implements Warden's governance use cases on top of the
// domain types and port interfaces.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/Strob0t/Warden/internal/port/broadcast"
	"github.com/Strob0t/Warden/internal/port/messagequeue"
)

// killSwitchMsg is the wire form of a kill-switch flip broadcast over NATS
// so every runtime process converges without restart.
type killSwitchMsg struct {
	ID       string `json:"id"`
	Disabled bool   `json:"disabled"`
}

// KillSwitchService holds the authoritative disabled sets for agents and
// models. Flips are idempotent and effective for the next authorization
// check; in-flight calls are not interrupted.
type KillSwitchService struct {
	mu     sync.RWMutex
	agents map[string]struct{}
	models map[string]struct{}

	queue messagequeue.Queue    // optional, nil disables broadcast
	hub   broadcast.Broadcaster // optional, nil disables live streaming
	log   *slog.Logger
}

// NewKillSwitchService creates a KillSwitchService. queue may be nil for
// single-process deployments.
func NewKillSwitchService(queue messagequeue.Queue, log *slog.Logger) *KillSwitchService {
	return &KillSwitchService{
		agents: make(map[string]struct{}),
		models: make(map[string]struct{}),
		queue:  queue,
		log:    log,
	}
}

// SetBroadcaster attaches a live event broadcaster for console streaming.
func (s *KillSwitchService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// DisableAgent adds the agent to the disabled set. Idempotent.
func (s *KillSwitchService) DisableAgent(ctx context.Context, id string) {
	s.mu.Lock()
	s.agents[id] = struct{}{}
	s.mu.Unlock()

	s.log.Warn("agent disabled", "agent_id", id)
	s.publish(ctx, messagequeue.SubjectKillSwitchAgents, id, true)
}

// EnableAgent removes the agent from the disabled set. Idempotent.
func (s *KillSwitchService) EnableAgent(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.agents, id)
	s.mu.Unlock()

	s.log.Info("agent enabled", "agent_id", id)
	s.publish(ctx, messagequeue.SubjectKillSwitchAgents, id, false)
}

// DisableModel adds the model to the disabled set. Idempotent.
func (s *KillSwitchService) DisableModel(ctx context.Context, id string) {
	s.mu.Lock()
	s.models[id] = struct{}{}
	s.mu.Unlock()

	s.log.Warn("model disabled", "model", id)
	s.publish(ctx, messagequeue.SubjectKillSwitchModels, id, true)
}

// EnableModel removes the model from the disabled set. Idempotent.
func (s *KillSwitchService) EnableModel(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.models, id)
	s.mu.Unlock()

	s.log.Info("model enabled", "model", id)
	s.publish(ctx, messagequeue.SubjectKillSwitchModels, id, false)
}

// AgentDisabled reports whether the agent is currently disabled.
func (s *KillSwitchService) AgentDisabled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.agents[id]
	return ok
}

// ModelDisabled reports whether the model is currently disabled.
func (s *KillSwitchService) ModelDisabled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.models[id]
	return ok
}

// Snapshot returns the disabled agent and model sets, sorted, for the
// control-plane status endpoint.
func (s *KillSwitchService) Snapshot() (agents, models []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents = make([]string, 0, len(s.agents))
	for id := range s.agents {
		agents = append(agents, id)
	}
	models = make([]string, 0, len(s.models))
	for id := range s.models {
		models = append(models, id)
	}
	sort.Strings(agents)
	sort.Strings(models)
	return agents, models
}

// StartSubscriber wires the service to kill-switch broadcasts from other
// processes. Returns a cancel function for both subscriptions.
func (s *KillSwitchService) StartSubscriber(ctx context.Context) (cancel func(), err error) {
	if s.queue == nil {
		return func() {}, nil
	}

	cancelAgents, err := s.queue.Subscribe(ctx, messagequeue.SubjectKillSwitchAgents, s.applyRemote(s.agents))
	if err != nil {
		return nil, err
	}
	cancelModels, err := s.queue.Subscribe(ctx, messagequeue.SubjectKillSwitchModels, s.applyRemote(s.models))
	if err != nil {
		cancelAgents()
		return nil, err
	}

	return func() {
		cancelAgents()
		cancelModels()
	}, nil
}

// applyRemote returns a handler that applies a remote flip to the given set
// without re-publishing it.
func (s *KillSwitchService) applyRemote(set map[string]struct{}) messagequeue.Handler {
	return func(_ context.Context, subject string, data []byte) error {
		var msg killSwitchMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Error("malformed kill-switch broadcast", "subject", subject, "error", err)
			return err
		}

		s.mu.Lock()
		if msg.Disabled {
			set[msg.ID] = struct{}{}
		} else {
			delete(set, msg.ID)
		}
		s.mu.Unlock()

		s.log.Info("applied remote kill-switch flip", "subject", subject, "id", msg.ID, "disabled", msg.Disabled)
		return nil
	}
}

func (s *KillSwitchService) publish(ctx context.Context, subject, id string, disabled bool) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, "killswitch.flip", killSwitchMsg{ID: id, Disabled: disabled})
	}
	if s.queue == nil {
		return
	}

	data, err := json.Marshal(killSwitchMsg{ID: id, Disabled: disabled})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		// The local set is already updated; the broadcast is best effort.
		s.log.Error("kill-switch broadcast failed", "subject", subject, "id", id, "error", err)
	}
}
