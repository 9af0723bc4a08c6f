package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Strob0t/Warden/internal/domain"
	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/audit"
	"github.com/Strob0t/Warden/internal/domain/capability"
	"github.com/Strob0t/Warden/internal/domain/policy"
	"github.com/Strob0t/Warden/internal/port/messagequeue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func errNotFoundFor(id string) error {
	return fmt.Errorf("definition %q: %w", id, domain.ErrNotFound)
}

// memAuditStore is an in-memory auditstore.Store.
type memAuditStore struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *memAuditStore) WriteBatch(_ context.Context, batch []audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, batch...)
	return nil
}

func (s *memAuditStore) QueryByAgent(_ context.Context, agentID string, limit int) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []audit.Entry
	for _, e := range s.entries {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memAuditStore) MaxSeq(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, e := range s.entries {
		if e.Seq > max {
			max = e.Seq
		}
	}
	return max, nil
}

func (s *memAuditStore) all() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// memCache is an in-memory cache.Cache without TTL expiry.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// stubSource is a definitions.Source backed by a map, counting fetches.
type stubSource struct {
	mu      sync.Mutex
	defs    map[string]agent.Definition
	err     error
	fetched int
}

func (s *stubSource) Fetch(_ context.Context, agentID string) (*agent.Definition, error) {
	s.mu.Lock()
	s.fetched++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	def, ok := s.defs[agentID]
	if !ok {
		return nil, errNotFoundFor(agentID)
	}
	return &def, nil
}

func (s *stubSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched
}

// stubEvaluator is a policyeval.Evaluator delegating to a function.
type stubEvaluator struct {
	fn func(policyID string, input map[string]any) (policy.Decision, error)
}

func (e *stubEvaluator) Evaluate(_ context.Context, policyID string, input map[string]any) (policy.Decision, error) {
	return e.fn(policyID, input)
}

// staticLoader is a toolcatalog.Loader over a fixed map.
type staticLoader map[string]capability.Func

func (l staticLoader) Load(name string) (capability.Func, bool) {
	fn, ok := l[name]
	return fn, ok
}

// fakeQueue records publishes and lets tests dispatch to subscribers.
type fakeQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
	handlers  map[string][]messagequeue.Handler
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		published: make(map[string][][]byte),
		handlers:  make(map[string][]messagequeue.Handler),
	}
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published[subject] = append(q.published[subject], data)
	return nil
}

func (q *fakeQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[subject] = append(q.handlers[subject], h)
	return func() {}, nil
}

func (q *fakeQueue) dispatch(subject string, data []byte) {
	q.mu.Lock()
	handlers := append([]messagequeue.Handler(nil), q.handlers[subject]...)
	q.mu.Unlock()
	for _, h := range handlers {
		_ = h(context.Background(), subject, data)
	}
}

func (q *fakeQueue) publishedTo(subject string) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([][]byte(nil), q.published[subject]...)
}

func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }
