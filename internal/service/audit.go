package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	wotel "github.com/Strob0t/Warden/internal/adapter/otel"
	"github.com/Strob0t/Warden/internal/domain/audit"
	"github.com/Strob0t/Warden/internal/logger"
	"github.com/Strob0t/Warden/internal/port/auditstore"
	"github.com/Strob0t/Warden/internal/port/broadcast"
)

// requestIDFrom pulls the request ID planted by the HTTP middleware, if any.
func requestIDFrom(ctx context.Context) string {
	return logger.RequestID(ctx)
}

// AuditService is the append-only audit trail. Appends are stamped with a
// monotonic sequence number on acceptance, buffered on a channel and flushed
// to the store in batches by a single worker goroutine. The counter is
// seeded from the store's highest persisted sequence so the order survives
// process restarts. Entries are never mutated after acceptance.
type AuditService struct {
	store   auditstore.Store
	hub     broadcast.Broadcaster // optional, nil disables live streaming
	metrics *wotel.Metrics        // optional
	log     *slog.Logger

	mu      sync.RWMutex // guards closed and the channel send against Stop
	closed  bool
	ch      chan audit.Entry
	wg      sync.WaitGroup
	dropped atomic.Int64
	seq     atomic.Int64

	batchSize     int
	flushInterval time.Duration
	queryCap      int
}

// NewAuditService creates the trail and starts its flush worker.
func NewAuditService(store auditstore.Store, hub broadcast.Broadcaster, log *slog.Logger, bufferSize, batchSize int, flushInterval time.Duration, queryCap int) *AuditService {
	s := &AuditService{
		store:         store,
		hub:           hub,
		log:           log,
		ch:            make(chan audit.Entry, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		queryCap:      queryCap,
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if max, err := store.MaxSeq(seedCtx); err != nil {
		log.Warn("audit sequence seed unavailable, starting at zero", "error", err)
	} else {
		s.seq.Store(max)
	}

	s.wg.Add(1)
	go s.worker()
	return s
}

// SetMetrics attaches metric instruments. Call before serving traffic.
func (s *AuditService) SetMetrics(m *wotel.Metrics) {
	s.metrics = m
}

// Append accepts an entry into the trail without blocking the caller. The
// entry is stamped with an ID, timestamp and sequence number on acceptance;
// when the buffer is full the entry is counted as dropped rather than
// stalling an authorization path.
func (s *AuditService) Append(ctx context.Context, e audit.Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(ctx)
		return
	}

	e.ID = uuid.NewString()
	e.Seq = s.seq.Add(1)
	e.CreatedAt = time.Now().UTC()
	if e.RequestID == "" {
		e.RequestID = requestIDFrom(ctx)
	}

	select {
	case s.ch <- e:
	default:
		s.drop(ctx)
		s.log.Warn("audit buffer full, entry dropped", "agent_id", e.AgentID, "kind", e.Kind)
	}
}

// Query returns entries for the agent, most recent first. limit <= 0 or
// above the configured cap is clamped to the cap.
func (s *AuditService) Query(ctx context.Context, agentID string, limit int) ([]audit.Entry, error) {
	if limit <= 0 || limit > s.queryCap {
		limit = s.queryCap
	}
	return s.store.QueryByAgent(ctx, agentID, limit)
}

// Dropped returns the number of entries shed under backpressure.
func (s *AuditService) Dropped() int64 {
	return s.dropped.Load()
}

// Stop closes the trail for new appends and drains buffered entries to the
// store before returning. The write lock excludes in-flight Append sends,
// so the channel is never closed under a sender.
func (s *AuditService) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *AuditService) drop(ctx context.Context) {
	s.dropped.Add(1)
	if s.metrics != nil {
		s.metrics.AuditDropped.Add(ctx, 1)
	}
}

// worker batches entries from the channel and flushes on size or interval.
func (s *AuditService) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]audit.Entry, 0, s.batchSize)
	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *AuditService) flush(batch []audit.Entry) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.WriteBatch(ctx, batch); err != nil {
		s.log.Error("audit flush failed", "entries", len(batch), "error", err)
		return
	}

	if s.hub != nil {
		for i := range batch {
			s.hub.BroadcastEvent(ctx, "audit.entry", batch[i])
		}
	}
}
