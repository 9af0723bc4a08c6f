// Package auditstore defines the port interface for the append-only audit
// store backing the trail.
package auditstore

import (
	"context"

	"github.com/Strob0t/Warden/internal/domain/audit"
)

// Store persists and queries audit entries. WriteBatch is called only by
// the trail's worker goroutine; QueryByAgent may be called concurrently.
type Store interface {
	// WriteBatch persists a batch of entries in one round trip.
	WriteBatch(ctx context.Context, entries []audit.Entry) error

	// QueryByAgent returns entries for the agent, most recent first,
	// bounded by limit (limit <= 0 means the store's retention cap).
	QueryByAgent(ctx context.Context, agentID string, limit int) ([]audit.Entry, error)

	// MaxSeq returns the highest sequence number persisted so far, or 0
	// for an empty store. The trail seeds its counter from this so the
	// order survives process restarts.
	MaxSeq(ctx context.Context) (int64, error)
}
