package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/Warden/internal/domain/audit"
)

// AuditStore implements auditstore.Store using PostgreSQL. The table is
// append-only: no update or delete statement exists in this package.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// WriteBatch persists a batch of entries in one round trip.
func (s *AuditStore) WriteBatch(ctx context.Context, entries []audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", e.ID, err)
		}
		batch.Queue(
			`INSERT INTO audit_entries (id, agent_id, kind, payload, request_id, seq, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.AgentID, string(e.Kind), payload, e.RequestID, e.Seq, e.CreatedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("write audit batch: %w", err)
		}
	}
	return nil
}

// MaxSeq returns the highest persisted sequence number, 0 for an empty table.
func (s *AuditStore) MaxSeq(ctx context.Context) (int64, error) {
	var max int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM audit_entries`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max audit seq: %w", err)
	}
	return max, nil
}

// QueryByAgent returns entries for the agent, most recent first.
func (s *AuditStore) QueryByAgent(ctx context.Context, agentID string, limit int) ([]audit.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, agent_id, kind, payload, request_id, seq, created_at
		 FROM audit_entries WHERE agent_id = $1 ORDER BY seq DESC LIMIT $2`,
		agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var kind string
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AgentID, &kind, &payload, &e.RequestID, &e.Seq, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Kind = audit.Kind(kind)
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
