package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/Warden/internal/domain"
	"github.com/Strob0t/Warden/internal/domain/agent"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// DefinitionStore implements definitions.Store using PostgreSQL.
type DefinitionStore struct {
	pool *pgxpool.Pool
}

// NewDefinitionStore creates a DefinitionStore backed by the given pool.
func NewDefinitionStore(pool *pgxpool.Pool) *DefinitionStore {
	return &DefinitionStore{pool: pool}
}

const definitionColumns = `id, purpose, domain, capabilities, policies, risk_tier, model, interactive, human_in_loop, owner, visibility, version, created_at, updated_at`

// Fetch returns the definition for agentID, or wrapped domain.ErrNotFound.
func (s *DefinitionStore) Fetch(ctx context.Context, agentID string) (*agent.Definition, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+definitionColumns+` FROM agent_definitions WHERE id = $1`, agentID)

	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("definition %q: %w", agentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("fetch definition %q: %w", agentID, err)
	}
	return def, nil
}

// List returns all definitions, newest first.
func (s *DefinitionStore) List(ctx context.Context) ([]agent.Definition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+definitionColumns+` FROM agent_definitions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var defs []agent.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// Create persists a new definition. A duplicate ID is a conflict.
func (s *DefinitionStore) Create(ctx context.Context, def *agent.Definition) (*agent.Definition, error) {
	capabilities, err := json.Marshal(orEmpty(def.Capabilities))
	if err != nil {
		return nil, fmt.Errorf("marshal capabilities: %w", err)
	}
	policies, err := json.Marshal(orEmpty(def.Policies))
	if err != nil {
		return nil, fmt.Errorf("marshal policies: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO agent_definitions (id, purpose, domain, capabilities, policies, risk_tier, model, interactive, human_in_loop, owner, visibility)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+definitionColumns,
		def.ID, def.Purpose, def.Domain, capabilities, policies,
		string(def.RiskTier), def.Model, def.Interactive, def.HumanInLoop,
		def.Owner, def.Visibility)

	created, err := scanDefinition(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("definition %q already exists: %w", def.ID, domain.ErrValidation)
		}
		return nil, fmt.Errorf("create definition %q: %w", def.ID, err)
	}
	return created, nil
}

func scanDefinition(row scannable) (*agent.Definition, error) {
	var def agent.Definition
	var capabilities, policies []byte
	var riskTier string

	err := row.Scan(&def.ID, &def.Purpose, &def.Domain, &capabilities, &policies,
		&riskTier, &def.Model, &def.Interactive, &def.HumanInLoop,
		&def.Owner, &def.Visibility, &def.Version, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	def.RiskTier = agent.RiskTier(riskTier)
	if err := json.Unmarshal(capabilities, &def.Capabilities); err != nil {
		return nil, fmt.Errorf("unmarshal capabilities: %w", err)
	}
	if err := json.Unmarshal(policies, &def.Policies); err != nil {
		return nil, fmt.Errorf("unmarshal policies: %w", err)
	}
	return &def, nil
}

// orEmpty ensures JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
