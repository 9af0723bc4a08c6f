// Package definitions defines the port interfaces for reading and authoring
// agent definitions.
package definitions

import (
	"context"

	"github.com/Strob0t/Warden/internal/domain/agent"
)

// Source fetches the current definition for an agent identifier.
// Implementations return domain.ErrNotFound (wrapped) when the identifier
// is unknown; any other error is a transport failure the resolver may
// recover from via its fallback source.
type Source interface {
	Fetch(ctx context.Context, agentID string) (*agent.Definition, error)
}

// Store is the authoring-side registry interface: Source plus the writes
// the external authoring flow performs.
type Store interface {
	Source

	// List returns all definitions, newest first.
	List(ctx context.Context) ([]agent.Definition, error)

	// Create persists a new definition. The identifier is immutable once
	// created; a duplicate returns an error.
	Create(ctx context.Context, def *agent.Definition) (*agent.Definition, error)
}
