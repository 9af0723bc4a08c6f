package http

import (
	"net/http"

	"github.com/Strob0t/Warden/internal/domain/agent"
)

// ListAgents returns all registered definitions.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Registry.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "agents not found")
		return
	}
	if defs == nil {
		defs = []agent.Definition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

// GetAgent returns one definition. This is the resolution endpoint runtime
// processes hit, so it reads through the resolver (cache plus fallback)
// rather than the registry store directly.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	def, err := h.Definitions.Resolve(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// CreateAgent registers a new definition.
func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	def, ok := readJSON[agent.Definition](w, r)
	if !ok {
		return
	}

	def.Normalize()
	if err := def.Validate(); err != nil {
		writeDomainError(w, err, "invalid definition")
		return
	}

	created, err := h.Registry.Create(r.Context(), &def)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
