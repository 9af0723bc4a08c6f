package http

import (
	"errors"
	"net/http"

	"github.com/Strob0t/Warden/internal/domain/agent"
	"github.com/Strob0t/Warden/internal/domain/capability"
	"github.com/Strob0t/Warden/internal/service"
)

// agentCard is the discovery document for one mesh participant.
type agentCard struct {
	ID             string   `json:"id"`
	Purpose        string   `json:"purpose,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	Capabilities   []string `json:"capabilities"`
	RiskTier       string   `json:"risk_tier"`
	Interactive    bool     `json:"interactive"`
	AllowedCallers []string `json:"allowed_callers"`
}

// MeshAgents lists agent cards for every callee in the allowlist.
func (h *Handlers) MeshAgents(w http.ResponseWriter, r *http.Request) {
	cards := []agentCard{}
	for _, calleeID := range h.Mesh.Callees() {
		def, err := h.Definitions.Resolve(r.Context(), calleeID)
		if err != nil {
			// Allowlisted but unresolvable agents are skipped, not fatal.
			continue
		}
		cards = append(cards, cardFor(def, h.Mesh.CallersOf(calleeID)))
	}
	writeJSON(w, http.StatusOK, cards)
}

// MeshAgentCard returns one agent's discovery card.
func (h *Handlers) MeshAgentCard(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	def, err := h.Definitions.Resolve(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, cardFor(def, h.Mesh.CallersOf(id)))
}

// invokeRequest is the body of the mesh invocation endpoint.
type invokeRequest struct {
	CallerID   string         `json:"caller_id"`
	Capability string         `json:"capability"`
	Args       map[string]any `json:"args"`
}

// MeshInvoke authorizes and executes an agent-to-agent capability call.
func (h *Handlers) MeshInvoke(w http.ResponseWriter, r *http.Request) {
	calleeID := urlParam(r, "id")

	req, ok := readJSON[invokeRequest](w, r)
	if !ok {
		return
	}
	if req.CallerID == "" || req.Capability == "" {
		writeError(w, http.StatusBadRequest, "caller_id and capability are required")
		return
	}

	result, err := h.Mesh.Invoke(r.Context(), req.CallerID, calleeID, req.Capability, req.Args)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvocationNotAuthorized):
			writeError(w, http.StatusForbidden, "invocation not authorized")
		case errors.Is(err, agent.ErrAgentDisabled), errors.Is(err, agent.ErrModelDisabled):
			writeError(w, http.StatusForbidden, "callee is disabled")
		case errors.Is(err, capability.ErrNotDeclared), errors.Is(err, capability.ErrNotImplemented):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeDomainError(w, err, "callee not found")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func cardFor(def *agent.Definition, callers []string) agentCard {
	return agentCard{
		ID:             def.ID,
		Purpose:        def.Purpose,
		Domain:         def.Domain,
		Capabilities:   append([]string{}, def.Capabilities...),
		RiskTier:       string(def.RiskTier),
		Interactive:    def.IsInteractive(),
		AllowedCallers: callers,
	}
}
