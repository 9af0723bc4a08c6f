package http

import "net/http"

// killSwitchStatus is the response shape of the kill-switch status endpoint.
type killSwitchStatus struct {
	DisabledAgents []string `json:"disabled_agents"`
	DisabledModels []string `json:"disabled_models"`
}

// KillSwitchStatus returns both disabled sets.
func (h *Handlers) KillSwitchStatus(w http.ResponseWriter, _ *http.Request) {
	agents, models := h.KillSwitch.Snapshot()
	writeJSON(w, http.StatusOK, killSwitchStatus{
		DisabledAgents: agents,
		DisabledModels: models,
	})
}

// AgentKillState reports whether one agent is disabled.
func (h *Handlers) AgentKillState(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": h.KillSwitch.AgentDisabled(id)})
}

// ModelKillState reports whether one model is disabled.
func (h *Handlers) ModelKillState(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": h.KillSwitch.ModelDisabled(id)})
}

// DisableAgent flips the kill switch on for an agent. Idempotent.
func (h *Handlers) DisableAgent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.KillSwitch.DisableAgent(r.Context(), id)
	h.Definitions.Invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": true})
}

// EnableAgent flips the kill switch off for an agent. Idempotent.
func (h *Handlers) EnableAgent(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.KillSwitch.EnableAgent(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": false})
}

// DisableModel flips the kill switch on for a model. Idempotent.
func (h *Handlers) DisableModel(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.KillSwitch.DisableModel(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": true})
}

// EnableModel flips the kill switch off for a model. Idempotent.
func (h *Handlers) EnableModel(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	h.KillSwitch.EnableModel(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "disabled": false})
}
