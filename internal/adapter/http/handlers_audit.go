package http

import (
	"net/http"
	"strconv"

	"github.com/Strob0t/Warden/internal/domain/audit"
)

// appendEntryRequest is the body of the audit append endpoint, used by
// runtime processes reporting decisions to a remote control plane.
type appendEntryRequest struct {
	AgentID string         `json:"agent_id"`
	Kind    audit.Kind     `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// AppendAuditEntry accepts an entry into the trail. Returns 202: acceptance
// is a buffer admission, not a durable write.
func (h *Handlers) AppendAuditEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[appendEntryRequest](w, r)
	if !ok {
		return
	}
	if req.AgentID == "" || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "agent_id and kind are required")
		return
	}

	h.Trail.Append(r.Context(), audit.Entry{
		AgentID: req.AgentID,
		Kind:    req.Kind,
		Payload: req.Payload,
	})
	w.WriteHeader(http.StatusAccepted)
}

// QueryAuditEntries returns entries for an agent, most recent first.
func (h *Handlers) QueryAuditEntries(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.Trail.Query(r.Context(), agentID, limit)
	if err != nil {
		writeDomainError(w, err, "audit entries not found")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
