package http

import (
	"net/http"

	"github.com/Strob0t/Warden/internal/port/definitions"
	"github.com/Strob0t/Warden/internal/port/messagequeue"
	"github.com/Strob0t/Warden/internal/port/toolcatalog"
	"github.com/Strob0t/Warden/internal/service"
)

// Handlers bundles the services exposed over the control-plane API.
type Handlers struct {
	Definitions *service.DefinitionService
	Registry    definitions.Store
	KillSwitch  *service.KillSwitchService
	Policies    *service.PolicyService
	Trail       *service.AuditService
	Runtimes    *service.RuntimeService
	Mesh        *service.InvocationService
	Catalog     toolcatalog.Catalog // optional
	Queue       messagequeue.Queue  // optional, health reporting only
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady reports readiness including downstream connectivity.
func (h *Handlers) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":        "ok",
		"audit_dropped": h.Trail.Dropped(),
	}
	if h.Queue != nil {
		resp["nats_connected"] = h.Queue.IsConnected()
	}
	writeJSON(w, http.StatusOK, resp)
}
