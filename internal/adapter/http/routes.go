package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/Warden/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. Mutating
// routes (kill-switch flips, definition writes) sit behind the admin token.
func MountRoutes(r chi.Router, h *Handlers, adminToken string) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.HealthReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Agent definitions
		r.Get("/agents", h.ListAgents)
		r.Get("/agents/{id}", h.GetAgent)
		r.With(middleware.AdminToken(adminToken)).Post("/agents", h.CreateAgent)

		// Kill switch
		r.Get("/kill-switch", h.KillSwitchStatus)
		r.Get("/kill-switch/agents/{id}", h.AgentKillState)
		r.Get("/kill-switch/models/{id}", h.ModelKillState)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(adminToken))
			r.Post("/kill-switch/agents/{id}", h.DisableAgent)
			r.Delete("/kill-switch/agents/{id}", h.EnableAgent)
			r.Post("/kill-switch/models/{id}", h.DisableModel)
			r.Delete("/kill-switch/models/{id}", h.EnableModel)
		})

		// Policies
		r.Get("/policies", h.ListPolicies)
		r.Post("/policies/{namespace}/{name}/evaluate", h.EvaluatePolicy)

		// Audit trail
		r.Post("/audit/entries", h.AppendAuditEntry)
		r.Get("/audit/entries", h.QueryAuditEntries)

		// Agent mesh
		r.Get("/mesh/agents", h.MeshAgents)
		r.Get("/mesh/agents/{id}", h.MeshAgentCard)
		r.Post("/mesh/agents/{id}/invoke", h.MeshInvoke)

		// Tool catalog
		r.Get("/tools", h.ListTools)
	})
}
