package http

import (
	"net/http"

	"github.com/Strob0t/Warden/internal/port/toolcatalog"
)

// ListTools returns the catalog entries plus the registered builtins.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	catalog := []toolcatalog.Meta{}
	if h.Catalog != nil {
		catalog = h.Catalog.List()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"catalog":  catalog,
		"builtins": toolcatalog.BuiltinNames(),
	})
}
