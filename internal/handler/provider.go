package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/cloudconsole/internal/schema"
)

// ProviderHandler exposes the loaded provider schemas.
type ProviderHandler struct {
	registry *schema.Registry
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(reg *schema.Registry) *ProviderHandler {
	return &ProviderHandler{registry: reg}
}

// ListProviders handles GET /v1/providers.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": h.registry.Names(),
		"default":   h.registry.Default().Name,
	})
}

// GetProvider handles GET /v1/providers/{name}.
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := h.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown provider: "+name)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
