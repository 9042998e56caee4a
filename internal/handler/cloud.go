package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

// CloudLister is the read side of the Cloud Management page.
type CloudLister interface {
	List(ctx context.Context) ([]types.Cloud, error)
	Get(ctx context.Context, id string) (types.Cloud, error)
}

// CloudHandler serves the read-only record API. Records are always masked;
// writes go through dialogs.
type CloudHandler struct {
	clouds CloudLister
	logger *slog.Logger
}

// NewCloudHandler creates a new CloudHandler.
func NewCloudHandler(clouds CloudLister, logger *slog.Logger) *CloudHandler {
	return &CloudHandler{clouds: clouds, logger: logger}
}

// ListClouds handles GET /v1/clouds.
func (h *CloudHandler) ListClouds(w http.ResponseWriter, r *http.Request) {
	list, err := h.clouds.List(r.Context())
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	out := make([]types.Cloud, 0, len(list))
	for _, c := range list {
		out = append(out, c.Masked())
	}
	writeJSON(w, http.StatusOK, map[string]any{"clouds": out, "total_count": len(out)})
}

// GetCloud handles GET /v1/clouds/{id}.
func (h *CloudHandler) GetCloud(w http.ResponseWriter, r *http.Request) {
	c, err := h.clouds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Masked())
}
