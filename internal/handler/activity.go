// Activity handlers serve the event-derived activity feed.
package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/cloudconsole/internal/activity"
	"github.com/matthewbaird/cloudconsole/internal/signals"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// ActivityHandler implements the activity HTTP endpoints.
type ActivityHandler struct {
	store  activity.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{store: store, logger: logger, now: time.Now}
}

// HandleRecent returns the newest activity across all clouds.
// GET /v1/activity
func (h *ActivityHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Recent(r.Context(), parseLimit(r, 50, 500))
	if err != nil {
		h.logger.Error("recent activity", "error", err)
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": entries})
}

// HandleGetCloudActivity returns a chronological activity feed for a cloud.
// GET /v1/activity/clouds/{id}
func (h *ActivityHandler) HandleGetCloudActivity(w http.ResponseWriter, r *http.Request) {
	cloudID := chi.URLParam(r, "id")
	if cloudID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "cloud id is required")
		return
	}

	opts := activity.DefaultQueryOptions()
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			opts.Since = &t
		}
	}
	if u := q.Get("until"); u != "" {
		if t, err := time.Parse(time.RFC3339, u); err == nil {
			opts.Until = &t
		}
	}
	if cats := q.Get("categories"); cats != "" {
		opts.Categories = strings.Split(cats, ",")
	}
	if mw := q.Get("min_weight"); mw != "" {
		opts.MinWeight = mw
	}
	opts.Limit = parseLimit(r, opts.Limit, 500)
	opts.Cursor = q.Get("cursor")

	entries, nextCursor, totalCount, err := h.store.QueryByCloud(r.Context(), cloudID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}

	resp := struct {
		Activities []types.ActivityEntry `json:"activities"`
		NextCursor string                `json:"next_cursor,omitempty"`
		TotalCount int                   `json:"total_count"`
		Period     struct {
			Since time.Time `json:"since"`
			Until time.Time `json:"until"`
		} `json:"period"`
	}{
		Activities: entries,
		NextCursor: nextCursor,
		TotalCount: totalCount,
	}
	if opts.Since != nil {
		resp.Period.Since = *opts.Since
	}
	if opts.Until != nil {
		resp.Period.Until = *opts.Until
	}
	if resp.Activities == nil {
		resp.Activities = []types.ActivityEntry{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGetSignalSummary returns the aggregated signal summary for a cloud.
// GET /v1/activity/summary/{id}
func (h *ActivityHandler) HandleGetSignalSummary(w http.ResponseWriter, r *http.Request) {
	cloudID := chi.URLParam(r, "id")
	if cloudID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "cloud id is required")
		return
	}

	now := h.now()
	// Default: 90 days lookback.
	since := now.AddDate(0, 0, -90)
	if s := r.URL.Query().Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			since = t
		}
	}

	opts := activity.QueryOptions{
		Since:     &since,
		Until:     &now,
		MinWeight: "info",
		Limit:     500, // fetch all for aggregation
	}
	entries, _, _, err := h.store.QueryByCloud(r.Context(), cloudID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, signals.Aggregate(entries, now))
}

// HandleSearchActivity searches summaries and cloud names.
// POST /v1/activity/search
func (h *ActivityHandler) HandleSearchActivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string   `json:"query"`
		CloudID    string   `json:"cloud_id,omitempty"`
		Since      string   `json:"since,omitempty"`
		Categories []string `json:"categories,omitempty"`
		Limit      int      `json:"limit,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "query is required")
		return
	}

	opts := activity.DefaultSearchOptions()
	opts.CloudID = req.CloudID
	opts.Categories = req.Categories
	if req.Limit > 0 {
		opts.Limit = req.Limit
	}
	if req.Since != "" {
		if t, err := time.Parse(time.RFC3339, req.Since); err == nil {
			opts.Since = &t
		}
	}

	entries, totalCount, err := h.store.Search(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}

	resp := struct {
		Results    []types.ActivityEntry `json:"results"`
		TotalCount int                   `json:"total_count"`
	}{
		Results:    entries,
		TotalCount: totalCount,
	}
	if resp.Results == nil {
		resp.Results = []types.ActivityEntry{}
	}

	writeJSON(w, http.StatusOK, resp)
}
