package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/cloudconsole/internal/form"
)

// DialogHandler is the JSON API over dialog sessions.
type DialogHandler struct {
	dialogs *Dialogs
	logger  *slog.Logger
}

// NewDialogHandler creates a new DialogHandler.
func NewDialogHandler(d *Dialogs, logger *slog.Logger) *DialogHandler {
	return &DialogHandler{dialogs: d, logger: logger}
}

// OpenDialog handles POST /v1/dialogs.
func (h *DialogHandler) OpenDialog(w http.ResponseWriter, r *http.Request) {
	var req form.OpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	s, err := h.dialogs.Open(r.Context(), req)
	if err != nil {
		errorToHTTP(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// GetDialog handles GET /v1/dialogs/{id}.
func (h *DialogHandler) GetDialog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// PostEvent handles POST /v1/dialogs/{id}/events. Outcomes the snapshot
// already reports (validation errors, a failed submit) are a 200 with the
// new snapshot; only refused requests are errors.
func (h *DialogHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var ev form.Event
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	err := s.Dispatch(r.Context(), ev)
	if form.Rejected(err) {
		errorToHTTP(w, h.logger, err)
		return
	}
	if err != nil && !errors.Is(err, form.ErrInvalid) {
		h.logger.Warn("dialog event failed", "dialog_id", s.ID(), "type", ev.Type, "error", err)
	}
	snap := s.Snapshot()
	if snap.State == form.StateClosed {
		h.dialogs.Remove(s.ID())
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseDialog handles DELETE /v1/dialogs/{id}.
func (h *DialogHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if s.State() == form.StateSubmitting {
		errorToHTTP(w, h.logger, form.ErrBusy)
		return
	}
	h.dialogs.Remove(s.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *DialogHandler) session(w http.ResponseWriter, r *http.Request) (*form.Session, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.dialogs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "dialog not found: "+id)
		return nil, false
	}
	return s, true
}
