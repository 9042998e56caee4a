package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/matthewbaird/cloudconsole/internal/form"
	"github.com/matthewbaird/cloudconsole/internal/form/field"
	"github.com/matthewbaird/cloudconsole/internal/store"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON encode error", "error", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseLimit reads the limit query param, clamped to ceiling.
func parseLimit(r *http.Request, def, ceiling int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, ceiling)
}

// errorStatus maps domain errors to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, form.ErrBusy):
		return http.StatusConflict, "BUSY"
	case errors.Is(err, form.ErrNotReady):
		return http.StatusConflict, "NOT_READY"
	case errors.Is(err, form.ErrClosed):
		return http.StatusGone, "CLOSED"
	case errors.Is(err, form.ErrUnknownField),
		errors.Is(err, form.ErrBadRequest),
		errors.Is(err, field.ErrUnsupportedInput),
		errors.Is(err, field.ErrInvalidOption):
		return http.StatusBadRequest, "INVALID_INPUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// errorToHTTP writes the JSON error response for err.
func errorToHTTP(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("internal error", "error", err)
		writeError(w, status, code, "internal server error")
		return
	}
	writeError(w, status, code, err.Error())
}
