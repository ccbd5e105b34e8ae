package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nurbekov/csvtodo/internal/store"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
// status is typically http.StatusBadRequest (400).
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	json.NewEncoder(w).Encode(out)
}

// JSONStoreError maps a record store failure onto the HTTP taxonomy:
// duplicate key -> 409 with the store's message, not found -> 404, anything
// else -> generic 500.
func JSONStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	default:
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}

// writeJSON sends v as a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
