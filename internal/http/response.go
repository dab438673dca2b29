package http

import (
	"encoding/json"
	"net/http"

	applog "fust/internal/log"
)

// createdResponse answers a successful insert.
type createdResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// failureResponse answers a rejected write.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// errorResponse answers a failed read.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status. Encoding errors are logged;
// the status line has already been sent by then.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode JSON response",
			applog.FieldError, err, applog.FieldPath, r.URL.Path)
	}
}

func writeCreated(w http.ResponseWriter, r *http.Request, id int64) {
	writeJSON(w, r, http.StatusCreated, createdResponse{Success: true, ID: id})
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, failureResponse{Success: false, Error: msg})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeStoreError logs a failed read and answers 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), "Store read failed", err, applog.ComponentHTTP, op, applog.NewFields())
	writeError(w, r, http.StatusInternalServerError, err.Error())
}
