package handler

// Response helpers. Every error response from the API has the same shape:
//
//	{"success": false, "message": "Wrong credentials!"}
//
// and the HTTP status reflects the error class (400/401/403/404/409/500).
// Success payloads vary per endpoint, but mutating endpoints wrap their
// result in {"success": true, "message": ..., ...}. The client adapter
// relies on this envelope to build its typed results.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/estate/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"` // always false
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — w.Write sends them.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends the standard error envelope.
//
// The service layer returns apperror sentinels; this is the single place
// they are translated to HTTP. Unknown errors become a generic 500 — raw
// error text can contain SQL or file paths and never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}

		writeJSON(w, status, ErrorResponse{Success: false, Message: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Message: "An internal error occurred",
	})
}
