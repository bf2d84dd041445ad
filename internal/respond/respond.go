// Package respond standardises JSON responses and error rendering.
//
// It is shared by the handler package and by auth.RequireAuth, so both
// produce the same error shape:
//
//	{"error": "unauthorized", "message": "AuthGuard: Invalid authorization header"}
//
// The "error" field is a machine-readable type; "message" is the handler's
// prefix followed by the AppError message, so a client-visible message can
// be traced to the step that failed.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/character-studio/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSON sends data with the given status code.
//
// Headers and status must be written BEFORE the body: once Encode writes,
// header changes are silently ignored.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// Status maps an error to its HTTP status and machine-readable type.
// Anything that is not an *apperror.AppError is an internal error.
func Status(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error"
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrConflict):
		// duplicate email is reported as a bad request, not 409
		return http.StatusBadRequest, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusInternalServerError, "upstream_error"
	case errors.Is(err, apperror.ErrConfiguration):
		return http.StatusInternalServerError, "configuration_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Error renders err with prefix prepended to its message.
//
// Unknown errors become a generic 500: the raw message might contain SQL,
// file paths or provider responses, so it is never sent to the client.
func Error(w http.ResponseWriter, prefix string, err error) {
	status, kind := Status(err)

	message := "Internal server error"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	JSON(w, status, ErrorResponse{
		Error:   kind,
		Message: prefix + message,
	})
}
