// Package handler contains the HTTP handlers.
//
// Handlers only speak HTTP: decode the request, call one service method,
// encode the response. API handlers return an error instead of writing it,
// and apiHandler turns that error into the JSON error body in one place.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/character-studio/internal/apperror"
	"github.com/sakif/character-studio/internal/respond"
)

const maxBodyBytes = 1 << 20

// apiFunc is a handler whose failure is reported by return value.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// apiHandler renders fn's error with prefix, e.g. "LoginHandler: ".
// Server-side failures are logged; client errors are not.
func apiHandler(logger *slog.Logger, prefix string, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status, kind := respond.Status(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("handler", prefix),
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("request rejected",
				slog.String("handler", prefix),
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
		}
		respond.Error(w, prefix, err)
	}
}

// decodeJSON reads one JSON object from the body into dst.
// Malformed or oversized bodies are a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperror.ValidationFailed("body", "Request body too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "Request body is required")
		default:
			return apperror.ValidationFailed("body", "Invalid request body")
		}
	}
	return nil
}
