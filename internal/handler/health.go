package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/character-studio/internal/respond"
)

// Pinger is implemented by both stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /healthz: 200 when the store answers within 2s, 503 otherwise.
func Health(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("health check failed", slog.String("error", err.Error()))
			respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
