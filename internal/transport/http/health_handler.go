package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthHandler serves liveness and version information
type HealthHandler struct {
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startedAt: time.Now(),
		logger:    logger.With(slog.String("component", "health_handler")),
	}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
