package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Pinger is anything the readiness probe can check
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	store  Pinger
	redis  Pinger
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. redis may be nil when the
// server runs without it.
func NewHealthHandler(store, redis Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{store: store, redis: redis, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe). Redis is
// optional and never fails readiness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  Version,
		Uptime:   time.Since(startTime).String(),
		Database: "connected",
		Redis:    "disabled",
	}

	if h.redis != nil {
		status.Redis = "connected"
		if err := h.redis.Ping(r.Context()); err != nil {
			h.logger.Warnw("Redis ping failed", "error", err)
			status.Redis = "disconnected"
		}
	}

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warnw("Store ping failed", "error", err)
		status.Status = "not ready"
		status.Database = "disconnected"
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }
