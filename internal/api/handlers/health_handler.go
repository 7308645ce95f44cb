package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and dependency checks
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler creates a new health handler. cache may be nil when
// Redis is disabled.
func NewHealthHandler(db Pinger, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Database handles GET /health/db
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := map[string]string{"database": "ok"}
	if err := h.db.Ping(ctx); err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("Database health check failed")
		w.Header().Set("Retry-After", "1")
		respondWithError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}

	if h.cache != nil {
		status["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("Cache health check failed")
			status["cache"] = "degraded"
		}
	}
	respondWithData(w, http.StatusOK, status)
}
