package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fossabot/versicle/internal/contextutil"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports the health of the service and its dependencies.
type HealthHandler struct {
	db Pinger
}

// HealthResponse is the JSON response for the health endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   string            `json:"time"`
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles GET /api/health requests.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "ok"

	if err := h.db.PingContext(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		checks["database"] = err.Error()
		status = "degraded"
	} else {
		checks["database"] = "ok"
	}

	resp := HealthResponse{
		Status: status,
		Checks: checks,
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}
