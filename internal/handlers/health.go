package handlers

import (
	"context"
	"net/http"
	"time"

	"vector-starter/internal/contextutil"
	"vector-starter/internal/vectordb"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	client             vectordb.Client
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(client vectordb.Client) *HealthHandler {
	return &HealthHandler{
		client:             client,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP reports whether the vector database is reachable.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"vector_db": "ok"},
	}
	httpStatus := http.StatusOK

	if err := h.client.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "vector database health check failed", "error", err)
		response.Status = "unhealthy"
		response.Checks["vector_db"] = "error"
		response.Issues = []string{"vector_db_unavailable"}
		httpStatus = http.StatusServiceUnavailable
	}

	if err := writeJSON(w, httpStatus, response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
