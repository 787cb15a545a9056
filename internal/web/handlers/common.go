package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// errInvalidRequestBody is a shared error message for unreadable request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Debug("writing response failed", "error", err)
		}
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ReadinessHandler reports whether the face service answers.
type ReadinessHandler struct {
	faceService HealthChecker
	timeout     time.Duration
}

// NewReadinessHandler creates a readiness handler. A nil checker is always ready.
func NewReadinessHandler(faceService HealthChecker) *ReadinessHandler {
	return &ReadinessHandler{faceService: faceService, timeout: 5 * time.Second}
}

// Ready returns 200 when the face service is healthy and 503 otherwise.
func (h *ReadinessHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.faceService == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.faceService.Health(ctx); err != nil {
		slog.Warn("face service not ready", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
