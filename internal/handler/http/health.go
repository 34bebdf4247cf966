// Package http provides the API server's HTTP handlers and middleware:
// health and metrics endpoints, logging, recovery, timeout, and input
// validation.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"claim-navigator/pkg/ratelimit"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body served on /healthz.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus reports one named check inside a HealthResponse.
type CheckStatus struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler serves the aggregate health check: database
// connectivity plus, when the limiter is on, counter store statistics.
type HealthHandler struct {
	DB      *sql.DB
	Version string

	// CounterStore reports rate limiter key counts when configured.
	CounterStore ratelimit.CounterStore

	// RateLimiterEnabled toggles the rate limiter status check.
	RateLimiterEnabled bool
}

// ServeHTTP answers 200 when every check passes and 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)

	if h.DB != nil {
		checks["database"] = h.checkDatabase(ctx)
	} else {
		checks["database"] = CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}

	if h.RateLimiterEnabled {
		// Limiter state is informational. A full store degrades
		// requests, it does not fail the process.
		checks["rate_limiter"] = h.checkRateLimiter(ctx)
	}

	status, statusCode := statusHealthy, http.StatusOK
	for _, check := range checks {
		if check.Status == statusUnhealthy {
			status, statusCode = statusUnhealthy, http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
	if err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkDatabase pings the database and reports connection pool
// statistics, flagging pools that are missing a max or close to it.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	start := time.Now()
	err := h.DB.PingContext(ctx)
	RecordDBQuery("health_ping", time.Since(start))
	if err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: err.Error()}
	}

	stats := h.DB.Stats()
	details := map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// MaxOpenConnections of 0 means unlimited, which also makes the
	// utilization ratio meaningless.
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{Status: statusHealthy, Details: details}
}

// checkRateLimiter reports counter store statistics. Always healthy,
// the limiter fails closed on its own.
func (h *HealthHandler) checkRateLimiter(ctx context.Context) CheckStatus {
	details := make(map[string]interface{})
	if h.CounterStore != nil {
		if keyCount, err := h.CounterStore.KeyCount(ctx); err == nil {
			details["active_keys"] = keyCount
		} else {
			details["key_count_error"] = err.Error()
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// ReadyHandler serves the readiness probe. The process is ready once
// the database answers a ping.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	start := time.Now()
	err := h.DB.PingContext(ctx)
	RecordDBQuery("ready_ping", time.Since(start))
	if err != nil {
		http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler serves the liveness probe. Responding at all is the
// check.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
