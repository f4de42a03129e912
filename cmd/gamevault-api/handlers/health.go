package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/JustMelih/GameVault/internal/observability"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	logger  *observability.Logger
	service string
	checks  map[string]Check
	timeout time.Duration
}

// NewHealthHandler creates a health handler. checks are run by Ready.
func NewHealthHandler(logger *observability.Logger, service string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{
		logger:  logger.WithComponent("health"),
		service: service,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": h.service})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WithContext(ctx).Warn().Str("check", name).Err(err).Msg("Readiness check failed")
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
}
