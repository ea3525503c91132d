package api

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/dukerupert/usps/internal/handler"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler reports the status of the service's dependencies
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a health handler. Nil checks are ignored, so
// optional dependencies can be passed unconditionally.
func NewHealthHandler(checks map[string]Check, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HealthHandler{
		checks:  make(map[string]Check, len(checks)),
		timeout: 2 * time.Second,
		logger:  logger,
	}
	for name, c := range checks {
		if c != nil {
			h.checks[name] = c
		}
	}
	return h
}

// Health handles GET /health
//
// Responds 200 with {"status":"ok"} when every check passes and 503 with the
// failing checks otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := "ok"
	results := make(map[string]string, len(h.checks))
	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("health check failed", "check", name, "error", err)
			results[name] = "unavailable"
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	handler.WriteJSON(w, code, map[string]any{
		"status": status,
		"checks": results,
	})
}
