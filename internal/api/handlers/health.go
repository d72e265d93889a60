package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks whether the upstream marketplace API is reachable
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health checks
type HealthHandler struct {
	upstream Pinger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(upstream Pinger) *HealthHandler {
	return &HealthHandler{upstream: upstream}
}

// Check handles GET /health. The service itself is healthy as long as it can
// answer; upstream reachability is reported but does not fail the check,
// because the snapshot keeps the listing serving through upstream outages.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	upstream := "ok"

	if h.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.upstream.Health(ctx); err != nil {
			upstream = "unreachable"
		}
	}

	RenderJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"upstream": upstream,
	})
}
