package api

import (
	"net/http"

	"jobpool/internal/health"
	"jobpool/internal/observability"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Pool          Service
	Metrics       *observability.Metrics
	HealthChecker *health.Checker
	APIKey        string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Pool, cfg.HealthChecker)

	mux := http.NewServeMux()

	// Health check endpoints (liveness/readiness probes) - no auth required
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	// Job endpoints - auth required
	mux.Handle("POST /v1/jobs", withAuth(cfg.APIKey, http.HandlerFunc(handler.CreateJob)))
	mux.Handle("GET /v1/jobs", withAuth(cfg.APIKey, http.HandlerFunc(handler.ListJobs)))
	mux.Handle("GET /v1/jobs/{jobId}", withAuth(cfg.APIKey, http.HandlerFunc(handler.GetJob)))

	// Apply middleware chain (order matters: outermost first)
	var h http.Handler = mux
	h = withJSONContentType(h)
	h = withCORS(h)
	if cfg.Metrics != nil {
		h = withMetrics(cfg.Metrics, h)
	}
	h = withLogging(h)
	h = withRecovery(h)

	return h
}
