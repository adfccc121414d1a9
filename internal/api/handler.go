// Package api provides the HTTP API handlers and routing for the pool service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"jobpool/internal/apperrors"
	"jobpool/internal/health"
	"jobpool/internal/pool"
)

// maxRequestBodySize limits request body to 1MB to prevent memory exhaustion
const maxRequestBodySize = 1 << 20 // 1 MB

// maxSleepMilliseconds caps sleep payloads so a single job cannot hold a
// slot effectively forever.
const maxSleepMilliseconds = 10 * 60 * 1000

// Service is the pool surface the handlers need.
// Implemented by *pool.Pool.
type Service interface {
	Submit(sub pool.Submission) error
	Snapshot() []pool.View
	Get(id string) (pool.View, error)
}

// Handler contains HTTP handlers for the jobs API
type Handler struct {
	svc    Service
	health *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(svc Service, healthChecker *health.Checker) *Handler {
	return &Handler{
		svc:    svc,
		health: healthChecker,
	}
}

// CreateJob handles POST /v1/jobs.
// Acceptance is immediate and says nothing about the job's outcome, which is
// only observable via the list and get endpoints.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var sub pool.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := validateSubmission(sub); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.Submit(sub); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// validateSubmission performs boundary validation; past this point the pool
// assumes a well-formed submission.
func validateSubmission(sub pool.Submission) error {
	switch sub.Kind {
	case pool.KindEcho:
		if sub.Echo == nil {
			return apperrors.Validation("payload", "echo payload is required")
		}
		if sub.Echo.Message == "" {
			return apperrors.Validation("payload.message", "message must not be empty")
		}
	case pool.KindSleep:
		if sub.Sleep == nil {
			return apperrors.Validation("payload", "sleep payload is required")
		}
		if sub.Sleep.Milliseconds > maxSleepMilliseconds {
			return apperrors.Validation("payload.milliseconds", "sleep duration too long")
		}
	default:
		return apperrors.Validation("type", "unknown submission type")
	}
	return nil
}

// ListJobs handles GET /v1/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	views := h.svc.Snapshot()
	h.writeJSON(w, http.StatusOK, map[string]any{"jobs": views})
}

// GetJob handles GET /v1/jobs/{jobId}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	if jobID == "" {
		h.writeError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	view, err := h.svc.Get(jobID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	response := h.health.Liveness(r.Context())
	h.writeJSON(w, http.StatusOK, response)
}

// Readyz handles GET /readyz - readiness probe.
// Returns 200 if the service is ready to accept traffic.
// Returns 503 once the pool has stopped or shutdown has begun.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// handleError handles errors from the pool with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}
	h.writeError(w, status, err.Error())
}
