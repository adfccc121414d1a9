// Package health provides health check functionality for liveness and readiness probes.
package health

import (
	"context"
	"sync"
	"time"
)

// ReadinessChecker is the interface for readiness checks.
// Implemented by the pool to verify it is still accepting submissions.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult contains the result of a health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the health check response.
type Response struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// IsHealthy returns true if the overall status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// Checker performs health checks on the pool.
type Checker struct {
	pool    ReadinessChecker
	timeout time.Duration

	mu           sync.RWMutex
	shuttingDown bool
}

// NewChecker creates a new health checker.
func NewChecker(pool ReadinessChecker) *Checker {
	return &Checker{
		pool:    pool,
		timeout: 5 * time.Second,
	}
}

// Liveness returns true if the service is alive.
// This is a lightweight check with no dependencies; failing it should
// trigger a container restart.
func (c *Checker) Liveness(ctx context.Context) *Response {
	return &Response{
		Status: StatusHealthy,
	}
}

// Readiness checks if the service is ready to accept traffic.
// Failing this probe should remove the instance from load balancer rotation.
func (c *Checker) Readiness(ctx context.Context) *Response {
	c.mu.RLock()
	shuttingDown := c.shuttingDown
	c.mu.RUnlock()

	if shuttingDown {
		return &Response{
			Status: StatusUnhealthy,
			Checks: map[string]CheckResult{
				"shutdown": {Status: StatusUnhealthy, Message: "service is shutting down"},
			},
		}
	}

	poolCheck := c.checkPool(ctx)
	status := StatusHealthy
	if poolCheck.Status != StatusHealthy {
		status = StatusUnhealthy
	}

	return &Response{
		Status: status,
		Checks: map[string]CheckResult{"pool": poolCheck},
	}
}

// checkPool verifies the pool is accepting submissions.
func (c *Checker) checkPool(ctx context.Context) CheckResult {
	if c.pool == nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "pool not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pool.Ready(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return CheckResult{Status: StatusHealthy}
}

// SetShuttingDown marks the service as shutting down.
// Readiness checks return unhealthy from then on, signaling load balancers
// to stop sending new traffic.
func (c *Checker) SetShuttingDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuttingDown = true
}
