// Package observability provides metrics for the pool service.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics implementing the golden 4 signals:
// - Latency: How long requests/jobs take
// - Traffic: Request/job throughput
// - Errors: Rate of failures
// - Saturation: Resource utilization (occupied slots, queue depth)
type Metrics struct {
	meter metric.Meter

	// HTTP metrics (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Pool metrics (Latency, Traffic, Errors, Saturation)
	JobDuration   metric.Float64Histogram
	JobsSubmitted metric.Int64Counter
	JobsRejected  metric.Int64Counter
	JobsCompleted metric.Int64Counter
	JobsActive    metric.Int64UpDownCounter

	// Notifier metrics (Latency, Traffic, Errors, Saturation)
	NotifierDuration  metric.Float64Histogram
	NotifierDelivered metric.Int64Counter
	NotifierFailed    metric.Int64Counter
	NotifierDropped   metric.Int64Counter
	NotifierQueueSize metric.Int64Gauge
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("jobpool")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Pool metrics
	m.JobDuration, err = meter.Float64Histogram(
		"job_duration_seconds",
		metric.WithDescription("Job execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsSubmitted, err = meter.Int64Counter(
		"jobs_submitted_total",
		metric.WithDescription("Total number of jobs accepted into a slot"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsRejected, err = meter.Int64Counter(
		"jobs_rejected_total",
		metric.WithDescription("Total number of jobs rejected because the pool was full"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsCompleted, err = meter.Int64Counter(
		"jobs_completed_total",
		metric.WithDescription("Total number of jobs that reached a terminal state"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsActive, err = meter.Int64UpDownCounter(
		"jobs_active",
		metric.WithDescription("Number of jobs currently holding a slot (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Notifier metrics
	m.NotifierDuration, err = meter.Float64Histogram(
		"notifier_duration_seconds",
		metric.WithDescription("Callback delivery latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierDelivered, err = meter.Int64Counter(
		"notifier_delivered_total",
		metric.WithDescription("Total events successfully delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierFailed, err = meter.Int64Counter(
		"notifier_failed_total",
		metric.WithDescription("Total events failed after retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierDropped, err = meter.Int64Counter(
		"notifier_dropped_total",
		metric.WithDescription("Total events dropped (buffer full or max requeues)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierQueueSize, err = meter.Int64Gauge(
		"notifier_queue_size",
		metric.WithDescription("Current number of events in notifier queue (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordJobAccepted records a job taking a slot.
func (m *Metrics) RecordJobAccepted(ctx context.Context, kind string) {
	attrs := metric.WithAttributes(kindAttr(kind))
	m.JobsSubmitted.Add(ctx, 1, attrs)
	m.JobsActive.Add(ctx, 1, attrs)
}

// RecordJobRejected records a submission rejected because no slot was free.
func (m *Metrics) RecordJobRejected(ctx context.Context, kind string) {
	m.JobsRejected.Add(ctx, 1, metric.WithAttributes(kindAttr(kind)))
}

// RecordJobCompleted records a job reaching a terminal state and leaving its slot.
func (m *Metrics) RecordJobCompleted(ctx context.Context, kind string, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(kindAttr(kind), successAttr(success))
	m.JobDuration.Record(ctx, durationSeconds, attrs)
	m.JobsCompleted.Add(ctx, 1, attrs)
	m.JobsActive.Add(ctx, -1, metric.WithAttributes(kindAttr(kind)))
}

// RecordNotifierDelivered records a successful event delivery with its duration.
func (m *Metrics) RecordNotifierDelivered(ctx context.Context, durationSeconds float64) {
	m.NotifierDelivered.Add(ctx, 1)
	m.NotifierDuration.Record(ctx, durationSeconds)
}

// RecordNotifierFailed records a failed event delivery.
func (m *Metrics) RecordNotifierFailed(ctx context.Context) {
	m.NotifierFailed.Add(ctx, 1)
}

// RecordNotifierDropped records a dropped event.
func (m *Metrics) RecordNotifierDropped(ctx context.Context) {
	m.NotifierDropped.Add(ctx, 1)
}

// RecordNotifierQueueSize records the current queue size.
func (m *Metrics) RecordNotifierQueueSize(ctx context.Context, size int64) {
	m.NotifierQueueSize.Record(ctx, size)
}
