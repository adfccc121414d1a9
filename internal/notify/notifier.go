// Package notify provides async delivery of job lifecycle events to a
// webhook destination, with buffering, retry and per-host circuit breaking.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobpool/pkg/cloudevent"
)

// Event types for job lifecycle callbacks
const (
	EventTypeQueued   = "jobpool.job.queued"
	EventTypeFinished = "jobpool.job.finished"
	EventTypeRejected = "jobpool.job.rejected"
)

// eventSource identifies this service in CloudEvent envelopes.
const eventSource = "jobpool"

// ErrBufferFull is returned when the notifier's buffer is full and the event is dropped.
var ErrBufferFull = errors.New("notifier buffer full, event dropped")

// Notifier handles async delivery of events.
type Notifier interface {
	// Notify queues an event for async delivery. Non-blocking.
	// Returns ErrBufferFull if the event cannot be queued.
	Notify(event *Event) error

	// Stats returns current notifier statistics.
	Stats() Stats

	// Close gracefully shuts down, attempting to deliver queued events.
	// The context deadline controls how long to wait for drain.
	Close(ctx context.Context) error
}

// Event is an event to be delivered to a destination.
type Event struct {
	Payload     *cloudevent.CloudEvent
	Destination string // callback URL
}

// Stats holds notifier statistics.
type Stats struct {
	QueueDepth   int   // current queue size
	Queued       int64 // total events queued
	Delivered    int64 // successful deliveries
	Failed       int64 // failed after retries
	Dropped      int64 // dropped due to full buffer or open circuit
	RetriesTotal int64 // total retry attempts
	BreakersOpen int   // currently open circuit breakers
}

// NewJobEvent builds a lifecycle CloudEvent for a job.
func NewJobEvent(eventType, jobID string, data map[string]any) *cloudevent.CloudEvent {
	eventID := fmt.Sprintf("%s-%d", jobID, time.Now().UnixNano())
	return cloudevent.New(eventType, eventSource, jobID, eventID, data)
}
