package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobpool/internal/testutil"
)

func newTestEvent(destination string) *Event {
	return &Event{
		Payload:     NewJobEvent(EventTypeFinished, "job-1", map[string]any{"state": "succeeded"}),
		Destination: destination,
	}
}

func TestMemory_Notify(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewMemory(MemoryConfig{
		BufferSize:  100,
		Workers:     2,
		HTTPTimeout: 5 * time.Second,
	}, nil)

	if err := n.Notify(newTestEvent(server.URL)); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	testutil.MustWaitFor(t, 5*time.Second, func() bool {
		return received.Load() >= 1
	})

	if received.Load() != 1 {
		t.Errorf("expected 1 delivery, got %d", received.Load())
	}

	stats := n.Stats()
	if stats.Delivered != 1 {
		t.Errorf("expected 1 delivered, got %d", stats.Delivered)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n.Close(ctx)
}

func TestMemory_BufferFull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewMemory(MemoryConfig{
		BufferSize:  2,
		Workers:     1,
		HTTPTimeout: 5 * time.Second,
	}, nil)

	var sawBufferFull bool
	for i := 0; i < 5; i++ {
		if err := n.Notify(newTestEvent(server.URL)); err == ErrBufferFull {
			sawBufferFull = true
		}
	}

	if !sawBufferFull {
		t.Error("expected ErrBufferFull from at least one Notify")
	}
	if n.Stats().Dropped == 0 {
		t.Error("expected some events to be dropped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n.Close(ctx)
}

func TestMemory_Retry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewMemory(MemoryConfig{
		BufferSize:  100,
		Workers:     1,
		HTTPTimeout: 5 * time.Second,
	}, nil)

	n.Notify(newTestEvent(server.URL))

	testutil.MustWaitFor(t, 5*time.Second, func() bool {
		return n.Stats().Delivered >= 1
	})

	if attempts.Load() < 3 {
		t.Errorf("expected at least 3 attempts, got %d", attempts.Load())
	}
	if got := n.Stats().RetriesTotal; got < 2 {
		t.Errorf("expected at least 2 retries recorded, got %d", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n.Close(ctx)
}

func TestMemory_NoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewMemory(MemoryConfig{
		BufferSize:  100,
		Workers:     1,
		HTTPTimeout: 5 * time.Second,
	}, nil)

	n.Notify(newTestEvent(server.URL))

	testutil.MustWaitFor(t, 5*time.Second, func() bool {
		return n.Stats().Failed >= 1
	})

	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt for a client error, got %d", attempts.Load())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n.Close(ctx)
}

func TestMemory_NotifyAfterClose(t *testing.T) {
	n := NewMemory(MemoryConfig{BufferSize: 10, Workers: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n.Close(ctx)

	if err := n.Notify(newTestEvent("http://localhost:0")); err == nil {
		t.Error("expected error when notifying a closed notifier")
	}
}

func TestMemory_CloseDrainsQueue(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewMemory(MemoryConfig{
		BufferSize:  100,
		Workers:     2,
		HTTPTimeout: 5 * time.Second,
	}, nil)

	for i := 0; i < 10; i++ {
		n.Notify(newTestEvent(server.URL))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if received.Load() != 10 {
		t.Errorf("expected 10 deliveries after drain, got %d", received.Load())
	}
}

func TestNewJobEvent(t *testing.T) {
	t.Parallel()
	event := NewJobEvent(EventTypeQueued, "job-42", map[string]any{"state": "queued"})

	if event.Type != EventTypeQueued {
		t.Errorf("Type = %q, want %q", event.Type, EventTypeQueued)
	}
	if event.Subject != "job-42" {
		t.Errorf("Subject = %q, want 'job-42'", event.Subject)
	}
	if event.Source != "jobpool" {
		t.Errorf("Source = %q, want 'jobpool'", event.Source)
	}
	if !strings.HasPrefix(event.ID, "job-42-") {
		t.Errorf("ID = %q, want prefix 'job-42-'", event.ID)
	}
	if event.SpecVersion != "1.0" {
		t.Errorf("SpecVersion = %q, want '1.0'", event.SpecVersion)
	}
}
