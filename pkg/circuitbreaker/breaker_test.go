package circuitbreaker

import (
	"testing"
	"time"
)

func TestBreaker_StartsClosed(t *testing.T) {
	t.Parallel()
	b := New(Config{})

	if got := b.State(); got != Closed {
		t.Errorf("new breaker state = %v, want Closed", got)
	}
	if !b.Allow() {
		t.Error("new breaker should allow requests")
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	t.Parallel()
	b := New(Config{Threshold: 3, Cooldown: time.Hour})

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != Closed {
		t.Fatal("breaker opened before threshold")
	}

	b.RecordFailure()
	if b.State() != Open {
		t.Error("breaker should open at threshold")
	}
	if b.Allow() {
		t.Error("open breaker should block requests")
	}
	if b.Failures() != 3 {
		t.Errorf("Failures() = %d, want 3", b.Failures())
	}
}

func TestBreaker_SuccessResets(t *testing.T) {
	t.Parallel()
	b := New(Config{Threshold: 2, Cooldown: time.Hour})

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	if b.State() != Closed {
		t.Error("success should reset the consecutive failure count")
	}
	if b.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", b.Failures())
	}
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	t.Parallel()
	b := New(Config{Threshold: 1, Cooldown: 10 * time.Millisecond})

	b.RecordFailure()
	if b.State() != Open {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	if b.State() != HalfOpen {
		t.Error("breaker should be half-open after cooldown")
	}
	if !b.Allow() {
		t.Error("half-open breaker should allow a probe")
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	t.Parallel()
	b := New(Config{Threshold: 1, Cooldown: 10 * time.Millisecond})

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	if b.State() != HalfOpen {
		t.Fatal("breaker should be half-open")
	}

	b.RecordFailure()
	if b.State() != Open {
		t.Error("failed probe should reopen the circuit")
	}
}

func TestBreaker_SuccessfulProbeCloses(t *testing.T) {
	t.Parallel()
	b := New(Config{Threshold: 1, Cooldown: 10 * time.Millisecond})

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	b.RecordSuccess()

	if b.State() != Closed {
		t.Error("successful probe should close the circuit")
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state State
		want  string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := NewRegistry(Config{Threshold: 1, Cooldown: time.Hour})

	a := r.Get("host-a")
	if a != r.Get("host-a") {
		t.Error("Get should return the same breaker for the same key")
	}
	if a == r.Get("host-b") {
		t.Error("Get should return distinct breakers for distinct keys")
	}

	a.RecordFailure()

	stats := r.Stats()
	if stats.Total != 2 {
		t.Errorf("Stats().Total = %d, want 2", stats.Total)
	}
	if stats.Open != 1 {
		t.Errorf("Stats().Open = %d, want 1", stats.Open)
	}
}
