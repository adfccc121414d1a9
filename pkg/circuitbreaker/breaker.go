// Package circuitbreaker implements the circuit breaker pattern.
//
// A breaker tracks consecutive failures against a destination and blocks
// further attempts once a threshold is crossed. After a cooldown a single
// probe is allowed through; its outcome decides whether the circuit closes
// again or stays open.
package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the state of a circuit breaker.
type State int

const (
	Closed   State = iota // normal operation, requests allowed
	Open                  // failing, requests blocked
	HalfOpen              // cooldown elapsed, probing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds configuration for a circuit breaker.
type Config struct {
	Threshold int           // consecutive failures before the circuit opens (default: 5)
	Cooldown  time.Duration // time before a probe is allowed (default: 30s)
}

const (
	defaultThreshold = 5
	defaultCooldown  = 30 * time.Second
)

// Breaker is a circuit breaker for a single destination.
type Breaker struct {
	cfg Config

	mu       sync.Mutex
	failures int
	tripped  bool      // circuit has opened and not yet recovered
	openedAt time.Time // when the circuit last opened
}

// New creates a circuit breaker. Zero config fields use defaults.
func New(cfg Config) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Breaker{cfg: cfg}
}

// Allow reports whether a request should be attempted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state() != Open
}

// RecordSuccess closes the circuit and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.tripped = false
}

// RecordFailure counts a failure, opening the circuit at the threshold.
// A failed half-open probe reopens immediately and restarts the cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.tripped || b.failures >= b.cfg.Threshold {
		b.tripped = true
		b.openedAt = time.Now()
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state()
}

// state derives the current state; caller holds b.mu.
func (b *Breaker) state() State {
	if !b.tripped {
		return Closed
	}
	if time.Since(b.openedAt) > b.cfg.Cooldown {
		return HalfOpen
	}
	return Open
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
