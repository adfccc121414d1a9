// Package testutil provides polling helpers for asynchronous tests.
package testutil

import (
	"testing"
	"time"
)

const pollInterval = 10 * time.Millisecond

// WaitFor polls until condition returns true or the timeout is reached.
// Returns true if the condition was met, false on timeout.
func WaitFor(tb testing.TB, timeout time.Duration, condition func() bool) bool {
	tb.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(pollInterval)
	}
	return condition()
}

// MustWaitFor polls until condition returns true or fails the test on timeout.
func MustWaitFor(tb testing.TB, timeout time.Duration, condition func() bool) {
	tb.Helper()
	if !WaitFor(tb, timeout, condition) {
		tb.Fatal("timed out waiting for condition")
	}
}
