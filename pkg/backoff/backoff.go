// Package backoff provides exponential backoff calculation.
package backoff

import "time"

// Policy describes an exponential backoff schedule.
type Policy struct {
	Initial time.Duration // delay before the first retry
	Max     time.Duration // ceiling for the delay
}

// Default is the schedule used for callback delivery retries.
var Default = Policy{
	Initial: 100 * time.Millisecond,
	Max:     5 * time.Second,
}

// Delay returns the delay before retry number attempt (1-based).
// Attempt 1 returns Initial, attempt 2 twice that, and so on, capped at Max.
func (p Policy) Delay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = Default.Initial
	}
	ceiling := p.Max
	if ceiling <= 0 {
		ceiling = Default.Max
	}

	if attempt < 1 {
		attempt = 1
	}
	d := initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}
