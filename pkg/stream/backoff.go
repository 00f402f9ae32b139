package stream

import (
	"math"
	"time"
)

// BackoffPolicy computes reconnect delays as a pure function of the attempt
// count, so the schedule is testable independently of the supervisor.
type BackoffPolicy struct {
	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps the delay.
	Max time.Duration

	// Multiplier scales the delay between consecutive attempts.
	Multiplier float64
}

// DefaultBackoff is the reconnect schedule for the transcription stream:
// 1s, 2s, 4s, ... capped at 30s, retrying indefinitely.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	initial := p.Initial
	if initial <= 0 {
		initial = time.Second
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 2
	}
	max := p.Max
	if max < initial {
		max = initial
	}

	d := time.Duration(float64(initial) * math.Pow(mult, float64(attempt)))
	// Guard the overflow past ~2^63ns on large attempt counts.
	if d <= 0 || d > max {
		return max
	}
	return d
}
