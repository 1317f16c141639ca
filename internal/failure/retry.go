package failure

import (
	"math/rand"
	"time"
)

// Policy computes retry delays with capped exponential backoff and full
// jitter. Delay computation is a pure function of the attempt number and the
// configuration so the sequence can be unit tested without any I/O; the
// random draw is isolated in Jittered.
type Policy struct {
	// MaxAttempts is the total attempt budget, first attempt included.
	MaxAttempts int

	// BaseDelay is the pre-jitter delay after the first failed attempt.
	BaseDelay time.Duration

	// MaxDelay caps the pre-jitter delay.
	MaxDelay time.Duration
}

// DefaultPolicy returns the engine's standard retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    2 * time.Minute,
	}
}

// Delay returns the pre-jitter delay after failed attempt n (1-based):
// min(MaxDelay, BaseDelay * 2^(n-1)). Attempts below 1 are treated as 1.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Jittered draws the realized delay for failed attempt n: uniform in
// [0, Delay(n)]. Full jitter keeps many concurrent user tasks from retrying
// in lockstep; the expectation still grows with the attempt number and the
// realized delay never exceeds MaxDelay.
func (p Policy) Jittered(attempt int, rng *rand.Rand) time.Duration {
	d := p.Delay(attempt)
	if d <= 0 {
		return 0
	}
	return time.Duration(rng.Int63n(int64(d) + 1))
}

// Exhausted reports whether the budget allows no further attempt after
// attempt n has failed.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
