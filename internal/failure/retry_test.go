package failure

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // 16s capped
		{5, 10 * time.Second},
		{100, 10 * time.Second},
		{0, 2 * time.Second},  // clamped to first attempt
		{-3, 2 * time.Second}, // clamped to first attempt
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, p.Delay(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestPolicyDelayCapIsExact(t *testing.T) {
	// base 1s, cap 30s: attempt 6 would be 32s uncapped.
	p := Policy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
	assert.Equal(t, 30*time.Second, p.Delay(6))
}

func TestPolicyJitteredBounds(t *testing.T) {
	p := DefaultPolicy()
	rng := rand.New(rand.NewSource(42))

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		ceiling := p.Delay(attempt)
		for i := 0; i < 200; i++ {
			d := p.Jittered(attempt, rng)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, ceiling)
		}
	}
}

func TestPolicyJitteredZeroDelay(t *testing.T) {
	p := Policy{MaxAttempts: 3}
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, time.Duration(0), p.Jittered(1, rng))
}

func TestPolicyExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 3}

	assert.False(t, p.Exhausted(1))
	assert.False(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))
	assert.True(t, p.Exhausted(4))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.BaseDelay)
	assert.Equal(t, 2*time.Minute, p.MaxDelay)
}
