package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesUpToCeiling(t *testing.T) {
	p := DefaultBackoff()

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // 32s capped
		30 * time.Second,
	}
	for attempt, expected := range want {
		assert.Equal(t, expected, p.Delay(attempt), "attempt %d", attempt)
	}
}

func TestBackoffStaysAtCeilingForever(t *testing.T) {
	p := DefaultBackoff()
	for _, attempt := range []int{10, 100, 1000} {
		assert.Equal(t, 30*time.Second, p.Delay(attempt), "attempt %d", attempt)
	}
}

func TestBackoffCustomMultiplier(t *testing.T) {
	p := BackoffPolicy{Initial: time.Second, Max: 30 * time.Second, Multiplier: 1.5}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 1500*time.Millisecond, p.Delay(1))
	assert.Equal(t, 2250*time.Millisecond, p.Delay(2))
}

func TestBackoffDefendsAgainstBadInputs(t *testing.T) {
	p := BackoffPolicy{}
	assert.Equal(t, time.Second, p.Delay(-5), "negative attempt clamps to the initial delay")
	assert.Positive(t, p.Delay(0), "zero-value policy still produces a usable delay")

	inverted := BackoffPolicy{Initial: 10 * time.Second, Max: time.Second, Multiplier: 2}
	assert.Equal(t, 10*time.Second, inverted.Delay(0), "max below initial clamps to initial")
}
