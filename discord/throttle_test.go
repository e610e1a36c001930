package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleGap(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(5*time.Second, 0, nil)
	th.now = func() time.Time { return now }

	ok, _ := th.Allow("u1", "mystats")
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, wait := th.Allow("u1", "mystats")
	assert.False(t, ok)
	assert.InDelta(t, 4*time.Second, wait, float64(50*time.Millisecond))

	ok, _ = th.Allow("u2", "mystats")
	assert.True(t, ok, "users are limited separately")

	now = now.Add(5 * time.Second)
	ok, _ = th.Allow("u1", "mystats")
	assert.True(t, ok, "a rejected command does not extend the wait")
}

func TestThrottlePerMinute(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	th := NewThrottle(0, 2, nil)
	th.now = func() time.Time { return now }

	for range 2 {
		ok, _ := th.Allow("u1", "help")
		assert.True(t, ok)
	}
	ok, wait := th.Allow("u1", "help")
	assert.False(t, ok)
	assert.Positive(t, wait)
}

func TestThrottleExempt(t *testing.T) {
	th := NewThrottle(time.Hour, 1, []string{" Trivia "})
	for range 5 {
		ok, _ := th.Allow("u1", "trivia")
		assert.True(t, ok)
	}

	var nilThrottle *Throttle
	ok, _ := nilThrottle.Allow("u1", "help")
	assert.True(t, ok)
}

func TestThrottleMessage(t *testing.T) {
	assert.Equal(t, "⏳ Please wait 4 seconds before using another command.", throttleMessage(3200*time.Millisecond))
}
