package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockElapsedFromStart(t *testing.T) {
	now := 5 * time.Second
	clock := newClock(func() time.Duration { return now })

	require.Zero(t, clock.Elapsed())

	now += 1500 * time.Millisecond
	require.InDelta(t, 1.5, clock.Elapsed(), 1e-9)
}

func TestClockMonotonic(t *testing.T) {
	clock := NewClock()

	first := clock.Elapsed()
	second := clock.Elapsed()
	require.GreaterOrEqual(t, second, first)
	require.GreaterOrEqual(t, first, 0.0)
}
