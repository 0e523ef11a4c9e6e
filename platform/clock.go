package platform

import (
	"time"

	"github.com/loov/hrtime"
)

// Clock measures seconds since it was started on the high resolution timer.
type Clock struct {
	start time.Duration
	now   func() time.Duration
}

func NewClock() *Clock {
	return newClock(hrtime.Now)
}

func newClock(now func() time.Duration) *Clock {
	return &Clock{start: now(), now: now}
}

func (c *Clock) Elapsed() float64 {
	return (c.now() - c.start).Seconds()
}
