package testfixtures

import (
	"sync"
	"time"

	"github.com/example/conschedule/internal/scheduler"
)

// Clock is a settable time source. Services take its Now as their clock.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc returns Now, or time.Now for a nil clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Advance moves the clock forward and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// WindowFromNow returns a window opening offset from now and lasting d.
func (c *Clock) WindowFromNow(offset, d time.Duration) scheduler.TimeWindow {
	start := c.Now().Add(offset)
	return scheduler.NewTimeWindow(start, start.Add(d))
}
