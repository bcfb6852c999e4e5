package timing

import (
	"sync/atomic"
	"time"
)

// TimeSource provides the current instant.
//
// Implementations must be monotonic: successive calls never go backwards.
type TimeSource interface {
	Now() time.Time
}

// SystemTime reads the process monotonic clock via time.Now.
//
// Thread-safety: SystemTime is stateless and safe for concurrent use.
type SystemTime struct{}

// Now returns the current time, carrying a monotonic reading.
func (SystemTime) Now() time.Time {
	return time.Now()
}

// Clock measures time elapsed since its last reset.
//
// The reference instant is stored atomically, so Elapsed may be called from
// any goroutine while the owning loop resets the clock.
type Clock struct {
	src     TimeSource
	resetAt atomic.Pointer[time.Time]
}

// NewClock creates a clock whose reference point is the moment of creation.
// A nil source means SystemTime.
func NewClock(src TimeSource) *Clock {
	if src == nil {
		src = SystemTime{}
	}
	c := &Clock{src: src}
	c.Reset()
	return c
}

// Reset records the current instant as the new reference point.
func (c *Clock) Reset() {
	now := c.src.Now()
	c.resetAt.Store(&now)
}

// Elapsed returns the time since the last reset. Never negative.
func (c *Clock) Elapsed() time.Duration {
	ref := c.resetAt.Load()
	d := c.src.Now().Sub(*ref)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedSeconds returns Elapsed as a number of seconds.
func (c *Clock) ElapsedSeconds() float64 {
	return c.Elapsed().Seconds()
}
