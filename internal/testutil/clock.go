package testutil

import (
	"sync"
	"time"
)

// Epoch is the instant a ManualTime starts at unless told otherwise.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ManualTime is a time source that only moves when told to.
//
// It satisfies timing.TimeSource, so rate limiter tests can assert exact
// wait and lag values without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualTime struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualTime creates a manual time source starting at Epoch.
func NewManualTime() *ManualTime {
	return &ManualTime{now: Epoch}
}

// NewManualTimeAt creates a manual time source starting at t.
func NewManualTimeAt(t time.Time) *ManualTime {
	return &ManualTime{now: t}
}

// Now returns the current manual instant.
func (m *ManualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves time forward by d. Negative durations are ignored so the
// source stays monotonic.
func (m *ManualTime) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Reset moves the source back to Epoch.
//
// Used for test reuse only; a running clock must never observe it.
func (m *ManualTime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = Epoch
}
