package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StopReason records why a run ended.
type StopReason string

const (
	// StopLayer means a layer returned layer.Stop.
	StopLayer StopReason = "layer-stop"

	// StopContext means the context passed to Run was cancelled.
	StopContext StopReason = "context"

	// StopFatal means a loop panicked.
	StopFatal StopReason = "fatal"
)

// EventKind categorizes run lifecycle events.
type EventKind string

const (
	EventStart EventKind = "start"
	EventStop  EventKind = "stop"
	EventFatal EventKind = "fatal"
)

// Event is one lifecycle entry of a run.
type Event struct {
	// Seq orders events within a run, starting at 1.
	Seq int64

	// At is when the event happened.
	At time.Time

	// Kind categorizes the event.
	Kind EventKind

	// Loop names the loop that produced the event, empty for run-level events.
	Loop string

	// Detail is a human-readable description.
	Detail string
}

// RunReport summarizes a finished run.
type RunReport struct {
	ID        string
	Name      string
	StartedAt time.Time
	EndedAt   time.Time

	// FPS and TPS are the configured render and update rates.
	FPS float64
	TPS float64

	// Frames and Ticks count completed render and update sweeps.
	Frames int64
	Ticks  int64

	// MaxLag is the largest lag the update loop carried between ticks.
	// Lag only grows when a wait exceeds the interval, which
	// timing.RateLimiter.End never returns, so a run starting from zero lag
	// reports 0 even when ticks overrun. Overruns show up as fewer Ticks
	// for the run's Duration instead.
	MaxLag time.Duration

	Reason StopReason

	// Error is the fatal error text, empty unless Reason is StopFatal.
	Error string

	Events []Event
}

// Duration returns the wall-clock length of the run.
func (r RunReport) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Recorder persists finished runs. Implemented by store.Recorder.
type Recorder interface {
	RecordRun(ctx context.Context, report RunReport) error
}

// IDGenerator generates run IDs.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialIDGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// eventLog collects events from both loops.
type eventLog struct {
	mu     sync.Mutex
	now    func() time.Time
	events []Event
}

func (l *eventLog) add(kind EventKind, loop, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{
		Seq:    int64(len(l.events) + 1),
		At:     l.now(),
		Kind:   kind,
		Loop:   loop,
		Detail: detail,
	})
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
