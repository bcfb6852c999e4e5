package game

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/timberwolf/internal/layer"
	"github.com/roach88/timberwolf/internal/timing"
)

// shutdown is the token shared by both loops. The first trigger wins and
// records its reason.
type shutdown struct {
	once    sync.Once
	stopped atomic.Bool
	done    chan struct{}
	reason  StopReason
}

func newShutdown() *shutdown {
	return &shutdown{done: make(chan struct{})}
}

// trigger requests shutdown. Later calls are no-ops.
func (s *shutdown) trigger(reason StopReason) {
	s.once.Do(func() {
		s.reason = reason
		s.stopped.Store(true)
		close(s.done)
	})
}

func (s *shutdown) triggered() bool {
	return s.stopped.Load()
}

// sleep waits for d or until shutdown. Returns false if shutdown interrupted
// the wait or had already been requested.
func (s *shutdown) sleep(d time.Duration) bool {
	if d <= 0 {
		return !s.triggered()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return !s.triggered()
	case <-s.done:
		return false
	}
}

// loop is one rate-limited sweep cycle.
type loop struct {
	name     string
	limiter  *timing.RateLimiter
	sweep    func(delta float64) layer.Signal
	trackLag bool

	// Written only by the goroutine running the loop; read after it exits.
	iterations int64
	maxLag     time.Duration
}

// runLoop drives l until shutdown. A panic is recovered into a *LoopError
// and triggers shutdown so the sibling loop exits too.
func (g *Game) runLoop(l *loop, tok *shutdown, events *eventLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			le := &LoopError{Loop: l.name, Value: r, Stack: debug.Stack()}
			tok.trigger(StopFatal)
			events.add(EventFatal, l.name, fmt.Sprint(r))
			g.log.Fatal(g.name, le.Error())
			err = le
		}
	}()

	for !tok.triggered() {
		delta := l.limiter.Begin()
		sig := l.sweep(delta)
		l.iterations++
		if sig == layer.Stop {
			g.log.Debug(g.name, fmt.Sprintf("%s loop received stop", l.name))
			tok.trigger(StopLayer)
			return nil
		}

		wait := l.limiter.End()
		if l.trackLag {
			if lag := l.limiter.Lag(); lag > l.maxLag {
				l.maxLag = lag
			}
		}
		if !tok.sleep(wait) {
			return nil
		}
	}
	return nil
}
