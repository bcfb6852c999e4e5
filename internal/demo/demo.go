// Package demo provides the sample layers run by "timberwolf run": a loading
// screen that hands over to a title screen, with an optional transparent
// HUD on top.
package demo

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/roach88/timberwolf/internal/layer"
	"github.com/roach88/timberwolf/internal/logsink"
	"github.com/roach88/timberwolf/internal/timing"
)

const logSource = "demo"

// Options configures the demo stack.
type Options struct {
	// Log receives the layers' diagnostics. Nil discards them.
	Log *logsink.Log

	// LoadingTicks is how many updates the loading screen lasts before it
	// swaps itself for the title screen.
	LoadingTicks int

	// TitleTicks stops the game after that many title screen updates.
	// Zero runs until the game is stopped from outside.
	TitleTicks int

	// Overlay pushes a HUD over the title screen.
	Overlay bool

	// TimeSource is the HUD's wall clock. Nil means the system clock.
	TimeSource timing.TimeSource
}

// Build pushes the loading screen onto stack and returns it.
func Build(stack *layer.Stack, opts Options) *Loading {
	if opts.Log == nil {
		opts.Log = logsink.Discard()
	}
	l := &Loading{stack: stack, opts: opts}
	stack.Push(l)
	return l
}

// Loading is an opaque layer that logs every delta it receives and, after
// Options.LoadingTicks updates, swaps itself for a Title.
type Loading struct {
	layer.Base

	stack *layer.Stack
	opts  Options

	ticks   int
	loaded  float64
	swapped bool
}

// Render implements layer.Layer.
func (l *Loading) Render(delta float64) layer.Signal {
	l.opts.Log.Verbose(logSource, fmt.Sprintf("render delta: %g", delta))
	return layer.Continue
}

// Update implements layer.Layer.
func (l *Loading) Update(delta float64) layer.Signal {
	l.opts.Log.Verbose(logSource, fmt.Sprintf("update delta: %g", delta))
	l.ticks++
	l.loaded += delta

	if l.ticks >= l.opts.LoadingTicks && !l.swapped {
		l.swapped = l.stack.Enqueue(layer.SwapOp(newTitle(l.stack, l.opts)))
	}
	return layer.Continue
}

// OnFocus implements layer.Layer.
func (l *Loading) OnFocus() {
	l.opts.Log.Info(logSource, "loading")
}

// Loaded returns the simulated seconds spent loading. Call only while the
// game is stopped or from the update loop.
func (l *Loading) Loaded() float64 { return l.loaded }

// Title is an opaque layer that counts updates and stops the game once its
// tick budget is spent.
type Title struct {
	layer.Base

	stack *layer.Stack
	opts  Options

	ticks  int
	loaded float64
	hud    *Overlay
}

func newTitle(stack *layer.Stack, opts Options) *Title {
	t := &Title{stack: stack, opts: opts}
	if opts.Overlay {
		t.hud = NewOverlay(opts.Log, opts.TimeSource)
	}
	return t
}

// Render implements layer.Layer.
func (t *Title) Render(float64) layer.Signal {
	return layer.Continue
}

// Update implements layer.Layer.
func (t *Title) Update(float64) layer.Signal {
	t.ticks++
	if t.opts.TitleTicks > 0 && t.ticks >= t.opts.TitleTicks {
		t.opts.Log.Info(logSource, fmt.Sprintf("title finished after %d ticks", t.ticks))
		return layer.Stop
	}
	return layer.Continue
}

// OnPush implements layer.Layer. The loading screen it replaces hands over
// its loading time; the HUD is queued to go on top.
func (t *Title) OnPush(ev layer.PushEvent) {
	if prev, ok := ev.Replaced.(*Loading); ok {
		t.loaded = prev.loaded
		t.opts.Log.Info(logSource, fmt.Sprintf("loaded in %.2fs", prev.loaded))
	}
	if t.hud != nil {
		t.stack.Enqueue(layer.PushOp(t.hud))
	}
}

// OnFocus implements layer.Layer.
func (t *Title) OnFocus() {
	t.opts.Log.Info(logSource, "title screen")
}

// Ticks returns the number of title updates so far. Call only while the
// game is stopped or from the update loop.
func (t *Title) Ticks() int { return t.ticks }

// Overlay is a HUD that lets everything beneath it render, update and
// receive input. It reports the measured frame rate once per wall-clock
// second. Update deltas are simulated time and are not used for the window.
type Overlay struct {
	layer.Base

	log *logsink.Log

	// frames is bumped by Render, which only holds a read lock.
	frames atomic.Int64

	window *timing.Clock

	mu  sync.Mutex
	fps float64
}

// NewOverlay creates a HUD logging to log and timing frames with src. A nil
// src means the system clock.
func NewOverlay(log *logsink.Log, src timing.TimeSource) *Overlay {
	if log == nil {
		log = logsink.Discard()
	}
	return &Overlay{log: log, window: timing.NewClock(src)}
}

// OnPush implements layer.Layer. The first window starts when the HUD
// joins the stack.
func (o *Overlay) OnPush(layer.PushEvent) {
	o.window.Reset()
	o.frames.Store(0)
}

// Render implements layer.Layer.
func (o *Overlay) Render(float64) layer.Signal {
	o.frames.Add(1)
	return layer.Continue
}

// Update implements layer.Layer.
func (o *Overlay) Update(float64) layer.Signal {
	elapsed := o.window.ElapsedSeconds()
	if elapsed < 1 {
		return layer.Continue
	}

	fps := float64(o.frames.Swap(0)) / elapsed
	o.window.Reset()

	o.mu.Lock()
	o.fps = fps
	o.mu.Unlock()

	o.log.Info(logSource, fmt.Sprintf("fps: %.1f", math.Round(fps*10)/10))
	return layer.Continue
}

// RenderTransparent implements layer.Layer.
func (*Overlay) RenderTransparent() bool { return true }

// UpdateTransparent implements layer.Layer.
func (*Overlay) UpdateTransparent() bool { return true }

// InputTransparent implements layer.Layer.
func (*Overlay) InputTransparent() bool { return true }

// FPS returns the frame rate measured over the last full window.
func (o *Overlay) FPS() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fps
}
