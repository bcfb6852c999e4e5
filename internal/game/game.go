package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/timberwolf/internal/layer"
	"github.com/roach88/timberwolf/internal/logsink"
	"github.com/roach88/timberwolf/internal/timing"
)

// Game owns a layer stack and drives it with a render loop and an update
// loop.
//
// Thread-safety model:
//   - Stack(), Log(): safe from any goroutine
//   - Run(), RunConfig(): one run at a time; a second concurrent call
//     returns ErrAlreadyRunning
type Game struct {
	name     string
	stack    *layer.Stack
	log      *logsink.Log
	src      timing.TimeSource
	ids      IDGenerator
	recorder Recorder

	speed          float64
	lockstepRender bool

	running atomic.Bool
}

// Option configures a Game.
type Option func(*Game)

// WithLog sets the log shared by the game, its stack and its layers.
func WithLog(l *logsink.Log) Option {
	return func(g *Game) { g.log = l }
}

// WithTimeSource replaces the system clock for both loops and for run
// timestamps (tests).
func WithTimeSource(src timing.TimeSource) Option {
	return func(g *Game) { g.src = src }
}

// WithSpeed sets the simulation speed used by Run for the update loop.
//
// Default: timing.DefaultSpeed (1.0)
func WithSpeed(speed float64) Option {
	return func(g *Game) { g.speed = speed }
}

// WithLockstepRender makes Run report a fixed render delta of 1/fps.
func WithLockstepRender(enabled bool) Option {
	return func(g *Game) { g.lockstepRender = enabled }
}

// WithRecorder persists a RunReport after every run.
func WithRecorder(r Recorder) Option {
	return func(g *Game) { g.recorder = r }
}

// WithIDGenerator replaces the UUIDv7 run ID generator (tests).
func WithIDGenerator(ids IDGenerator) Option {
	return func(g *Game) { g.ids = ids }
}

// New creates a game with an empty stack.
func New(name string, opts ...Option) *Game {
	g := &Game{
		name:  name,
		src:   timing.SystemTime{},
		ids:   UUIDv7Generator{},
		speed: timing.DefaultSpeed,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logsink.Discard()
	}
	g.stack = layer.NewStack(layer.WithLog(g.log))
	return g
}

// Name returns the name the game was created with.
func (g *Game) Name() string { return g.name }

// Stack returns the game's layer stack. Layers may be pushed before or
// during a run.
func (g *Game) Stack() *layer.Stack { return g.stack }

// Log returns the game's log.
func (g *Game) Log() *logsink.Log { return g.log }

// LoopConfig describes one loop's rate limiter.
type LoopConfig struct {
	// Rate is the target number of iterations per second. Must be > 0.
	Rate float64

	// Lockstep reports a fixed delta of Speed/Rate seconds per iteration.
	Lockstep bool

	// Catchup tracks lag and shortens later waits to recover it.
	Catchup bool

	// Speed is the ratio of simulated to real time. Zero means
	// timing.DefaultSpeed.
	Speed float64
}

// RenderLoop returns the default render loop configuration: wall-clock
// deltas, no catch-up.
func RenderLoop(fps float64) LoopConfig {
	return LoopConfig{Rate: fps, Speed: timing.DefaultSpeed}
}

// UpdateLoop returns the default update loop configuration: lockstep with
// catch-up at normal speed.
func UpdateLoop(tps float64) LoopConfig {
	return LoopConfig{Rate: tps, Lockstep: true, Catchup: true, Speed: timing.DefaultSpeed}
}

func (c LoopConfig) limiter(src timing.TimeSource) (*timing.RateLimiter, error) {
	speed := c.Speed
	if speed == 0 {
		speed = timing.DefaultSpeed
	}
	return timing.NewRateLimiterFromFrequency(c.Rate,
		timing.WithLockstep(c.Lockstep),
		timing.WithCatchup(c.Catchup),
		timing.WithSpeed(speed),
		timing.WithTimeSource(src),
	)
}

// Run runs the game at fps renders and tps updates per second until a layer
// returns layer.Stop, a loop panics, or ctx is cancelled.
//
// Returns an error matching timing.ErrInvalidConfiguration if either rate is
// not positive (no loop is started), or a *LoopError if a loop panicked.
// Cancellation of ctx is a normal shutdown and returns nil.
func (g *Game) Run(ctx context.Context, fps, tps int) error {
	render := RenderLoop(float64(fps))
	render.Lockstep = g.lockstepRender
	update := UpdateLoop(float64(tps))
	update.Speed = g.speed

	_, err := g.RunConfig(ctx, render, update)
	return err
}

// RunConfig is Run with full control over both rate limiters. It returns the
// run's report alongside any error; the report is zero if the configuration
// was rejected.
func (g *Game) RunConfig(ctx context.Context, render, update LoopConfig) (RunReport, error) {
	renderRL, err := render.limiter(g.src)
	if err != nil {
		return RunReport{}, fmt.Errorf("render loop: %w", err)
	}
	updateRL, err := update.limiter(g.src)
	if err != nil {
		return RunReport{}, fmt.Errorf("update loop: %w", err)
	}

	if !g.running.CompareAndSwap(false, true) {
		return RunReport{}, ErrAlreadyRunning
	}
	defer g.running.Store(false)

	report := RunReport{
		ID:        g.ids.Generate(),
		Name:      g.name,
		StartedAt: g.src.Now(),
		FPS:       render.Rate,
		TPS:       update.Rate,
	}
	events := &eventLog{now: g.src.Now}
	events.add(EventStart, "", fmt.Sprintf("fps=%g tps=%g", render.Rate, update.Rate))
	g.log.Info(g.name, fmt.Sprintf("starting run %s: fps=%g tps=%g", report.ID, render.Rate, update.Rate))

	tok := newShutdown()
	if ctx.Err() != nil {
		tok.trigger(StopContext)
	}
	stopWatch := context.AfterFunc(ctx, func() { tok.trigger(StopContext) })
	defer stopWatch()

	renderLoop := &loop{
		name:    "render",
		limiter: renderRL,
		sweep:   g.stack.RenderSweep,
	}
	updateLoop := &loop{
		name:    "update",
		limiter: updateRL,
		sweep: func(delta float64) layer.Signal {
			g.stack.Flush()
			return g.stack.UpdateSweep(delta)
		},
		trackLag: true,
	}

	var wg sync.WaitGroup
	var updateErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		updateErr = g.runLoop(updateLoop, tok, events)
	}()
	renderErr := g.runLoop(renderLoop, tok, events)
	wg.Wait()

	runErr := errors.Join(renderErr, updateErr)

	report.EndedAt = g.src.Now()
	report.Frames = renderLoop.iterations
	report.Ticks = updateLoop.iterations
	report.MaxLag = updateLoop.maxLag
	report.Reason = tok.reason
	if runErr != nil {
		report.Error = runErr.Error()
	}
	events.add(EventStop, "", string(report.Reason))
	report.Events = events.snapshot()

	g.log.Info(g.name, fmt.Sprintf("run %s stopped: reason=%s frames=%d ticks=%d",
		report.ID, report.Reason, report.Frames, report.Ticks))

	if g.recorder != nil {
		if err := g.recorder.RecordRun(context.WithoutCancel(ctx), report); err != nil {
			g.log.Error(g.name, fmt.Sprintf("record run %s: %v", report.ID, err))
			runErr = errors.Join(runErr, fmt.Errorf("record run %s: %w", report.ID, err))
		}
	}

	return report, runErr
}
