package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/timberwolf/internal/layer"
	"github.com/roach88/timberwolf/internal/logsink"
	"github.com/roach88/timberwolf/internal/testutil"
	"github.com/roach88/timberwolf/internal/timing"
)

// counter counts sweeps and optionally stops or panics after a number of
// them.
type counter struct {
	layer.Base

	renders atomic.Int64
	updates atomic.Int64

	stopAfterUpdates  int64
	stopAfterRenders  int64
	panicAfterUpdates int64
	panicAfterRenders int64

	mu     sync.Mutex
	deltas []float64
}

func (c *counter) Render(float64) layer.Signal {
	n := c.renders.Add(1)
	if c.panicAfterRenders > 0 && n >= c.panicAfterRenders {
		panic("render failed")
	}
	if c.stopAfterRenders > 0 && n >= c.stopAfterRenders {
		return layer.Stop
	}
	return layer.Continue
}

func (c *counter) Update(delta float64) layer.Signal {
	c.mu.Lock()
	c.deltas = append(c.deltas, delta)
	c.mu.Unlock()

	n := c.updates.Add(1)
	if c.panicAfterUpdates > 0 && n >= c.panicAfterUpdates {
		panic(errors.New("update failed"))
	}
	if c.stopAfterUpdates > 0 && n >= c.stopAfterUpdates {
		return layer.Stop
	}
	return layer.Continue
}

func (c *counter) updateDeltas() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.deltas...)
}

func newTestGame(opts ...Option) *Game {
	base := []Option{
		WithTimeSource(testutil.NewManualTime()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("run")),
	}
	return New("test", append(base, opts...)...)
}

func TestRun_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		fps, tps int
	}{
		{"zero fps", 0, 20},
		{"negative fps", -60, 20},
		{"zero tps", 60, 0},
		{"negative tps", 60, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame()
			c := &counter{}
			g.Stack().Push(c)

			err := g.Run(context.Background(), tt.fps, tt.tps)
			require.Error(t, err)
			assert.ErrorIs(t, err, timing.ErrInvalidConfiguration)
			assert.True(t, timing.IsConfigError(err))
			assert.Zero(t, c.renders.Load())
			assert.Zero(t, c.updates.Load())
		})
	}
}

func TestRun_StopFromUpdate(t *testing.T) {
	g := newTestGame()
	c := &counter{stopAfterUpdates: 5}
	g.Stack().Push(c)

	report, err := g.RunConfig(context.Background(), RenderLoop(1000), UpdateLoop(1000))
	require.NoError(t, err)

	assert.Equal(t, StopLayer, report.Reason)
	assert.Equal(t, int64(5), report.Ticks)
	assert.Equal(t, int64(5), c.updates.Load())
	assert.Equal(t, report.Frames, c.renders.Load())
	assert.Empty(t, report.Error)
}

func TestRun_StopFromRender(t *testing.T) {
	g := newTestGame()
	c := &counter{stopAfterRenders: 3}
	g.Stack().Push(c)

	err := g.Run(context.Background(), 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.renders.Load())
}

func TestRun_LockstepUpdateDelta(t *testing.T) {
	g := newTestGame(WithSpeed(2))
	c := &counter{stopAfterUpdates: 4}
	g.Stack().Push(c)

	require.NoError(t, g.Run(context.Background(), 1000, 100))

	deltas := c.updateDeltas()
	require.Len(t, deltas, 4)
	for _, d := range deltas {
		assert.InDelta(t, 0.02, d, 1e-9)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	g := newTestGame()
	c := &counter{}
	g.Stack().Push(c)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	report, err := g.RunConfig(ctx, RenderLoop(200), UpdateLoop(200))
	require.NoError(t, err)
	assert.Equal(t, StopContext, report.Reason)
	assert.Positive(t, c.updates.Load())
}

func TestRun_ContextAlreadyCancelled(t *testing.T) {
	g := newTestGame()
	c := &counter{}
	g.Stack().Push(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := g.RunConfig(ctx, RenderLoop(60), UpdateLoop(20))
	require.NoError(t, err)
	assert.Equal(t, StopContext, report.Reason)
	assert.Zero(t, c.renders.Load())
	assert.Zero(t, c.updates.Load())
}

func TestRun_SlowLoopInterruptedByShutdown(t *testing.T) {
	g := newTestGame()
	c := &counter{stopAfterUpdates: 2}
	g.Stack().Push(c)

	// The render loop would sleep for a full second; the update loop's
	// Stop must wake it.
	start := time.Now()
	_, err := g.RunConfig(context.Background(), RenderLoop(1), UpdateLoop(500))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRun_PanicInUpdateIsFatal(t *testing.T) {
	collector := &logsink.Collector{}
	g := newTestGame(WithLog(logsink.New(collector)))
	c := &counter{panicAfterUpdates: 3}
	g.Stack().Push(c)

	report, err := g.RunConfig(context.Background(), RenderLoop(1000), UpdateLoop(1000))
	require.Error(t, err)
	assert.True(t, IsLoopError(err))

	var le *LoopError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "update", le.Loop)
	assert.NotEmpty(t, le.Stack)
	assert.EqualError(t, errors.Unwrap(le), "update failed")

	assert.Equal(t, StopFatal, report.Reason)
	assert.Contains(t, report.Error, "update loop panicked: update failed")
	assert.Equal(t, []layer.Layer{c}, g.Stack().Poisoned())

	var fatal []logsink.Record
	for _, r := range collector.Records() {
		if r.Severity == logsink.SeverityFatal {
			fatal = append(fatal, r)
		}
	}
	require.Len(t, fatal, 1)
	assert.Equal(t, "test", fatal[0].Source)
}

func TestRun_PanicInRenderIsFatal(t *testing.T) {
	g := newTestGame()
	c := &counter{panicAfterRenders: 2}
	g.Stack().Push(c)

	err := g.Run(context.Background(), 1000, 1000)
	require.Error(t, err)

	var le *LoopError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "render", le.Loop)
	assert.Equal(t, "render failed", le.Value)
	assert.Nil(t, le.Unwrap())
}

// recorder captures reports.
type recorder struct {
	mu      sync.Mutex
	reports []RunReport
	err     error
}

func (r *recorder) RecordRun(_ context.Context, report RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return r.err
}

func TestRun_RecordsReport(t *testing.T) {
	clock := testutil.NewManualTime()
	rec := &recorder{}
	g := New("demo",
		WithTimeSource(clock),
		WithIDGenerator(testutil.NewSequentialIDGenerator("run")),
		WithRecorder(rec),
	)
	g.Stack().Push(&counter{stopAfterUpdates: 2})

	require.NoError(t, g.Run(context.Background(), 1000, 500))
	require.NoError(t, g.Run(context.Background(), 1000, 500))

	require.Len(t, rec.reports, 2)
	first := rec.reports[0]
	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, "run-2", rec.reports[1].ID)
	assert.Equal(t, "demo", first.Name)
	assert.Equal(t, testutil.Epoch, first.StartedAt)
	assert.Equal(t, float64(1000), first.FPS)
	assert.Equal(t, float64(500), first.TPS)
	assert.Equal(t, StopLayer, first.Reason)

	require.Len(t, first.Events, 2)
	assert.Equal(t, EventStart, first.Events[0].Kind)
	assert.Equal(t, "fps=1000 tps=500", first.Events[0].Detail)
	assert.Equal(t, EventStop, first.Events[1].Kind)
	assert.Equal(t, "layer-stop", first.Events[1].Detail)
	assert.Equal(t, int64(2), first.Events[1].Seq)
}

func TestRun_RecorderFailure(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	g := newTestGame(WithRecorder(rec))
	g.Stack().Push(&counter{stopAfterUpdates: 1})

	err := g.Run(context.Background(), 1000, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record run run-1: disk full")
	assert.False(t, IsLoopError(err))
}

// blocker signals once its first update runs and then keeps going.
type blocker struct {
	layer.Base
	once    sync.Once
	started chan struct{}
}

func (b *blocker) Render(float64) layer.Signal { return layer.Continue }
func (b *blocker) Update(float64) layer.Signal {
	b.once.Do(func() { close(b.started) })
	return layer.Continue
}

func TestRun_AlreadyRunning(t *testing.T) {
	g := newTestGame()
	b := &blocker{started: make(chan struct{})}
	g.Stack().Push(b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, 100, 100) }()

	<-b.started
	err := g.Run(context.Background(), 100, 100)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-done)
}

// handoff swaps itself for next from inside its update.
type handoff struct {
	layer.Base
	stack *layer.Stack
	next  layer.Layer
}

func (h *handoff) Render(float64) layer.Signal { return layer.Continue }
func (h *handoff) Update(float64) layer.Signal {
	h.stack.Enqueue(layer.SwapOp(h.next))
	return layer.Continue
}

func TestRun_QueuedOpsAppliedBetweenTicks(t *testing.T) {
	g := newTestGame()
	next := &counter{stopAfterUpdates: 1}
	g.Stack().Push(&handoff{stack: g.Stack(), next: next})

	report, err := g.RunConfig(context.Background(), RenderLoop(1000), UpdateLoop(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Ticks)
	assert.Equal(t, int64(1), next.updates.Load())

	top, ok := g.Stack().Top()
	require.True(t, ok)
	assert.Same(t, next, top)
}

func TestLoopConfig_DefaultSpeed(t *testing.T) {
	rl, err := LoopConfig{Rate: 10, Lockstep: true}.limiter(testutil.NewManualTime())
	require.NoError(t, err)
	assert.Equal(t, timing.DefaultSpeed, rl.Speed())
	assert.InDelta(t, 0.1, rl.Begin(), 1e-9)
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

// overrunner takes longer than the update interval and stops after n ticks.
type overrunner struct {
	layer.Base
	work  time.Duration
	n     int
	ticks int
}

func (o *overrunner) Render(float64) layer.Signal { return layer.Continue }
func (o *overrunner) Update(float64) layer.Signal {
	time.Sleep(o.work)
	o.ticks++
	if o.ticks >= o.n {
		return layer.Stop
	}
	return layer.Continue
}

func TestRun_OverrunningTicksReportNoLag(t *testing.T) {
	g := New("test", WithIDGenerator(testutil.NewSequentialIDGenerator("run")))
	g.Stack().Push(&overrunner{work: 3 * time.Millisecond, n: 10})

	report, err := g.RunConfig(context.Background(), RenderLoop(100), UpdateLoop(1000))
	require.NoError(t, err)

	assert.Equal(t, int64(10), report.Ticks)
	assert.Zero(t, report.MaxLag)
	// Ten 3ms ticks cannot fit the 10ms a 1000 tps run would take.
	assert.GreaterOrEqual(t, report.Duration(), 30*time.Millisecond)
}
