package layer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/timberwolf/internal/logsink"
)

// logSource tags records emitted by the stack.
const logSource = "stack"

// slot owns one layer and the lock that guards it.
type slot struct {
	mu       sync.RWMutex
	layer    Layer
	poisoned atomic.Bool
	warned   atomic.Bool
}

func (sl *slot) lock(k sweepKind) {
	if k.exclusive() {
		sl.mu.Lock()
		return
	}
	sl.mu.RLock()
}

func (sl *slot) unlock(k sweepKind) {
	if k.exclusive() {
		sl.mu.Unlock()
		return
	}
	sl.mu.RUnlock()
}

// call invokes fn on the slot's layer. A panic poisons the slot and keeps
// propagating; the caller releases the lock on the way out.
func (sl *slot) call(fn func(Layer) Signal) Signal {
	defer func() {
		if r := recover(); r != nil {
			sl.poisoned.Store(true)
			panic(r)
		}
	}()
	return fn(sl.layer)
}

// sweepKind selects the transparency predicate and lock mode of a sweep.
type sweepKind int

const (
	renderSweep sweepKind = iota
	updateSweep
	inputSweep
)

func (k sweepKind) String() string {
	switch k {
	case renderSweep:
		return "render"
	case updateSweep:
		return "update"
	default:
		return "input"
	}
}

func (k sweepKind) exclusive() bool {
	return k != renderSweep
}

func (k sweepKind) transparent(l Layer) bool {
	switch k {
	case renderSweep:
		return l.RenderTransparent()
	case updateSweep:
		return l.UpdateTransparent()
	default:
		return l.InputTransparent()
	}
}

// Stack is an ordered, thread-safe collection of layers, bottom to top.
//
// The zero value is not usable; create stacks with NewStack.
type Stack struct {
	mu    sync.RWMutex
	slots []*slot
	log   *logsink.Log
	ops   *opQueue

	// view is the layer sequence published after every Push, Pop and Swap.
	// Len, Top and Layers read it without touching mu.
	view atomic.Pointer[[]Layer]
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithLog sets the log that receives stack diagnostics.
func WithLog(l *logsink.Log) StackOption {
	return func(s *Stack) { s.log = l }
}

// NewStack creates an empty stack.
func NewStack(opts ...StackOption) *Stack {
	s := &Stack{ops: newOpQueue()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push adds l to the top of the stack.
//
// l.OnPush fires before l is visible to sweeps, then the previous top
// receives OnUnfocus and l receives OnFocus.
//
// Push blocks until in-flight sweeps finish. Never call it from inside a
// sweep; Enqueue a PushOp instead.
func (s *Stack) Push(l Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()
	s.pushLocked(l, nil, true)
}

// Pop removes and returns the top layer. The layer receives OnUnfocus and
// OnPop after removal and the new top receives OnFocus. Returns false if the
// stack is empty.
func (s *Stack) Pop() (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()
	return s.popLocked(true)
}

// Swap replaces the top layer with l and returns the previous top (false if
// the stack was empty). The popped layer is handed to l.OnPush as
// PushEvent.Replaced. The layer beneath never gains focus in between.
func (s *Stack) Swap(l Layer) (Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.publishLocked()
	old, ok := s.popLocked(false)
	s.pushLocked(l, old, false)
	return old, ok
}

func (s *Stack) publishLocked() {
	view := make([]Layer, len(s.slots))
	for i, sl := range s.slots {
		view[i] = sl.layer
	}
	s.view.Store(&view)
}

func (s *Stack) snapshot() []Layer {
	if v := s.view.Load(); v != nil {
		return *v
	}
	return nil
}

func (s *Stack) pushLocked(l Layer, replaced Layer, unfocusBelow bool) {
	ev := PushEvent{Depth: len(s.slots), Replaced: replaced}
	var below *slot
	if n := len(s.slots); n > 0 {
		below = s.slots[n-1]
		ev.Below = below.layer
	}

	l.OnPush(ev)
	if unfocusBelow && below != nil && !below.poisoned.Load() {
		below.layer.OnUnfocus()
	}
	s.slots = append(s.slots, &slot{layer: l})
	l.OnFocus()
}

func (s *Stack) popLocked(refocus bool) (Layer, bool) {
	n := len(s.slots)
	if n == 0 {
		return nil, false
	}
	top := s.slots[n-1]
	s.slots[n-1] = nil
	s.slots = s.slots[:n-1]

	if !top.poisoned.Load() {
		top.layer.OnUnfocus()
		top.layer.OnPop()
	}
	if refocus && n > 1 {
		if next := s.slots[n-2]; !next.poisoned.Load() {
			next.layer.OnFocus()
		}
	}
	return top.layer, true
}

// Len returns the number of layers on the stack.
//
// Len, Top and Layers never block and may be called from Render, Update
// and hooks. Inside a hook they report the stack as it was before the
// Push, Pop or Swap in progress.
func (s *Stack) Len() int {
	return len(s.snapshot())
}

// Top returns the topmost layer without removing it.
func (s *Stack) Top() (Layer, bool) {
	view := s.snapshot()
	if len(view) == 0 {
		return nil, false
	}
	return view[len(view)-1], true
}

// Layers returns the layers bottom to top.
func (s *Stack) Layers() []Layer {
	return append([]Layer(nil), s.snapshot()...)
}

// Poisoned returns the layers whose slots were poisoned by a panic, bottom
// to top. Like Push it waits for in-flight sweeps; never call it from
// inside one.
func (s *Stack) Poisoned() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Layer
	for _, sl := range s.slots {
		if sl.poisoned.Load() {
			out = append(out, sl.layer)
		}
	}
	return out
}

// RenderSweep renders the active run of layers, top first. Each visited layer
// is read-locked for the duration of the sweep. Returns Stop if any visited
// layer returned Stop.
func (s *Stack) RenderSweep(delta float64) Signal {
	return s.sweep(renderSweep, func(l Layer) Signal {
		return l.Render(delta)
	})
}

// UpdateSweep updates the active run of layers, top first. Each visited layer
// is write-locked for the duration of the sweep. Returns Stop if any visited
// layer returned Stop.
func (s *Stack) UpdateSweep(delta float64) Signal {
	return s.sweep(updateSweep, func(l Layer) Signal {
		return l.Update(delta)
	})
}

// InputSweep delivers ev to the active input run, top first. Layers that do
// not implement InputHandler are visited (and occlude) but receive nothing.
func (s *Stack) InputSweep(ev any) Signal {
	return s.sweep(inputSweep, func(l Layer) Signal {
		if h, ok := l.(InputHandler); ok {
			return h.HandleInput(ev)
		}
		return Continue
	})
}

func (s *Stack) sweep(kind sweepKind, invoke func(Layer) Signal) Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := s.collect(kind)
	defer release(active, kind)

	// Every layer in the run is invoked; Stop does not short-circuit.
	result := Continue
	for _, sl := range active {
		result = Combine(result, sl.call(invoke))
	}
	return result
}

// collect walks the slots top-down, locking each one, and returns the active
// run with its locks still held. Poisoned slots are skipped.
func (s *Stack) collect(kind sweepKind) (active []*slot) {
	defer func() {
		if r := recover(); r != nil {
			release(active, kind)
			panic(r)
		}
	}()

	for i := len(s.slots) - 1; i >= 0; i-- {
		sl := s.slots[i]
		sl.lock(kind)
		if sl.poisoned.Load() {
			sl.unlock(kind)
			s.warnPoisoned(sl, kind)
			continue
		}

		opaque := s.isOpaque(sl, kind)
		active = append(active, sl)
		if opaque {
			break
		}
	}
	return active
}

// isOpaque evaluates the transparency predicate with sl locked. If the
// predicate panics, sl is poisoned and unlocked before the panic continues.
func (s *Stack) isOpaque(sl *slot, kind sweepKind) bool {
	defer func() {
		if r := recover(); r != nil {
			sl.poisoned.Store(true)
			sl.unlock(kind)
			panic(r)
		}
	}()
	return !kind.transparent(sl.layer)
}

func release(active []*slot, kind sweepKind) {
	for _, sl := range active {
		sl.unlock(kind)
	}
}

func (s *Stack) warnPoisoned(sl *slot, kind sweepKind) {
	if !sl.warned.CompareAndSwap(false, true) {
		return
	}
	s.log.Warning(logSource, fmt.Sprintf("skipping poisoned layer %T during %s sweep", sl.layer, kind))
}
