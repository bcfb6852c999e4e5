package layer

// Signal is a layer's request to the loop that invoked it.
type Signal int

const (
	// Continue keeps the loops running.
	Continue Signal = iota
	// Stop asks both loops to shut down.
	Stop
)

// String returns "continue" or "stop".
func (s Signal) String() string {
	if s == Stop {
		return "stop"
	}
	return "continue"
}

// Combine aggregates two signals. Stop wins over Continue.
func Combine(a, b Signal) Signal {
	if a == Stop || b == Stop {
		return Stop
	}
	return Continue
}

// Layer is a unit of game-state behavior (a "context" or "game state").
//
// Render is called from the render loop while the layer is read-locked;
// Update from the update loop while it is write-locked. Render must
// therefore not mutate layer state.
//
// Render, Update and the hooks run while the stack is held. From there a
// layer must not call Push, Pop, Swap, Flush or Poisoned on its stack: they
// wait for the stack and deadlock. Request changes with Stack.Enqueue.
// Len, Top and Layers never wait and are safe to call.
//
// Embed Base to get opaque transparency and no-op hooks.
type Layer interface {
	// Render draws the layer. delta is the number of seconds since the
	// previous render.
	Render(delta float64) Signal

	// Update advances the layer's state by delta simulated seconds.
	Update(delta float64) Signal

	// RenderTransparent reports whether layers below also render.
	RenderTransparent() bool

	// UpdateTransparent reports whether layers below also update.
	UpdateTransparent() bool

	// InputTransparent reports whether layers below also receive input.
	InputTransparent() bool

	// OnPush fires when the layer joins a stack, before it becomes
	// visible to sweeps.
	OnPush(ev PushEvent)

	// OnPop fires after the layer has been removed from its stack.
	OnPop()

	// OnFocus fires when the layer becomes the topmost layer.
	OnFocus()

	// OnUnfocus fires when the layer stops being the topmost layer.
	OnUnfocus()
}

// PushEvent describes the stack a layer is joining.
type PushEvent struct {
	// Depth is the number of layers beneath the new layer.
	Depth int

	// Below is the layer directly beneath, or nil at the bottom.
	Below Layer

	// Replaced is the previous occupant when the push is part of a Swap,
	// nil otherwise. Ownership of it passes to the new layer, which may
	// adopt its state or discard it.
	Replaced Layer
}

// InputHandler is implemented by layers that consume input events.
// Layers without it still occlude input according to InputTransparent.
type InputHandler interface {
	HandleInput(ev any) Signal
}

// Base provides the default Layer behavior: opaque to every operation and
// no-op lifecycle hooks. Embed it and implement Render and Update.
type Base struct{}

// RenderTransparent implements Layer.
func (Base) RenderTransparent() bool { return false }

// UpdateTransparent implements Layer.
func (Base) UpdateTransparent() bool { return false }

// InputTransparent implements Layer.
func (Base) InputTransparent() bool { return false }

// OnPush implements Layer.
func (Base) OnPush(PushEvent) {}

// OnPop implements Layer.
func (Base) OnPop() {}

// OnFocus implements Layer.
func (Base) OnFocus() {}

// OnUnfocus implements Layer.
func (Base) OnUnfocus() {}
