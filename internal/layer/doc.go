// Package layer implements the layered state machine that decides, on every
// tick, which layers take part in rendering, simulation, and input.
//
// A Stack holds Layers from bottom (pushed first) to top (pushed last). A
// sweep walks the stack from the top down and collects every layer that is
// transparent to the operation, plus the first opaque layer it meets, then
// stops. Layers below the nearest opaque layer are never visited. The
// collected layers are invoked in the same top-down order.
//
// # Concurrency
//
// The render loop and the update loop sweep the same stack from different
// goroutines:
//
//   - The slot sequence is guarded by a RWMutex: sweeps share it, Push, Pop
//     and Swap take it exclusively.
//   - Each slot has its own RWMutex: RenderSweep read-locks the layers it
//     visits, UpdateSweep and InputSweep write-lock them. A layer is never
//     rendered while it is being updated; different layers may be rendered
//     and updated at the same time.
//   - Both sweeps acquire slot locks top-down, so they cannot deadlock
//     against each other.
//
// Layers must not call Push, Pop or Swap from inside a sweep (the sequence
// lock is held). They Enqueue an Op instead; the update loop applies queued
// ops between sweeps via Flush.
//
// # Poisoning
//
// A layer that panics during a sweep poisons its slot and the panic
// propagates to the loop. Later sweeps treat poisoned slots as absent and
// keep walking, favoring liveness over completeness.
package layer
