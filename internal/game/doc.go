// Package game runs a layer stack with two independently rate-limited loops.
//
// ARCHITECTURE:
//
// Two loops share one layer.Stack:
//   - The update loop advances simulation state. It runs in lockstep with
//     catch-up enabled, so every tick reports the same delta and lost time is
//     recovered by shortening later waits.
//   - The render loop draws whatever state the update loop last produced. It
//     reports wall-clock deltas and never tries to catch up.
//
// Each iteration asks its RateLimiter for a delta, sweeps the stack, asks for
// a wait and sleeps. The sleep is the only suspension point; it is
// interrupted by shutdown and by context cancellation.
//
// Shutdown:
// A layer returning layer.Stop, a panic in either loop, or cancellation of
// the context passed to Run triggers a shared shutdown token. Both loops
// observe it at their next iteration boundary and exit. A panic is
// recovered into a *LoopError and returned from Run so a failing loop never
// leaves its sibling running.
//
// Structural changes requested by layers during a sweep go through
// layer.Stack.Enqueue; the update loop flushes the queue before each sweep.
package game
