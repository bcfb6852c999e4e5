// Package timing controls the rate at which the engine's loops run.
//
// A RateLimiter answers two questions for every loop iteration: how much
// simulated time the iteration should advance (Begin), and how long the loop
// should sleep before the next iteration (End). Both are derived from a Clock
// that is reset at every iteration boundary.
//
// # Modes
//
// Lockstep: every iteration reports the same delta (interval * speed)
// regardless of jitter. Used by the update loop so simulation is
// deterministic.
//
// Catch-up: lag owed by earlier iterations is remembered and eats into the
// idle time of later iterations. With catch-up disabled the lag is always 0.
//
// # Time Sources
//
// Clock reads time through a TimeSource. Production code uses SystemTime
// (monotonic wall clock); tests inject a manual source so wait and lag
// calculations can be asserted exactly.
package timing
