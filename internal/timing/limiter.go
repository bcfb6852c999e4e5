package timing

import (
	"math"
	"sync"
	"time"
)

// DefaultSpeed is the ratio of simulated time to real time when no speed
// option is given.
const DefaultSpeed = 1.0

// Rev is the pair of values a loop needs for one iteration: how far to
// advance the simulation and how long to sleep afterwards.
type Rev struct {
	// Delta is the number of simulated seconds this iteration advances.
	Delta float64

	// Wait is the time to sleep before the next iteration.
	Wait time.Duration
}

// RateLimiter controls the rate at which a loop runs.
//
// Typical use:
//
//	for {
//		delta := rl.Begin()
//		doWork(delta)
//		time.Sleep(rl.End())
//	}
//
// Thread-safety: all methods are safe for concurrent use. In practice one
// loop drives Begin/End while other goroutines may read stats or retune the
// interval.
type RateLimiter struct {
	mu       sync.Mutex
	lockstep bool
	catchup  bool
	interval time.Duration
	speed    float64
	lag      time.Duration
	clock    *Clock
}

// Option configures a RateLimiter at construction.
type Option func(*limiterOptions)

type limiterOptions struct {
	lockstep bool
	catchup  bool
	speed    float64
	src      TimeSource
}

// WithLockstep makes every iteration report interval*speed as its delta.
func WithLockstep(enabled bool) Option {
	return func(o *limiterOptions) { o.lockstep = enabled }
}

// WithCatchup enables lag tracking and compensation.
func WithCatchup(enabled bool) Option {
	return func(o *limiterOptions) { o.catchup = enabled }
}

// WithSpeed sets the ratio of simulated time to real time. Must be > 0.
func WithSpeed(speed float64) Option {
	return func(o *limiterOptions) { o.speed = speed }
}

// WithTimeSource replaces the system clock (tests).
func WithTimeSource(src TimeSource) Option {
	return func(o *limiterOptions) { o.src = src }
}

// NewRateLimiter creates a limiter targeting one iteration per interval.
//
// Returns a *ConfigError if interval or speed is not positive.
func NewRateLimiter(interval time.Duration, opts ...Option) (*RateLimiter, error) {
	o := limiterOptions{speed: DefaultSpeed}
	for _, opt := range opts {
		opt(&o)
	}

	if interval <= 0 {
		return nil, newConfigError("interval", interval, "must be positive")
	}
	if err := validateSpeed(o.speed); err != nil {
		return nil, err
	}

	return &RateLimiter{
		lockstep: o.lockstep,
		catchup:  o.catchup,
		interval: interval,
		speed:    o.speed,
		clock:    NewClock(o.src),
	}, nil
}

// NewRateLimiterFromFrequency creates a limiter targeting perSecond
// iterations per second (interval = 1/perSecond seconds).
func NewRateLimiterFromFrequency(perSecond float64, opts ...Option) (*RateLimiter, error) {
	interval, err := frequencyToInterval(perSecond)
	if err != nil {
		return nil, err
	}
	return NewRateLimiter(interval, opts...)
}

// Begin returns the delta, in simulated seconds, to report for the current
// iteration. The clock is not reset here; End resets it so the elapsed window
// used for the delta matches the one used for the wait.
func (r *RateLimiter) Begin() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deltaLocked()
}

// End finishes the current iteration: computes the wait until the next one,
// updates the accumulated lag, and resets the clock.
func (r *RateLimiter) End() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endLocked()
}

// Next is Begin and End in one call.
func (r *RateLimiter) Next() Rev {
	r.mu.Lock()
	defer r.mu.Unlock()
	delta := r.deltaLocked()
	wait := r.endLocked()
	return Rev{Delta: delta, Wait: wait}
}

func (r *RateLimiter) deltaLocked() float64 {
	if r.lockstep {
		return r.interval.Seconds() * r.speed
	}
	return r.clock.ElapsedSeconds() * r.speed
}

func (r *RateLimiter) endLocked() time.Duration {
	wait := CalculateWait(r.clock.Elapsed(), r.interval, r.lag)
	r.lag = CalculateLag(wait, r.interval, r.lag, r.catchup)
	r.clock.Reset()
	return wait
}

// SetInterval changes the target interval, in seconds. Takes effect at the
// next End; accumulated lag is left as is.
func (r *RateLimiter) SetInterval(seconds float64) error {
	interval, err := secondsToInterval(seconds)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.interval = interval
	r.mu.Unlock()
	return nil
}

// SetFrequency changes the target frequency, in iterations per second.
func (r *RateLimiter) SetFrequency(perSecond float64) error {
	interval, err := frequencyToInterval(perSecond)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.interval = interval
	r.mu.Unlock()
	return nil
}

// Interval returns the target duration between iterations.
func (r *RateLimiter) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// Lag returns the accumulated lag. Always 0 when catch-up is disabled.
func (r *RateLimiter) Lag() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lag
}

// Speed returns the simulated-to-real time ratio.
func (r *RateLimiter) Speed() float64 {
	return r.speed
}

// Lockstep reports whether fixed-delta mode is enabled.
func (r *RateLimiter) Lockstep() bool {
	return r.lockstep
}

// Catchup reports whether lag compensation is enabled.
func (r *RateLimiter) Catchup() bool {
	return r.catchup
}

// CalculateWait returns how long to sleep after an iteration that took
// elapsed, given the target interval and the lag still owed.
//
//   - elapsed >= interval: 0, the iteration overran.
//   - lag >= interval-elapsed: 0, the lag eats all the idle time.
//   - otherwise: interval - elapsed - lag.
func CalculateWait(elapsed, interval, lag time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	remaining := interval - elapsed
	if lag >= remaining {
		return 0
	}
	return remaining - lag
}

// CalculateLag returns the lag carried into the next iteration.
//
// With catch-up disabled the result is always 0. Otherwise a wait of at
// least a full interval adds the excess to the lag, and a shorter wait pays
// the lag down by the shortfall, never below 0.
func CalculateLag(lastWait, interval, lag time.Duration, catchup bool) time.Duration {
	if !catchup {
		return 0
	}
	if lastWait >= interval {
		return lag + (lastWait - interval)
	}
	gained := interval - lastWait
	if lag > gained {
		return lag - gained
	}
	return 0
}

func validateSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return newConfigError("speed", speed, "must be a positive finite number")
	}
	return nil
}

func frequencyToInterval(perSecond float64) (time.Duration, error) {
	if math.IsNaN(perSecond) || math.IsInf(perSecond, 0) || perSecond <= 0 {
		return 0, newConfigError("frequency", perSecond, "must be a positive finite number")
	}
	interval := time.Duration(float64(time.Second) / perSecond)
	if interval <= 0 {
		return 0, newConfigError("frequency", perSecond, "interval rounds to zero")
	}
	return interval, nil
}

func secondsToInterval(seconds float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, newConfigError("interval", seconds, "must be a positive finite number")
	}
	interval := time.Duration(seconds * float64(time.Second))
	if interval <= 0 {
		return 0, newConfigError("interval", seconds, "rounds to zero")
	}
	return interval, nil
}
