package timing

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is matched by every *ConfigError via errors.Is.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports a rate limiter parameter that can never produce a
// working loop (zero or negative interval, frequency, or speed).
//
// Configuration errors are detected at construction time so a loop never
// starts with an unusable limiter.
type ConfigError struct {
	// Field names the offending parameter ("interval", "frequency", "speed").
	Field string

	// Value is the rejected value, formatted for display.
	Value string

	// Reason is a human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%s: %s", ErrInvalidConfiguration, e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func newConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Value:  fmt.Sprintf("%v", value),
		Reason: reason,
	}
}
