package game

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned when Run is called on a game whose loops are
// still running.
var ErrAlreadyRunning = errors.New("game is already running")

// LoopError reports a panic recovered from one of the game loops.
//
// A LoopError is fatal: the sibling loop is shut down and Run returns the
// error once both loops have exited.
type LoopError struct {
	// Loop names the loop that panicked ("render" or "update").
	Loop string

	// Value is the value passed to panic.
	Value any

	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *LoopError) Error() string {
	return fmt.Sprintf("%s loop panicked: %v", e.Loop, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *LoopError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsLoopError returns true if err is or wraps a *LoopError.
// Uses errors.As to handle wrapped and joined errors.
func IsLoopError(err error) bool {
	var le *LoopError
	return errors.As(err, &le)
}
