package game

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoopError(t *testing.T) {
	cause := errors.New("boom")
	le := &LoopError{Loop: "update", Value: cause}

	assert.Equal(t, "update loop panicked: boom", le.Error())
	assert.ErrorIs(t, le, cause)

	wrapped := fmt.Errorf("run: %w", le)
	assert.True(t, IsLoopError(wrapped))
	assert.True(t, IsLoopError(errors.Join(errors.New("other"), le)))
	assert.False(t, IsLoopError(cause))
	assert.False(t, IsLoopError(nil))
}

func TestShutdown_FirstReasonWins(t *testing.T) {
	tok := newShutdown()
	assert.False(t, tok.triggered())

	tok.trigger(StopLayer)
	tok.trigger(StopFatal)

	assert.True(t, tok.triggered())
	assert.Equal(t, StopLayer, tok.reason)
	assert.False(t, tok.sleep(0))
	assert.False(t, tok.sleep(time.Hour))
}
