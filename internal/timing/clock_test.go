package timing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/timberwolf/internal/testutil"
)

func TestClock_StartsAtZero(t *testing.T) {
	src := testutil.NewManualTime()
	c := NewClock(src)
	assert.Equal(t, time.Duration(0), c.Elapsed())
}

func TestClock_ElapsedTracksSource(t *testing.T) {
	src := testutil.NewManualTime()
	c := NewClock(src)

	src.Advance(7 * time.Millisecond)
	assert.Equal(t, 7*time.Millisecond, c.Elapsed())
	assert.InDelta(t, 0.007, c.ElapsedSeconds(), 1e-9)

	// Elapsed is side-effect free
	assert.Equal(t, 7*time.Millisecond, c.Elapsed())
}

func TestClock_Reset(t *testing.T) {
	src := testutil.NewManualTime()
	c := NewClock(src)

	src.Advance(20 * time.Millisecond)
	c.Reset()
	assert.Equal(t, time.Duration(0), c.Elapsed())

	src.Advance(3 * time.Millisecond)
	assert.Equal(t, 3*time.Millisecond, c.Elapsed())
}

// backwardsTime returns an instant earlier than the clock's reference.
type backwardsTime struct {
	calls int
}

func (b *backwardsTime) Now() time.Time {
	b.calls++
	return testutil.Epoch.Add(-time.Duration(b.calls) * time.Second)
}

func TestClock_ElapsedNeverNegative(t *testing.T) {
	c := NewClock(&backwardsTime{})
	assert.Equal(t, time.Duration(0), c.Elapsed())
}

func TestClock_NilSourceUsesSystemTime(t *testing.T) {
	c := NewClock(nil)
	time.Sleep(time.Millisecond)
	assert.Greater(t, c.Elapsed(), time.Duration(0))
}

func TestClock_ConcurrentReaders(t *testing.T) {
	src := testutil.NewManualTime()
	c := NewClock(src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.GreaterOrEqual(t, c.Elapsed(), time.Duration(0))
			}
		}()
	}
	for j := 0; j < 100; j++ {
		src.Advance(time.Millisecond)
		c.Reset()
	}
	wg.Wait()
}
