package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/timberwolf/internal/game"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestRun creates a finished run that started offset after testEpoch
// and lasted one second.
func createTestRun(id string, offset time.Duration) game.RunReport {
	start := testEpoch.Add(offset)
	return game.RunReport{
		ID:        id,
		Name:      "test",
		StartedAt: start,
		EndedAt:   start.Add(time.Second),
		FPS:       60,
		TPS:       20,
		Frames:    60,
		Ticks:     20,
		MaxLag:    3 * time.Millisecond,
		Reason:    game.StopLayer,
		Events: []game.Event{
			{Seq: 1, At: start, Kind: game.EventStart, Detail: "fps=60 tps=20"},
			{Seq: 2, At: start.Add(time.Second), Kind: game.EventStop, Detail: "layer-stop"},
		},
	}
}
