package store

import (
	"context"

	"github.com/roach88/timberwolf/internal/game"
)

var _ game.Recorder = (*Store)(nil)

// RecordRun implements game.Recorder by writing the report with WriteRun.
func (s *Store) RecordRun(ctx context.Context, report game.RunReport) error {
	return s.WriteRun(ctx, report)
}
