package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/timberwolf/internal/game"
)

// WriteRun inserts a run and its events in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - a run ID that already exists
// is silently ignored, events included.
func (s *Store) WriteRun(ctx context.Context, run game.RunReport) error {
	if run.ID == "" {
		return fmt.Errorf("write run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, name, started_at, ended_at, fps, tps, frames, ticks, max_lag_ns, reason, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Name,
		toNanos(run.StartedAt),
		toNanos(run.EndedAt),
		run.FPS,
		run.TPS,
		run.Frames,
		run.Ticks,
		int64(run.MaxLag),
		string(run.Reason),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: rows affected: %w", err)
	}
	if inserted == 0 {
		return tx.Commit()
	}

	for _, ev := range run.Events {
		if err := insertEvent(ctx, tx, run.ID, ev); err != nil {
			return fmt.Errorf("write run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// WriteEvent appends one event to an existing run.
// Uses ON CONFLICT DO NOTHING for idempotency - a (run, seq) pair that
// already exists is silently ignored.
//
// Note: The run must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, runID string, ev game.Event) error {
	if err := insertEvent(ctx, s.db, runID, ev); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, runID string, ev game.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO run_events
		(run_id, seq, at, kind, loop, detail)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		ev.Seq,
		toNanos(ev.At),
		string(ev.Kind),
		ev.Loop,
		ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert event %s/%d: %w", runID, ev.Seq, err)
	}
	return nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
