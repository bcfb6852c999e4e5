package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/timberwolf/internal/game"
)

// ErrRunNotFound is returned by GetRun for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, name, started_at, ended_at, fps, tps, frames, ticks, max_lag_ns, reason, error`

// GetRun returns a run with its events.
// Returns an error wrapping ErrRunNotFound if no run has the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (game.RunReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return game.RunReport{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return game.RunReport{}, fmt.Errorf("get run %s: %w", id, err)
	}

	run.Events, err = s.ListEvents(ctx, id)
	if err != nil {
		return game.RunReport{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first, without their events.
// A limit <= 0 returns every run.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]game.RunReport, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []game.RunReport{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ListEvents returns a run's events in sequence order.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ListEvents(ctx context.Context, runID string) ([]game.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, at, kind, loop, detail
		FROM run_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []game.Event{}
	for rows.Next() {
		var (
			ev   game.Event
			at   int64
			kind string
		)
		if err := rows.Scan(&ev.Seq, &at, &kind, &ev.Loop, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.At = fromNanos(at)
		ev.Kind = game.EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (game.RunReport, error) {
	var (
		run            game.RunReport
		started, ended int64
		maxLag         int64
		reason         string
	)
	err := sc.Scan(
		&run.ID,
		&run.Name,
		&started,
		&ended,
		&run.FPS,
		&run.TPS,
		&run.Frames,
		&run.Ticks,
		&maxLag,
		&reason,
		&run.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return game.RunReport{}, err
	}
	if err != nil {
		return game.RunReport{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = fromNanos(started)
	run.EndedAt = fromNanos(ended)
	run.MaxLag = time.Duration(maxLag)
	run.Reason = game.StopReason(reason)
	return run, nil
}
