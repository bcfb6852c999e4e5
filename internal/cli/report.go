package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/timberwolf/internal/game"
)

// timeLayout is used for run timestamps in text output.
const timeLayout = "2006-01-02 15:04:05"

// RunView is the JSON shape of a run.
type RunView struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	StartedAt  time.Time   `json:"started_at"`
	EndedAt    time.Time   `json:"ended_at"`
	DurationMS int64       `json:"duration_ms"`
	FPS        float64     `json:"fps"`
	TPS        float64     `json:"tps"`
	Frames     int64       `json:"frames"`
	Ticks      int64       `json:"ticks"`
	MaxLagMS   float64     `json:"max_lag_ms"`
	Reason     string      `json:"reason"`
	Error      string      `json:"error,omitempty"`
	Events     []EventView `json:"events,omitempty"`
}

// EventView is the JSON shape of a run event.
type EventView struct {
	Seq    int64     `json:"seq"`
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Loop   string    `json:"loop,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

func newRunView(r game.RunReport) RunView {
	v := RunView{
		ID:         r.ID,
		Name:       r.Name,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		DurationMS: r.Duration().Milliseconds(),
		FPS:        r.FPS,
		TPS:        r.TPS,
		Frames:     r.Frames,
		Ticks:      r.Ticks,
		MaxLagMS:   float64(r.MaxLag) / float64(time.Millisecond),
		Reason:     string(r.Reason),
		Error:      r.Error,
	}
	for _, ev := range r.Events {
		v.Events = append(v.Events, EventView{
			Seq:    ev.Seq,
			At:     ev.At,
			Kind:   string(ev.Kind),
			Loop:   ev.Loop,
			Detail: ev.Detail,
		})
	}
	return v
}

// writeRunDetail prints one run and its events.
func writeRunDetail(w io.Writer, r game.RunReport) {
	fmt.Fprintf(w, "Run %s (%s)\n", r.ID, r.Name)
	fmt.Fprintf(w, "  started:  %s\n", r.StartedAt.UTC().Format(timeLayout))
	fmt.Fprintf(w, "  ended:    %s\n", r.EndedAt.UTC().Format(timeLayout))
	fmt.Fprintf(w, "  duration: %s\n", r.Duration())
	fmt.Fprintf(w, "  rates:    fps=%g tps=%g\n", r.FPS, r.TPS)
	fmt.Fprintf(w, "  frames:   %d\n", r.Frames)
	fmt.Fprintf(w, "  ticks:    %d\n", r.Ticks)
	fmt.Fprintf(w, "  max lag:  %s\n", r.MaxLag)
	fmt.Fprintf(w, "  reason:   %s\n", r.Reason)
	if r.Error != "" {
		fmt.Fprintf(w, "  error:    %s\n", r.Error)
	}

	if len(r.Events) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Events:")
	for _, ev := range r.Events {
		detail := ev.Detail
		if ev.Loop != "" {
			detail = fmt.Sprintf("[%s] %s", ev.Loop, detail)
		}
		fmt.Fprintf(w, "  %d  %s  %-5s  %s\n", ev.Seq, ev.At.UTC().Format("15:04:05.000"), ev.Kind, detail)
	}
}

// writeRunTable prints one line per run, most recent first.
func writeRunTable(w io.Writer, runs []game.RunReport) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	fmt.Fprintf(w, "%-36s  %-12s  %-19s  %-10s  %7s  %7s  %s\n",
		"ID", "NAME", "STARTED", "REASON", "FRAMES", "TICKS", "DURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-12s  %-19s  %-10s  %7d  %7d  %s\n",
			r.ID, r.Name, r.StartedAt.UTC().Format(timeLayout), r.Reason, r.Frames, r.Ticks, r.Duration())
	}
}
