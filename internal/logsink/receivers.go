package logsink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// slog levels for severities that slog does not define.
const (
	LevelVerbose = slog.Level(-2)
	LevelFatal   = slog.Level(12)
)

// SlogLevel maps a severity onto a slog level.
func SlogLevel(s Severity) slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityVerbose:
		return LevelVerbose
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return LevelFatal
	}
}

// SlogReceiver forwards records to a slog.Logger.
type SlogReceiver struct {
	logger *slog.Logger
}

// NewSlogReceiver wraps logger. A nil logger means slog.Default().
func NewSlogReceiver(logger *slog.Logger) *SlogReceiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReceiver{logger: logger}
}

// Notify implements Receiver.
func (r *SlogReceiver) Notify(rec Record) {
	level := SlogLevel(rec.Severity)
	ctx := context.Background()
	if !r.logger.Enabled(ctx, level) {
		return
	}
	sr := slog.NewRecord(rec.Time, level, rec.Message, 0)
	sr.AddAttrs(slog.String("source", rec.Source))
	_ = r.logger.Handler().Handle(ctx, sr)
}

// ConsoleReceiver writes formatted records, one per line. Errors and fatal
// records go to the error writer, everything else to the output writer.
type ConsoleReceiver struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// NewConsoleReceiver writes to stdout and stderr.
func NewConsoleReceiver() *ConsoleReceiver {
	return NewWriterReceiver(os.Stdout, os.Stderr)
}

// NewWriterReceiver writes to the given writers. A nil err writer means out.
func NewWriterReceiver(out, err io.Writer) *ConsoleReceiver {
	if err == nil {
		err = out
	}
	return &ConsoleReceiver{out: out, err: err}
}

// Notify implements Receiver. Write failures are ignored.
func (r *ConsoleReceiver) Notify(rec Record) {
	w := r.out
	if rec.Severity >= SeverityError {
		w = r.err
	}
	line := rec.Format() + "\n"

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(w, line)
}

// FileReceiver appends formatted records of every severity to a file.
type FileReceiver struct {
	*ConsoleReceiver
	f *os.File
}

// NewFileReceiver opens path for appending, creating it if needed.
// Call Close when the log is done with it.
func NewFileReceiver(path string) (*FileReceiver, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileReceiver{ConsoleReceiver: NewWriterReceiver(f, f), f: f}, nil
}

// Close closes the file. Records notified afterwards are dropped.
func (r *FileReceiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}

// FuncReceiver adapts a function to the Receiver interface.
type FuncReceiver func(rec Record)

// Notify implements Receiver.
func (f FuncReceiver) Notify(rec Record) {
	f(rec)
}

// MinSeverity drops records below min before passing them on.
func MinSeverity(min Severity, next Receiver) Receiver {
	return FuncReceiver(func(rec Record) {
		if rec.Severity >= min {
			next.Notify(rec)
		}
	})
}

// Collector keeps every record it receives. Useful in tests and for
// short-lived diagnostics.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

// Notify implements Receiver.
func (c *Collector) Notify(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

// Records returns a copy of the collected records in arrival order.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Messages returns the collected messages from source, in arrival order.
// An empty source matches every record.
func (c *Collector) Messages(source string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, r := range c.records {
		if source == "" || r.Source == source {
			out = append(out, r.Message)
		}
	}
	return out
}
