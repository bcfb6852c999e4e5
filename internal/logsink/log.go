package logsink

import (
	"fmt"
	"sync"
	"time"
)

// Receiver accepts log records.
//
// Implementations must be safe for concurrent use: records arrive from both
// the render and the update loop.
type Receiver interface {
	Notify(rec Record)
}

// Log dispatches records to a set of receivers.
//
// Thread-safety: Log is safe for concurrent use. Receivers may be added while
// records are being dispatched.
type Log struct {
	mu        sync.RWMutex
	receivers []Receiver
	now       func() time.Time
}

// New creates a Log with the given receivers.
func New(receivers ...Receiver) *Log {
	l := &Log{now: time.Now}
	for _, r := range receivers {
		l.AddReceiver(r)
	}
	return l
}

// Discard returns a Log with no receivers.
func Discard() *Log {
	return New()
}

// WithClock replaces the function used to stamp records (tests).
func (l *Log) WithClock(now func() time.Time) *Log {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// AddReceiver registers a receiver. Nil receivers are ignored.
func (l *Log) AddReceiver(r Receiver) {
	if r == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receivers = append(l.receivers, r)
}

// Receivers returns the number of registered receivers.
func (l *Log) Receivers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.receivers)
}

// Notify dispatches rec to every receiver.
//
// A panicking receiver is skipped; the remaining receivers still get the
// record. Notify never panics and never blocks on other callers except to
// read the receiver list.
func (l *Log) Notify(rec Record) {
	if l == nil {
		return
	}
	l.mu.RLock()
	receivers := l.receivers
	l.mu.RUnlock()

	for _, r := range receivers {
		notifySafely(r, rec)
	}
}

func notifySafely(r Receiver, rec Record) {
	defer func() {
		_ = recover()
	}()
	r.Notify(rec)
}

// Now creates a record stamped with the current time and dispatches it.
func (l *Log) Now(severity Severity, source, message string) {
	if l == nil {
		return
	}
	l.mu.RLock()
	now := l.now
	l.mu.RUnlock()
	l.Notify(NewRecord(now(), severity, source, message))
}

// Debug logs a debug message.
func (l *Log) Debug(source, message string) { l.Now(SeverityDebug, source, message) }

// Verbose logs a verbose message.
func (l *Log) Verbose(source, message string) { l.Now(SeverityVerbose, source, message) }

// Info logs an info message.
func (l *Log) Info(source, message string) { l.Now(SeverityInfo, source, message) }

// Warning logs a warning message.
func (l *Log) Warning(source, message string) { l.Now(SeverityWarning, source, message) }

// Error logs an error message.
func (l *Log) Error(source, message string) { l.Now(SeverityError, source, message) }

// Fatal logs a fatal message. It does not exit the process.
func (l *Log) Fatal(source, message string) { l.Now(SeverityFatal, source, message) }

// Logf formats a message and dispatches it.
func (l *Log) Logf(severity Severity, source, format string, args ...any) {
	l.Now(severity, source, fmt.Sprintf(format, args...))
}
