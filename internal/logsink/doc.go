// Package logsink is the engine's logging collaborator.
//
// Loops and layers emit human-readable Records (time, severity, source tag,
// message) to a Log, which fans them out to every registered Receiver.
//
// The contract with callers is one-way: notifying a Log never returns an
// error and never panics. A receiver that fails or panics is skipped for
// that record so a broken sink can never stop the render or update loop.
//
// Receivers:
//   - SlogReceiver forwards records to a *slog.Logger (the process logger).
//   - ConsoleReceiver writes the classic one-line format, errors to stderr.
//   - FileReceiver appends the same format to a log file.
//   - FuncReceiver adapts a plain function.
//   - MinSeverity wraps any receiver with a severity filter.
package logsink
