package logsink

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Severity is the importance of a log record.
type Severity int

const (
	// SeverityDebug is for developers during development.
	SeverityDebug Severity = iota
	// SeverityVerbose is generally unimportant detail.
	SeverityVerbose
	// SeverityInfo is low importance, not a problem.
	SeverityInfo
	// SeverityWarning is a potential problem or unexpected behavior.
	SeverityWarning
	// SeverityError means something definitely went wrong.
	SeverityError
	// SeverityFatal means the program will fail.
	SeverityFatal
)

var severityNames = [...]string{"DEBUG", "VERBOSE", "INFO", "WARNING", "ERROR", "FATAL"}

// String returns the upper-case severity name.
func (s Severity) String() string {
	if s < SeverityDebug || s > SeverityFatal {
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity parses a severity name, case-insensitively.
// "warn" is accepted as an alias for "warning".
func ParseSeverity(name string) (Severity, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "WARN" {
		return SeverityWarning, nil
	}
	for i, n := range severityNames {
		if n == upper {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// Record is a single log event.
type Record struct {
	// Time is when the record was created.
	Time time.Time

	// Severity is the importance of the record.
	Severity Severity

	// Source names the subsystem or layer that emitted the record,
	// used for filtering. Always NFC normalized.
	Source string

	// Message is the human-readable text.
	Message string
}

// NewRecord creates a record stamped with t.
//
// The source tag is NFC normalized so that receivers filtering on source
// compare canonical strings regardless of how the caller composed them.
func NewRecord(t time.Time, severity Severity, source, message string) Record {
	return Record{
		Time:     t,
		Severity: severity,
		Source:   norm.NFC.String(source),
		Message:  message,
	}
}

// Format renders the record on one line:
//
//	2024-01-01 12:00:00 INFO    -> game    : message
func (r Record) Format() string {
	return fmt.Sprintf("%s %-7s -> %-8s: %s",
		r.Time.Format("2006-01-02 15:04:05"),
		r.Severity.String(),
		r.Source,
		r.Message,
	)
}
