// Package fclog provides the small leveled logging interface used
// throughout fscat: a Logger for warnings/errors plus a verbosity-gated
// InfoLogger, with Std as a minimal io.Writer-backed implementation.
package fclog

import (
	"fmt"
	"io"
)

// Level is a verbosity level for Info logs.
type Level int32

// Logger is the logging interface fscat uses. Recoverable per-file errors
// during a crawl (an unreadable or unstatable file) are reported through
// Warnf; nothing in this package ever calls os.Exit or panics.
type Logger interface {
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	V(Level) InfoLogger
}

// InfoLogger is the verbosity-gated informational logging interface.
type InfoLogger interface {
	Info(msg string)
	Infof(format string, args ...interface{})
	Enabled() bool
}

// Std is a Logger that writes to an io.Writer, prefixing warning and error
// lines with a level tag (info lines are written untagged). V(level) is gated against a configured verbosity threshold;
// level 0 is always enabled.
type Std struct {
	w         io.Writer
	verbosity Level
}

// NewStd returns a Std logger writing to w. Info logs at a level greater
// than verbosity are discarded.
func NewStd(w io.Writer, verbosity Level) *Std {
	return &Std{w: w, verbosity: verbosity}
}

func (l *Std) Warn(msg string) { fmt.Fprintln(l.w, "WARN:", msg) }

func (l *Std) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "WARN: "+format+"\n", args...)
}

func (l *Std) Error(msg string) { fmt.Fprintln(l.w, "ERROR:", msg) }

func (l *Std) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, "ERROR: "+format+"\n", args...)
}

func (l *Std) V(level Level) InfoLogger {
	return stdInfoLogger{w: l.w, enabled: level <= l.verbosity}
}

type stdInfoLogger struct {
	w       io.Writer
	enabled bool
}

func (l stdInfoLogger) Enabled() bool { return l.enabled }

func (l stdInfoLogger) Info(msg string) {
	if l.enabled {
		fmt.Fprintln(l.w, msg)
	}
}

func (l stdInfoLogger) Infof(format string, args ...interface{}) {
	if l.enabled {
		fmt.Fprintf(l.w, format+"\n", args...)
	}
}

// Noop discards everything. Used as the zero-value default so callers that
// never configure a Logger don't need a nil check.
type Noop struct{}

func (Noop) Warn(string)                   {}
func (Noop) Warnf(string, ...interface{})  {}
func (Noop) Error(string)                  {}
func (Noop) Errorf(string, ...interface{}) {}
func (Noop) V(Level) InfoLogger            { return noopInfo{} }

type noopInfo struct{}

func (noopInfo) Info(string)                  {}
func (noopInfo) Infof(string, ...interface{}) {}
func (noopInfo) Enabled() bool                { return false }
