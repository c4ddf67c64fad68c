// Package logger provides console and audit logging for ShareSentry.
// Console messages go to stderr only in --verbose mode. When an audit writer
// is set, every message is also recorded there with a timestamp, whatever the
// verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	audit   io.Writer
	now     = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetAudit sets the persistent audit writer. Nil disables auditing.
func SetAudit(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	audit = w
}

// Debug logs a diagnostic line: console in verbose mode, audit always.
func Debug(format string, args ...any) {
	write("DEBUG", format, args...)
}

// Section prints a header in verbose mode and marks the audit trail.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
	if audit != nil {
		fmt.Fprintf(audit, "%s [SECTION] %s\n", now().UTC().Format(time.RFC3339), name)
	}
}

// Info logs progress: console in verbose mode, audit always.
func Info(format string, args ...any) {
	write("INFO", format, args...)
}

// Warn logs a recoverable problem such as a skipped target or page.
func Warn(format string, args ...any) {
	write("WARN", format, args...)
}

// Error records a failure. The audit trail receives it even when the console
// is quiet, so per-target failures survive a non-verbose run.
func Error(format string, args ...any) {
	write("ERROR", format, args...)
}

// write holds the write lock so console and audit lines from parallel
// workers never interleave.
func write(level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && audit == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if verbose {
		fmt.Fprintf(output, "[%s] %s\n", level, msg)
	}
	if audit != nil {
		fmt.Fprintf(audit, "%s [%s] %s\n", now().UTC().Format(time.RFC3339), level, msg)
	}
}
