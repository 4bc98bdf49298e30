// Package logger provides leveled logging for the context engine.
// Debug and Info messages are printed to stderr only in verbose mode so
// users can follow a request through chunking, retrieval and verification.
// Warnings are always printed.
//
// Document and query text must pass through Redact before being logged.
// Unless content logging is enabled it is replaced with its length.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu             sync.RWMutex
	verbose        bool
	contentLogging bool
	output         io.Writer = os.Stderr
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

// SetContentLogging controls whether Redact returns text verbatim.
func SetContentLogging(v bool) {
	mu.Lock()
	defer mu.Unlock()
	contentLogging = v
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Redact renders document or query text for a log line.
func Redact(text string) string {
	mu.RLock()
	defer mu.RUnlock()
	if contentLogging {
		return fmt.Sprintf("%q", text)
	}
	return fmt.Sprintf("<%d chars>", len([]rune(text)))
}

func logf(always bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(false, "[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	logf(false, "\n=== ", "%s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(false, "[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logf(true, "[WARN] ", format, args...)
}
