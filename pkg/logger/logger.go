// Package logger provides the logging interface shared by the warpcookie
// packages. Extraction code logs through this interface so callers decide
// where diagnostics go and tests can capture them.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger is the leveled, printf-style logger used across warpcookie.
// Cookie values must never be passed to any of these methods.
type Logger interface {
	// Debug logs a diagnostic message (e.g., the chosen keyring backend).
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Extracted 12 cookies from chrome").
	Info(format string, args ...interface{})

	// Warning logs a recoverable problem (e.g., "cannot decrypt v11 cookies: no key found").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "kwallet-query command not found").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. It may be called more
	// than once.
	Close() error
}

// StandardLogger prints to a *log.Logger with a [LEVEL] prefix per line.
// Debug lines are dropped unless the logger is verbose.
type StandardLogger struct {
	logger  *log.Logger
	verbose bool
}

// NewStandardLogger logs Info and above to l.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// NewVerboseLogger logs everything, Debug included, to l.
func NewVerboseLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l, verbose: true}
}

func (s *StandardLogger) printf(level, format string, args []interface{}) {
	s.logger.Printf("["+level+"] "+format, args...)
}

func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if s.verbose {
		s.printf("DEBUG", format, args)
	}
}

func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.printf("INFO", format, args)
}

func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.printf("WARNING", format, args)
}

func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.printf("ERROR", format, args)
}

// Close does nothing, the underlying writer belongs to the caller.
func (s *StandardLogger) Close() error { return nil }

// NopLogger drops every message.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...interface{})   {}
func (*NopLogger) Info(string, ...interface{})    {}
func (*NopLogger) Warning(string, ...interface{}) {}
func (*NopLogger) Error(string, ...interface{})   {}
func (*NopLogger) Close() error                   { return nil }

// OnceLogger decorates a Logger with WarningOnce, which reports each distinct
// formatted warning a single time for the lifetime of the OnceLogger.
type OnceLogger struct {
	Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewOnceLogger wraps l. A nil l is replaced by a NopLogger.
func NewOnceLogger(l Logger) *OnceLogger {
	if l == nil {
		l = NewNopLogger()
	}
	if ol, ok := l.(*OnceLogger); ok {
		return ol
	}
	return &OnceLogger{Logger: l, seen: make(map[string]struct{})}
}

// WarningOnce logs the formatted warning unless an identical one was already logged.
func (o *OnceLogger) WarningOnce(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	o.mu.Lock()
	_, dup := o.seen[msg]
	o.seen[msg] = struct{}{}
	o.mu.Unlock()
	if dup {
		return
	}
	o.Logger.Warning("%s", msg)
}

// MockLogger keeps every formatted message per level so tests can assert on
// them. It is safe for concurrent use.
type MockLogger struct {
	mu           sync.Mutex
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

func NewMockLogger() *MockLogger { return &MockLogger{} }

func (m *MockLogger) record(calls *[]string, format string, args []interface{}) {
	m.mu.Lock()
	*calls = append(*calls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(&m.DebugCalls, format, args)
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalls, format, args)
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalls, format, args)
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalls, format, args)
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	return nil
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*OnceLogger)(nil)
	_ Logger = (*MockLogger)(nil)
)
