// Package logger provides a small logging abstraction so the transport
// packages never bind to a concrete logging framework.
//
// The Logger interface carries leveled, structured logging with key-value
// pairs. The default implementation is built on log/slog with a JSON
// handler, switching to a human-readable console handler during
// development. Tests use the testify-backed MockLogger.
package logger

// Level indicates the logging severity level.
type Level = int8

const (
	// DebugLevel logs are voluminous and usually disabled in production.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs flag potential issues that need no individual review.
	WarnLevel
	// ErrorLevel logs are high-priority failures.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger defines the common logging interface used throughout go-swi.
type Logger interface {
	// Debug logs a message at DebugLevel with optional key-value fields.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel with optional key-value fields.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel with optional key-value fields.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel with optional key-value fields.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel, then calls os.Exit(1) even if
	// logging at FatalLevel is disabled.
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger with additional structured context.
	// Fields added to the child do not affect the parent.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level for this logger.
	Level() Level
	// SetLevel sets the minimum enabled level for this logger.
	SetLevel(level Level)
}
