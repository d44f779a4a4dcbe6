// Package log provides a structured logging interface for hyperparameter
// tuning operations.
//
// This package defines a minimal, slog-compatible logging interface that
// allows for flexible implementation switching while providing
// tuning-specific structured logging capabilities. The interface is designed
// to integrate seamlessly with Go's standard log/slog package and popular
// logging libraries like zerolog.
//
// Key features:
//   - slog-compatible interface for future-proofing
//   - tuning-specific structured attributes (trial numbers, metrics, timings)
//   - Context-aware logging with field chaining
//   - Test-friendly with configurable output destinations
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.StudyNameKey, "quadratic-search",
//	)
//	logger.Info("Trial finished",
//	    log.TrialNumberKey, 12,
//	    log.DurationMsKey, 432,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// The interface supports method chaining through the With method, allowing
// for creation of contextual loggers with pre-populated fields. It is
// implementation-agnostic, enabling easy switching between logging backends
// while maintaining a consistent API.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	//
	// Example:
	//   logger.Debug("Suggesting parameter",
	//       log.ParamNameKey, "learning_rate",
	//       log.SuggestKindKey, "suggest_float",
	//   )
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	//
	// Example:
	//   logger.Info("Trial finished",
	//       log.TrialNumberKey, 3,
	//       log.DurationMsKey, 5432,
	//   )
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// If an error value is provided as a field value, stack trace
	// information may be automatically included by the backend.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	// The returned logger automatically includes the fields in all
	// subsequent log messages.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given
	// level. It can be used to avoid expensive message construction for
	// records that would be discarded.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
