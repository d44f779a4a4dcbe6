package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	tunerrors "github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
)

// ZerologLogger is a Logger implementation backed by rs/zerolog.
// It is the default backend for library-level logging; structured error and
// warning types that implement zerolog.LogObjectMarshaler are emitted as
// nested objects.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a zerolog-backed logger writing JSON to w.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger creates a zerolog-backed logger with human-friendly
// console output on stderr. Intended for interactive runs and examples.
func NewConsoleLogger(level Level) *ZerologLogger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr}
	zl := zerolog.New(cw).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// Debug implements Logger.Debug.
func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields...)
}

// Info implements Logger.Info.
func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields...)
}

// Warn implements Logger.Warn.
func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields...)
}

// Error implements Logger.Error.
func (z *ZerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields...)
}

// With implements Logger.With.
func (z *ZerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

func (z *ZerologLogger) emit(e *zerolog.Event, msg string, fields ...any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ===========================================================================
//
//	Default logger management
//
// ===========================================================================

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewConsoleLogger(LevelInfo)
)

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the process-wide default logger.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// CaptureWarnings redirects the pkg/errors warning stream to the default
// logger so warnings appear as structured log records instead of the
// stdlib log fallback.
func CaptureWarnings() {
	tunerrors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn("tuning warning", ErrAttrKey, warning)
	})
}
