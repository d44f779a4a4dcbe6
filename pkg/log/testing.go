// Package log provides testing utilities for structured logging.
//
// This file contains helpers designed for verifying log output in tests
// without interfering with the normal execution flow.
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestLogger is a logger implementation designed for testing.
// It captures all log messages in memory for later inspection.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	fields map[string]interface{}
}

// NewTestLogger creates a new TestLogger with the specified minimum level.
// All log messages are captured in an internal buffer, returned alongside
// the logger for examination.
//
// Example:
//
//	logger, buffer := log.NewTestLogger(log.LevelDebug)
//	logger.Info("trial finished", log.TrialNumberKey, 3)
//	if !strings.Contains(buffer.String(), "trial finished") { ... }
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		buffer: buffer,
		level:  level,
		fields: make(map[string]interface{}),
	}, buffer
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) {
	if t.level <= LevelDebug {
		t.writeLog("DEBUG", msg, fields...)
	}
}

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) {
	if t.level <= LevelInfo {
		t.writeLog("INFO", msg, fields...)
	}
}

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) {
	if t.level <= LevelWarn {
		t.writeLog("WARN", msg, fields...)
	}
}

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) {
	if t.level <= LevelError {
		t.writeLog("ERROR", msg, fields...)
	}
}

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	newFields := make(map[string]interface{})

	for k, v := range t.fields {
		newFields[k] = v
	}

	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		value := fields[i+1]

		// Errors are captured by message so the buffer stays JSON-clean.
		if err, ok := value.(error); ok {
			newFields[key] = err.Error()
		} else {
			newFields[key] = value
		}
	}

	return &TestLogger{
		buffer: t.buffer,
		level:  t.level,
		fields: newFields,
	}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

// writeLog serializes a single record as one JSON line into the buffer.
func (t *TestLogger) writeLog(level, msg string, fields ...any) {
	record := map[string]interface{}{
		"level":   level,
		"message": msg,
	}

	for k, v := range t.fields {
		record[k] = v
	}

	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		value := fields[i+1]
		if err, ok := value.(error); ok {
			record[key] = err.Error()
		} else {
			record[key] = value
		}
	}

	line, err := json.Marshal(record)
	if err != nil {
		fmt.Fprintf(t.buffer, `{"level":%q,"message":%q,"marshal_error":%q}`+"\n", level, msg, err.Error())
		return
	}
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

// Records parses the captured buffer into one map per log line.
// Lines that fail to parse are skipped.
func (t *TestLogger) Records() []map[string]interface{} {
	var records []map[string]interface{}
	for _, line := range strings.Split(t.buffer.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var record map[string]interface{}
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

// Contains reports whether any captured record has the given message.
func (t *TestLogger) Contains(msg string) bool {
	for _, record := range t.Records() {
		if m, ok := record["message"].(string); ok && m == msg {
			return true
		}
	}
	return false
}
