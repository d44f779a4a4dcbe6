package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tunerrors "github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
)

func TestTestLoggerCapture(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Info("optimization begins", TrialsTotalKey, 50)
	logger.Debug("suggested value", ParamNameKey, "lr", ValueKey, 0.01)
	logger.Error("study failed")

	records := logger.Records()
	require.Len(t, records, 3)

	assert.Equal(t, "optimization begins", records[0]["message"])
	assert.Equal(t, float64(50), records[0][TrialsTotalKey])
	assert.Equal(t, "lr", records[1][ParamNameKey])
	assert.Equal(t, "ERROR", records[2]["level"])

	assert.True(t, logger.Contains("study failed"))
	assert.False(t, logger.Contains("never logged"))
	assert.Contains(t, buffer.String(), "optimization begins")
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	logger, _ := NewTestLogger(LevelWarn)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	records := logger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["message"])

	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	scoped := logger.With(StudyNameKey, "quadratic")

	scoped.Info("trial finished", TrialNumberKey, 7)

	got := scoped.(*TestLogger).Records()
	require.Len(t, got, 1)
	assert.Equal(t, "quadratic", got[0][StudyNameKey])
	assert.Equal(t, float64(7), got[0][TrialNumberKey])
}

func TestZerologLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Info("trial finished",
		TrialNumberKey, 3,
		ValueKey, 1.5,
	)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "trial finished", record["message"])
	assert.Equal(t, float64(3), record[TrialNumberKey])
	assert.Equal(t, 1.5, record[ValueKey])
	assert.Equal(t, "info", record["level"])
}

func TestZerologLoggerStructuredWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Warn("tuning warning", ErrAttrKey, tunerrors.NewFrozenOverrideWarning("lr"))

	out := buf.String()
	assert.Contains(t, out, "lr")
	assert.Contains(t, out, "warn")
}

func TestZerologLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelWarn)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	require.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "kept")
}

func TestZerologLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug).With(StudyNameKey, "quadratic")

	logger.Info("optimization begins")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "quadratic", record[StudyNameKey])
}

func TestCaptureWarnings(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	previous := GetLogger()
	SetLogger(logger)
	defer func() {
		SetLogger(previous)
		tunerrors.SetZerologWarnFunc(nil)
	}()

	CaptureWarnings()
	tunerrors.Warn(tunerrors.NewSkippedTrialWarning(2))

	require.True(t, logger.Contains("tuning warning"))
	records := logger.Records()
	assert.Contains(t, records[len(records)-1][ErrAttrKey], "trial 2")
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToLogLevel(tt.in), "ToLogLevel(%q)", tt.in)
	}

	assert.Panics(t, func() { ToLogLevel("verbose") })
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", Level(2).String())
}
