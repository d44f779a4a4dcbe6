package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("conf.yml", "OPTUNA_PARAMS", "missing required key")
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, As(err, &cfgErr))
	assert.Equal(t, "conf.yml", cfgErr.Path)
	assert.Equal(t, "OPTUNA_PARAMS", cfgErr.Key)
	assert.Contains(t, err.Error(), "conf.yml")
	assert.Contains(t, err.Error(), "OPTUNA_PARAMS")
	assert.Contains(t, err.Error(), "missing required key")
}

func TestConfigErrorWithoutKey(t *testing.T) {
	err := NewConfigError("conf.yml", "", "not a mapping")
	assert.NotContains(t, err.Error(), `key ""`)
	assert.Contains(t, err.Error(), "not a mapping")
}

func TestSuggestionError(t *testing.T) {
	err := NewSuggestionError("learning_rate", "suggest_float", "expects 2 positional args")
	require.Error(t, err)

	var sugErr *SuggestionError
	require.True(t, As(err, &sugErr))
	assert.Equal(t, "learning_rate", sugErr.Param)
	assert.Equal(t, "suggest_float", sugErr.Kind)
	assert.Contains(t, err.Error(), "learning_rate")
	assert.Contains(t, err.Error(), "suggest_float")
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("n_trials", "must be positive", -3)
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "n_trials", valErr.ParamName)
	assert.Equal(t, -3, valErr.Value)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestEmptyStudyError(t *testing.T) {
	err := NewEmptyStudyError(12, 12)
	require.Error(t, err)

	var emptyErr *EmptyStudyError
	require.True(t, As(err, &emptyErr))
	assert.Equal(t, 12, emptyErr.Total)
	assert.Equal(t, 12, emptyErr.Pruned)
	assert.Contains(t, err.Error(), "no completed trials")
}

func TestWrapPreservesType(t *testing.T) {
	err := Wrap(NewEmptyStudyError(2, 2), "analyzing study")
	var emptyErr *EmptyStudyError
	assert.True(t, As(err, &emptyErr))
	assert.Contains(t, err.Error(), "analyzing study")
}

func TestSentinelErrors(t *testing.T) {
	assert.True(t, Is(Wrap(ErrNilObjective, "creating run"), ErrNilObjective))
	assert.True(t, Is(Wrap(ErrEmptyMetrics, "creating run"), ErrEmptyMetrics))
}

func TestWarningHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) { captured = append(captured, w) })
	SetZerologWarnFunc(nil)
	defer SetWarningHandler(func(w error) {})

	Warn(NewFrozenOverrideWarning("learning_rate"))
	Warn(NewSkippedTrialWarning(4))
	Warn(NewMissingFrozenParamsWarning("conf.yml"))

	require.Len(t, captured, 3)

	var override *FrozenOverrideWarning
	require.True(t, As(captured[0], &override))
	assert.Equal(t, "learning_rate", override.Param)

	var skipped *SkippedTrialWarning
	require.True(t, As(captured[1], &skipped))
	assert.Equal(t, 4, skipped.TrialNumber)

	var missing *MissingFrozenParamsWarning
	require.True(t, As(captured[2], &missing))
	assert.Equal(t, "conf.yml", missing.Path)
	assert.Contains(t, captured[2].Error(), "OPTUNA_FROZEN_PARAMS")
}

func TestZerologWarnFuncTakesPriority(t *testing.T) {
	var viaHandler, viaZerolog int
	SetWarningHandler(func(error) { viaHandler++ })
	SetZerologWarnFunc(func(error) { viaZerolog++ })
	defer func() {
		SetWarningHandler(func(error) {})
		SetZerologWarnFunc(nil)
	}()

	Warn(NewSkippedTrialWarning(1))

	assert.Equal(t, 0, viaHandler)
	assert.Equal(t, 1, viaZerolog)
}
