package tuning

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/c-bata/goptuna"

	"github.com/ValentinOzeel/goptuna-tuning/config"
	"github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
	"github.com/ValentinOzeel/goptuna-tuning/pkg/log"
)

// trialSuggester is the subset of the goptuna trial surface the dispatch
// uses. It exists so the config-to-suggestion mapping can be tested without
// running a study.
type trialSuggester interface {
	SuggestFloat(name string, low, high float64) (float64, error)
	SuggestLogFloat(name string, low, high float64) (float64, error)
	SuggestDiscreteFloat(name string, low, high, q float64) (float64, error)
	SuggestInt(name string, low, high int) (int, error)
	SuggestStepInt(name string, low, high, step int) (int, error)
	SuggestCategorical(name string, choices []string) (string, error)
}

// The interface must stay a strict subset of the library's trial methods.
var _ trialSuggester = (*goptuna.Trial)(nil)

// runTrial adapts the user objective to the wrapped library: it resolves
// the trial's parameter assignment from the config, times the objective
// call, records secondary metrics as user attributes and converts a pending
// skip into the library's pruned outcome.
func (f *Finetuning) runTrial(ctx context.Context, trial goptuna.Trial) (float64, error) {
	number := int(f.counter.Add(1))
	logger := f.logger.With(log.TrialNumberKey, number)

	trialCtx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancelTrial = cancel
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.cancelTrial = nil
		f.mu.Unlock()
		cancel()
	}()

	// A skip requested between trials applies to this one.
	if f.skip.Swap(false) {
		errors.Warn(errors.NewSkippedTrialWarning(number))
		return 0, goptuna.ErrTrialPruned
	}

	params, err := f.suggestParams(&trial)
	if err != nil {
		return 0, err
	}

	logger.Debug("trial started", log.OperationKey, "run")
	start := time.Now()
	values, objErr := f.objective(trialCtx, params)
	elapsed := time.Since(start)

	if f.skip.Swap(false) {
		errors.Warn(errors.NewSkippedTrialWarning(number))
		logger.Warn("trial skipped",
			log.TrialStateKey, "pruned",
			log.DurationMsKey, elapsed.Milliseconds(),
		)
		return 0, goptuna.ErrTrialPruned
	}
	if objErr != nil {
		logger.Error("trial failed", log.ErrAttrKey, objErr)
		return 0, objErr
	}
	if len(values) != len(f.metrics) {
		return 0, errors.NewValidationError("objective",
			"objective must return one value per metric", len(values))
	}

	// The wrapped library is single-objective; secondary metrics ride
	// along as user attributes keyed by metric name.
	for i, metric := range f.metrics[1:] {
		if err := trial.SetUserAttr(metric, formatValue(values[i+1])); err != nil {
			return 0, errors.Wrapf(err, "tuning: recording metric %q", metric)
		}
	}

	logger.Info("trial finished",
		log.MetricKey, f.metrics[0],
		log.ValueKey, values[0],
		log.DurationMsKey, elapsed.Milliseconds(),
	)
	return values[0], nil
}

// suggestParams resolves every configured parameter through the library's
// suggestion API and merges the frozen parameters on top.
func (f *Finetuning) suggestParams(trial trialSuggester) (Params, error) {
	params := make(Params, len(f.cfg.Params)+len(f.cfg.Frozen))
	for _, spec := range f.cfg.Params {
		value, err := suggestParam(trial, spec)
		if err != nil {
			return nil, err
		}
		params[spec.Name] = value
		f.logger.Debug("suggested value",
			log.ParamNameKey, spec.Name,
			log.SuggestKindKey, string(spec.Kind),
			log.ValueKey, value,
		)
	}
	// Frozen parameters win on name collision, matching the merge order of
	// the config contract.
	for name, value := range f.cfg.Frozen {
		params[name] = value
	}
	return params, nil
}

// suggestParam maps a single config entry to the matching suggestion call.
func suggestParam(trial trialSuggester, spec config.ParamSpec) (interface{}, error) {
	switch spec.Kind {
	case config.KindGrid:
		return suggestGrid(trial, spec)

	case config.KindCategorical:
		choices := stringifyArgs(spec.Args)
		value, err := trial.SuggestCategorical(spec.Name, choices)
		if err != nil {
			return nil, suggestErr(spec, err)
		}
		return value, nil

	case config.KindInt:
		low, high := intBounds(spec)
		switch {
		case spec.Options.Log:
			return suggestLogInt(trial, spec, low, high)
		case spec.Options.Step != 0:
			v, err := trial.SuggestStepInt(spec.Name, low, high, int(spec.Options.Step))
			if err != nil {
				return nil, suggestErr(spec, err)
			}
			return v, nil
		default:
			v, err := trial.SuggestInt(spec.Name, low, high)
			if err != nil {
				return nil, suggestErr(spec, err)
			}
			return v, nil
		}

	case config.KindFloat:
		low, high := floatBounds(spec)
		switch {
		case spec.Options.Log:
			v, err := trial.SuggestLogFloat(spec.Name, low, high)
			if err != nil {
				return nil, suggestErr(spec, err)
			}
			return v, nil
		case spec.Options.Step != 0:
			v, err := trial.SuggestDiscreteFloat(spec.Name, low, high, spec.Options.Step)
			if err != nil {
				return nil, suggestErr(spec, err)
			}
			return v, nil
		default:
			v, err := trial.SuggestFloat(spec.Name, low, high)
			if err != nil {
				return nil, suggestErr(spec, err)
			}
			return v, nil
		}

	case config.KindUniform:
		low, high := floatBounds(spec)
		v, err := trial.SuggestFloat(spec.Name, low, high)
		if err != nil {
			return nil, suggestErr(spec, err)
		}
		return v, nil

	case config.KindLogUniform:
		low, high := floatBounds(spec)
		v, err := trial.SuggestLogFloat(spec.Name, low, high)
		if err != nil {
			return nil, suggestErr(spec, err)
		}
		return v, nil

	case config.KindDiscreteUniform:
		low, high := floatBounds(spec)
		q, _ := config.ToFloat(spec.Args[2])
		v, err := trial.SuggestDiscreteFloat(spec.Name, low, high, q)
		if err != nil {
			return nil, suggestErr(spec, err)
		}
		return v, nil

	default:
		return nil, errors.NewSuggestionError(spec.Name, string(spec.Kind), "unrecognized suggestion kind")
	}
}

// suggestLogInt samples an integer from a log-scaled range. The library has
// no log variant for integers, so the value is sampled log-uniformly as a
// float and rounded to the nearest integer within the bounds.
func suggestLogInt(trial trialSuggester, spec config.ParamSpec, low, high int) (interface{}, error) {
	v, err := trial.SuggestLogFloat(spec.Name, float64(low), float64(high))
	if err != nil {
		return nil, suggestErr(spec, err)
	}
	rounded := int(math.Round(v))
	if rounded < low {
		rounded = low
	}
	if rounded > high {
		rounded = high
	}
	return rounded, nil
}

// suggestGrid restricts a numeric parameter to the enumerated values: the
// values are stringified, sampled categorically and parsed back so the
// result is always a member of the configured list.
func suggestGrid(trial trialSuggester, spec config.ParamSpec) (interface{}, error) {
	choices := make([]string, len(spec.Args))
	for i, arg := range spec.Args {
		v, _ := config.ToFloat(arg)
		choices[i] = formatValue(v)
	}
	picked, err := trial.SuggestCategorical(spec.Name, choices)
	if err != nil {
		return nil, suggestErr(spec, err)
	}
	value, err := strconv.ParseFloat(picked, 64)
	if err != nil {
		return nil, errors.NewSuggestionError(spec.Name, string(spec.Kind),
			"categorical suggestion returned a value outside the grid: "+picked)
	}
	return value, nil
}

// Bound accessors assume config.Load validated arity and types.

func floatBounds(spec config.ParamSpec) (low, high float64) {
	low, _ = config.ToFloat(spec.Args[0])
	high, _ = config.ToFloat(spec.Args[1])
	return low, high
}

func intBounds(spec config.ParamSpec) (low, high int) {
	lo, _ := config.ToFloat(spec.Args[0])
	hi, _ := config.ToFloat(spec.Args[1])
	return int(lo), int(hi)
}

func stringifyArgs(args []interface{}) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if s, ok := a.(string); ok {
			out[i] = s
			continue
		}
		if f, ok := config.ToFloat(a); ok {
			out[i] = formatValue(f)
			continue
		}
		out[i] = fmt.Sprintf("%v", a)
	}
	return out
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func suggestErr(spec config.ParamSpec, err error) error {
	return errors.Wrapf(err, "tuning: parameter %q (%s)", spec.Name, spec.Kind)
}
