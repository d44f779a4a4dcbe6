// Package analysis post-processes a finished study: it selects the
// top-percentile subset of completed trials, tabulates their parameter
// values and computes per-parameter min/max ranges.
//
// The package is independent of the wrapped optimization library; callers
// convert their trial objects into TrialRecord values first.
package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"

	"github.com/ValentinOzeel/goptuna-tuning/config"
	"github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
)

// Column names of the parameter table produced by ParamTable.
const (
	TrialNumberColumn = "trial_number"
	RankColumn        = "rank"
)

// Direction declares whether larger or smaller objective values are better.
type Direction string

// Optimization directions.
const (
	DirectionMinimize Direction = "minimize"
	DirectionMaximize Direction = "maximize"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionMinimize, DirectionMaximize:
		return Direction(s), nil
	default:
		return "", errors.NewValidationError("directions", "must be 'minimize' or 'maximize'", s)
	}
}

// TrialRecord is one finished trial as seen by the analysis step.
type TrialRecord struct {
	// Number is the trial number assigned by the study.
	Number int

	// Values holds the observed metric values, primary metric first.
	// Empty for trials that were skipped.
	Values []float64

	// Params is the full parameter assignment of the trial, frozen
	// parameters included.
	Params map[string]interface{}
}

// Completed reports whether the trial produced objective values.
// Skipped (pruned) and failed trials are not completed.
func (r TrialRecord) Completed() bool {
	return len(r.Values) > 0
}

// TopTrials returns the top percent of completed trials ranked by their
// primary objective value in the direction's "better" order. The subset
// size is floor(completed * percent / 100), clamped to at least one trial.
// All trials skipped is an EmptyStudyError.
func TopTrials(records []TrialRecord, percent float64, direction Direction) ([]TrialRecord, error) {
	if percent <= 0 || percent > 100 {
		return nil, errors.NewValidationError("top_percent_trials", "must be in (0, 100]", percent)
	}

	completed := make([]TrialRecord, 0, len(records))
	for _, r := range records {
		if r.Completed() {
			completed = append(completed, r)
		}
	}
	if len(completed) == 0 {
		return nil, errors.NewEmptyStudyError(len(records), len(records))
	}

	sort.SliceStable(completed, func(i, j int) bool {
		if direction == DirectionMaximize {
			return completed[i].Values[0] > completed[j].Values[0]
		}
		return completed[i].Values[0] < completed[j].Values[0]
	})

	n := int(float64(len(completed)) * percent / 100)
	if n < 1 {
		n = 1
	}
	if n > len(completed) {
		n = len(completed)
	}
	return completed[:n], nil
}

// ParamTable tabulates the parameter values of the given trials as a
// dataframe with one row per trial: the trial number, the 1-based rank
// within the subset, then one column per parameter.
//
// paramOrder sets the column order; parameters missing from it are appended
// in sorted-name order, so passing nil yields fully sorted columns.
func ParamTable(top []TrialRecord, paramOrder []string) dataframe.DataFrame {
	names := columnOrder(top, paramOrder)

	cols := make([]series.Series, 0, len(names)+2)
	numbers := make([]int, len(top))
	ranks := make([]int, len(top))
	for i, r := range top {
		numbers[i] = r.Number
		ranks[i] = i + 1
	}
	cols = append(cols,
		series.New(numbers, series.Int, TrialNumberColumn),
		series.New(ranks, series.Int, RankColumn),
	)

	for _, name := range names {
		if numeric := floatColumn(top, name); numeric != nil {
			cols = append(cols, series.New(numeric, series.Float, name))
			continue
		}
		vals := make([]string, len(top))
		for i, r := range top {
			vals[i] = fmt.Sprintf("%v", r.Params[name])
		}
		cols = append(cols, series.New(vals, series.String, name))
	}

	return dataframe.New(cols...)
}

// columnOrder resolves the parameter column order for ParamTable.
func columnOrder(top []TrialRecord, paramOrder []string) []string {
	present := make(map[string]bool)
	for _, r := range top {
		for name := range r.Params {
			present[name] = true
		}
	}

	names := make([]string, 0, len(present))
	used := make(map[string]bool, len(present))
	for _, name := range paramOrder {
		if present[name] && !used[name] {
			names = append(names, name)
			used[name] = true
		}
	}
	rest := make([]string, 0, len(present))
	for name := range present {
		if !used[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// floatColumn extracts a parameter column as floats, or nil if any trial
// holds a non-numeric value for it.
func floatColumn(top []TrialRecord, name string) []float64 {
	vals := make([]float64, len(top))
	for i, r := range top {
		f, ok := config.ToFloat(r.Params[name])
		if !ok {
			return nil
		}
		vals[i] = f
	}
	return vals
}

// MinMaxTable computes the observed minimum and maximum of every column of
// a parameter table except the trial number. Numeric columns are compared
// numerically, categorical columns lexically.
func MinMaxTable(table dataframe.DataFrame) (dataframe.DataFrame, error) {
	if table.Nrow() == 0 {
		return dataframe.DataFrame{}, errors.NewEmptyStudyError(0, 0)
	}

	records := [][]string{{"parameter", "min", "max"}}
	for _, name := range table.Names() {
		if name == TrialNumberColumn {
			continue
		}
		col := table.Col(name)
		switch col.Type() {
		case series.Float, series.Int:
			vals := col.Float()
			records = append(records, []string{
				name,
				formatFloat(floats.Min(vals)),
				formatFloat(floats.Max(vals)),
			})
		default:
			vals := col.Records()
			sorted := append([]string(nil), vals...)
			sort.Strings(sorted)
			records = append(records, []string{name, sorted[0], sorted[len(sorted)-1]})
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrap(df.Err, "tuning: building min/max table")
	}
	return df, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
