// Package log defines standard attribute keys for hyperparameter tuning
// operations.
//
// Using these standard keys enables consistent log analysis and filtering
// across the study lifecycle. The keys follow a hierarchical naming
// convention (e.g., "trial.number", "metric.name").
package log

// Study and Operation Context
// These attributes identify the study and the operation being performed.
const (
	// StudyNameKey identifies the study driving the trials.
	StudyNameKey = "study.name"

	// OperationKey specifies the tuning operation being performed.
	// Standard values: "run", "suggest", "analyze", "plot"
	OperationKey = "tuning.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "tuning", "config", "analysis"
	ComponentKey = "tuning.component"

	// ConfigPathKey records the path of the search-space config file.
	ConfigPathKey = "config.path"
)

// Trial Context
// These attributes describe a single trial.
const (
	// TrialNumberKey records the running trial number (1-based).
	TrialNumberKey = "trial.number"

	// TrialStateKey records the terminal state of a trial.
	// Examples: "complete", "pruned", "fail"
	TrialStateKey = "trial.state"

	// TrialsTotalKey records the total number of trials in a study.
	TrialsTotalKey = "study.trials_total"

	// TrialsPrunedKey records how many trials were skipped.
	TrialsPrunedKey = "study.trials_pruned"
)

// Parameter and Metric Context
const (
	// ParamNameKey identifies a search-space parameter.
	ParamNameKey = "param.name"

	// SuggestKindKey records the suggestion kind used for a parameter.
	// Examples: "suggest_float", "suggest_int", "suggest_grid"
	SuggestKindKey = "param.suggest_kind"

	// MetricKey identifies the metric being optimized.
	MetricKey = "metric.name"

	// DirectionKey records the optimization direction for a metric.
	// Values: "minimize", "maximize"
	DirectionKey = "metric.direction"

	// ValueKey records an objective value observed for a trial.
	ValueKey = "metric.value"
)

// Performance and Analysis Context
const (
	// DurationMsKey records the execution time of an operation in
	// milliseconds. Used for per-trial timing.
	DurationMsKey = "perf.duration_ms"

	// TopPercentKey records the percentile threshold used to select the
	// best-trial subset for analysis.
	TopPercentKey = "analysis.top_percent"
)
