// Package tuning drives hyperparameter optimization trials from a YAML
// search-space configuration.
//
// The package is a convenience layer over github.com/c-bata/goptuna: the
// config file declares which parameters to sample and how, a user objective
// receives the resolved parameter assignment for each trial, and the
// finished study is post-processed into best-trial parameter tables and
// distribution plots. An interrupt (Ctrl+C) during a trial skips that trial
// without aborting the run.
package tuning

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/go-gota/gota/dataframe"

	"github.com/ValentinOzeel/goptuna-tuning/analysis"
	"github.com/ValentinOzeel/goptuna-tuning/config"
	"github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
	"github.com/ValentinOzeel/goptuna-tuning/pkg/log"
)

// Objective is the user callback evaluated once per trial. It receives the
// trial's parameter assignment (sampled parameters plus frozen constants)
// and returns one value per configured metric, primary metric first.
//
// The context is canceled when the trial is skipped; long-running
// objectives should watch it to abandon work early.
type Objective func(ctx context.Context, params Params) ([]float64, error)

// Result bundles everything a finished run produces.
type Result struct {
	// Trials is the full trial list of the study, skipped trials included.
	Trials []goptuna.FrozenTrial

	// BestTrials holds the completed trials attaining the best primary
	// metric value (more than one on ties).
	BestTrials []goptuna.FrozenTrial

	// TopTrials tabulates the parameters of the top-percentile subset of
	// completed trials, one row per trial with its number and rank.
	TopTrials dataframe.DataFrame

	// ParamRanges is the per-parameter min/max table over TopTrials.
	ParamRanges dataframe.DataFrame

	// Distributions is the tiled per-parameter distribution plot over
	// TopTrials.
	Distributions *analysis.DistributionPlot
}

// Finetuning runs a config-driven optimization study.
// Construct it with New and execute it with Run.
type Finetuning struct {
	objective  Objective
	cfg        *config.Config
	metrics    []string
	directions []analysis.Direction
	nTrials    int
	topPercent float64

	studyName     string
	sampler       goptuna.Sampler
	logger        log.Logger
	verbosity     int
	handleSignals bool
	plotPath      string

	counter     atomic.Int64
	skip        atomic.Bool
	mu          sync.Mutex
	cancelTrial context.CancelFunc
}

// Option customizes a Finetuning beyond the required constructor arguments.
type Option func(*Finetuning)

// WithTopPercent sets the percentile threshold (0, 100] used to select the
// best-trial subset for analysis. Default 20.
func WithTopPercent(percent float64) Option {
	return func(f *Finetuning) { f.topPercent = percent }
}

// WithStudyName names the underlying study. Default "config-tuning".
func WithStudyName(name string) Option {
	return func(f *Finetuning) { f.studyName = name }
}

// WithSampler replaces the default TPE sampler.
func WithSampler(sampler goptuna.Sampler) Option {
	return func(f *Finetuning) { f.sampler = sampler }
}

// WithLogger replaces the default logger.
func WithLogger(logger log.Logger) Option {
	return func(f *Finetuning) { f.logger = logger }
}

// WithVerbosity controls post-run trial reporting: 0 none, 1 best trials,
// 2 all trials. Default 2.
func WithVerbosity(v int) Option {
	return func(f *Finetuning) { f.verbosity = v }
}

// WithSignalHandling enables or disables the SIGINT-to-skip handler.
// Enabled by default; disable it when embedding the runner in a program
// with its own signal handling and call SkipCurrentTrial directly.
func WithSignalHandling(enabled bool) Option {
	return func(f *Finetuning) { f.handleSignals = enabled }
}

// WithPlotPath writes the distribution plot grid to the given PNG file
// after the run. Empty (the default) keeps the plot in memory only.
func WithPlotPath(path string) Option {
	return func(f *Finetuning) { f.plotPath = path }
}

// New validates the inputs, loads the config file and returns a runner.
//
// metrics and directions must have equal, non-zero length; the first pair
// drives the search. nTrials must be positive. Config problems (missing
// OPTUNA_PARAMS, unrecognized suggestion kind, malformed entries) are
// reported here, before any trial runs.
func New(objective Objective, configPath string, metrics, directions []string, nTrials int, opts ...Option) (*Finetuning, error) {
	if objective == nil {
		return nil, errors.ErrNilObjective
	}
	if len(metrics) == 0 {
		return nil, errors.ErrEmptyMetrics
	}
	if len(metrics) != len(directions) {
		return nil, errors.NewValidationError("directions",
			fmt.Sprintf("the length of metrics_to_optimize (%d) and directions (%d) should be equal", len(metrics), len(directions)),
			directions)
	}
	if nTrials <= 0 {
		return nil, errors.NewValidationError("n_trials", "must be positive", nTrials)
	}

	parsed := make([]analysis.Direction, len(directions))
	for i, d := range directions {
		dir, err := analysis.ParseDirection(d)
		if err != nil {
			return nil, err
		}
		parsed[i] = dir
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	f := &Finetuning{
		objective:     objective,
		cfg:           cfg,
		metrics:       metrics,
		directions:    parsed,
		nTrials:       nTrials,
		topPercent:    20,
		studyName:     "config-tuning",
		sampler:       tpe.NewSampler(),
		logger:        log.GetLogger(),
		verbosity:     2,
		handleSignals: true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.topPercent <= 0 || f.topPercent > 100 {
		return nil, errors.NewValidationError("top_percent_trials", "must be in (0, 100]", f.topPercent)
	}
	if f.logger == nil {
		f.logger = log.GetLogger()
	}
	log.CaptureWarnings()
	return f, nil
}

// SkipCurrentTrial requests that the in-flight trial be abandoned. The
// trial is recorded as pruned and the study moves on to the next one; the
// overall run keeps going. Safe to call from any goroutine, including when
// no trial is running (the next trial is skipped then).
func (f *Finetuning) SkipCurrentTrial() {
	f.skip.Store(true)
	f.mu.Lock()
	cancel := f.cancelTrial
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run executes the full study and post-processes the trial set.
//
// The returned Result carries the full trial list, the best trials, the
// top-percentile parameter table, the per-parameter min/max ranges and the
// distribution plot. Run returns an EmptyStudyError when every trial was
// skipped.
func (f *Finetuning) Run(ctx context.Context) (*Result, error) {
	study, err := goptuna.CreateStudy(
		f.studyName,
		goptuna.StudyOptionSampler(f.sampler),
		goptuna.StudyOptionDirection(f.studyDirection()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "tuning: creating study")
	}
	study.WithContext(ctx)

	if f.handleSignals {
		stop := f.watchInterrupts()
		defer stop()
	}

	f.logger.Info("optimization begins",
		log.StudyNameKey, f.studyName,
		log.ConfigPathKey, f.cfg.Path,
		log.MetricKey, f.metrics[0],
		log.DirectionKey, string(f.directions[0]),
		log.TrialsTotalKey, f.nTrials,
	)

	start := time.Now()
	if err := study.Optimize(func(trial goptuna.Trial) (float64, error) {
		return f.runTrial(ctx, trial)
	}, f.nTrials); err != nil {
		return nil, errors.Wrap(err, "tuning: study failed")
	}
	f.counter.Store(0)

	trials, err := study.GetTrials()
	if err != nil {
		return nil, errors.Wrap(err, "tuning: collecting trials")
	}

	records := f.toRecords(trials)
	pruned := 0
	for _, r := range records {
		if !r.Completed() {
			pruned++
		}
	}
	f.logger.Info("optimization finished",
		log.StudyNameKey, f.studyName,
		log.TrialsTotalKey, len(trials),
		log.TrialsPrunedKey, pruned,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	best := f.bestTrials(trials)
	if f.verbosity >= 2 {
		f.reportTrials("trial result", trials)
	}
	if f.verbosity >= 1 {
		f.reportTrials("best trial", best)
	}

	top, err := analysis.TopTrials(records, f.topPercent, f.directions[0])
	if err != nil {
		return nil, err
	}
	table := analysis.ParamTable(top, f.paramOrder())
	ranges, err := analysis.MinMaxTable(table)
	if err != nil {
		return nil, err
	}
	distributions, err := analysis.PlotDistributions(table)
	if err != nil {
		return nil, err
	}
	if f.plotPath != "" {
		if err := distributions.WritePNG(f.plotPath); err != nil {
			return nil, err
		}
		f.logger.Info("distribution plot written",
			log.OperationKey, "plot",
			log.TopPercentKey, f.topPercent,
			"path", f.plotPath,
		)
	}

	return &Result{
		Trials:        trials,
		BestTrials:    best,
		TopTrials:     table,
		ParamRanges:   ranges,
		Distributions: distributions,
	}, nil
}

// watchInterrupts converts SIGINT into a skip of the in-flight trial.
// The returned function tears the handler down.
func (f *Finetuning) watchInterrupts() func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigCh:
				f.logger.Warn("interrupt received, skipping current trial")
				f.SkipCurrentTrial()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func (f *Finetuning) studyDirection() goptuna.StudyDirection {
	if f.directions[0] == analysis.DirectionMaximize {
		return goptuna.StudyDirectionMaximize
	}
	return goptuna.StudyDirectionMinimize
}

// paramOrder is the column order for the parameter table: sampled
// parameters in config order, then frozen parameters sorted by name.
func (f *Finetuning) paramOrder() []string {
	order := make([]string, 0, len(f.cfg.Params)+len(f.cfg.Frozen))
	for _, spec := range f.cfg.Params {
		order = append(order, spec.Name)
	}
	frozen := Params(f.cfg.Frozen).Names()
	return append(order, frozen...)
}

// toRecords converts the library's trial objects into analysis records:
// frozen parameters are merged in, grid parameters are parsed back to
// numbers, and secondary metric values are recovered from user attributes.
func (f *Finetuning) toRecords(trials []goptuna.FrozenTrial) []analysis.TrialRecord {
	grid := make(map[string]bool)
	for _, spec := range f.cfg.Params {
		if spec.Kind == config.KindGrid {
			grid[spec.Name] = true
		}
	}

	records := make([]analysis.TrialRecord, 0, len(trials))
	for _, t := range trials {
		rec := analysis.TrialRecord{
			Number: t.Number,
			Params: make(map[string]interface{}, len(t.Params)+len(f.cfg.Frozen)),
		}
		for name, value := range t.Params {
			if grid[name] {
				if s, ok := value.(string); ok {
					if parsed, err := strconv.ParseFloat(s, 64); err == nil {
						rec.Params[name] = parsed
						continue
					}
				}
			}
			rec.Params[name] = value
		}
		for name, value := range f.cfg.Frozen {
			rec.Params[name] = value
		}

		if t.State == goptuna.TrialStateComplete {
			values := make([]float64, 0, len(f.metrics))
			values = append(values, t.Value)
			for _, metric := range f.metrics[1:] {
				if s, ok := t.UserAttrs[metric]; ok {
					if v, err := strconv.ParseFloat(s, 64); err == nil {
						values = append(values, v)
					}
				}
			}
			rec.Values = values
		}
		records = append(records, rec)
	}
	return records
}

// bestTrials returns the completed trials attaining the optimum primary
// metric value, ties included, in trial order.
func (f *Finetuning) bestTrials(trials []goptuna.FrozenTrial) []goptuna.FrozenTrial {
	maximize := f.directions[0] == analysis.DirectionMaximize

	var best []goptuna.FrozenTrial
	for _, t := range trials {
		if t.State != goptuna.TrialStateComplete {
			continue
		}
		if len(best) == 0 {
			best = append(best, t)
			continue
		}
		current := best[0].Value
		switch {
		case t.Value == current:
			best = append(best, t)
		case maximize && t.Value > current, !maximize && t.Value < current:
			best = []goptuna.FrozenTrial{t}
		}
	}
	return best
}

// reportTrials logs one summary record per trial.
func (f *Finetuning) reportTrials(msg string, trials []goptuna.FrozenTrial) {
	for _, t := range trials {
		f.logger.Info(msg,
			log.TrialNumberKey, t.Number,
			log.TrialStateKey, stateName(t.State),
			log.ValueKey, t.Value,
			"params", fmt.Sprintf("%v", t.Params),
		)
	}
}

func stateName(s goptuna.TrialState) string {
	switch s {
	case goptuna.TrialStateComplete:
		return "complete"
	case goptuna.TrialStatePruned:
		return "pruned"
	case goptuna.TrialStateFail:
		return "fail"
	case goptuna.TrialStateRunning:
		return "running"
	default:
		return "unknown"
	}
}
