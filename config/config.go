// Package config loads and validates the YAML search-space configuration.
//
// A config file declares the search space under two top-level keys:
//
//	OPTUNA_PARAMS:
//	  - [float_number, suggest_float, [0.001, 0.1], {log: true}]
//	  - [int_number, suggest_int, [1, 10], {}]
//	  - [optimizer, suggest_categorical, [adam, sgd, rmsprop], {}]
//	  - [int_number_grid, suggest_grid, [2, 4, 8], {}]
//	OPTUNA_FROZEN_PARAMS:
//	  frozen_number: 5
//
// Each OPTUNA_PARAMS entry is a 4-tuple of parameter name, suggestion kind,
// positional arguments and keyword options. OPTUNA_FROZEN_PARAMS maps
// constant names to values that are merged into every trial unchanged.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ValentinOzeel/goptuna-tuning/pkg/errors"
)

// Top-level keys required in the config file.
const (
	ParamsKey       = "OPTUNA_PARAMS"
	FrozenParamsKey = "OPTUNA_FROZEN_PARAMS"
)

// Kind names a suggestion strategy for one parameter.
type Kind string

// Supported suggestion kinds. Apart from KindGrid these mirror the
// suggestion API of the wrapped optimization library.
const (
	// KindFloat samples a float from [low, high]. Options: log, step.
	KindFloat Kind = "suggest_float"

	// KindUniform samples a float uniformly from [low, high].
	KindUniform Kind = "suggest_uniform"

	// KindLogUniform samples a float log-uniformly from [low, high].
	KindLogUniform Kind = "suggest_loguniform"

	// KindDiscreteUniform samples a float from [low, high] discretized by
	// the step q given as the third positional argument.
	KindDiscreteUniform Kind = "suggest_discrete_uniform"

	// KindInt samples an integer from [low, high]. Options: log, step.
	KindInt Kind = "suggest_int"

	// KindCategorical samples one of the enumerated choices. The
	// positional arguments are the choices themselves.
	KindCategorical Kind = "suggest_categorical"

	// KindGrid restricts a numeric parameter to a fixed, explicitly
	// enumerated set of values. Implemented over categorical suggestion
	// with a numeric round-trip.
	KindGrid Kind = "suggest_grid"
)

var knownKinds = map[Kind]bool{
	KindFloat:           true,
	KindUniform:         true,
	KindLogUniform:      true,
	KindDiscreteUniform: true,
	KindInt:             true,
	KindCategorical:     true,
	KindGrid:            true,
}

// Options holds the keyword options of a parameter entry.
type Options struct {
	// Log enables log-domain sampling for suggest_float / suggest_int.
	Log bool

	// Step discretizes the range for suggest_float / suggest_int.
	// Zero means unset.
	Step float64
}

// UnmarshalYAML decodes the options mapping and rejects unknown keys.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("options must be a mapping, got %s", yamlKindName(value.Kind))
	}
	var m map[string]interface{}
	if err := value.Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		switch k {
		case "log":
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("option 'log' must be a bool, got %T", v)
			}
			o.Log = b
		case "step":
			f, ok := ToFloat(v)
			if !ok {
				return fmt.Errorf("option 'step' must be numeric, got %T", v)
			}
			o.Step = f
		default:
			return fmt.Errorf("unknown option %q", k)
		}
	}
	return nil
}

// ParamSpec is one entry of OPTUNA_PARAMS: a parameter name, the suggestion
// kind and the kind's positional arguments and keyword options.
type ParamSpec struct {
	Name    string
	Kind    Kind
	Args    []interface{}
	Options Options
}

// UnmarshalYAML decodes the 4-tuple form
// [name, kind, [args...], {options...}].
func (p *ParamSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("parameter entry must be a sequence, got %s", yamlKindName(value.Kind))
	}
	if len(value.Content) != 4 {
		return fmt.Errorf("parameter entry must have exactly 4 elements (name, kind, args, options), got %d", len(value.Content))
	}
	if err := value.Content[0].Decode(&p.Name); err != nil {
		return fmt.Errorf("parameter name: %v", err)
	}
	var kind string
	if err := value.Content[1].Decode(&kind); err != nil {
		return fmt.Errorf("parameter %q: suggestion kind: %v", p.Name, err)
	}
	p.Kind = Kind(kind)
	if value.Content[2].Kind != yaml.SequenceNode {
		return fmt.Errorf("parameter %q: positional arguments must be a sequence", p.Name)
	}
	if err := value.Content[2].Decode(&p.Args); err != nil {
		return fmt.Errorf("parameter %q: positional arguments: %v", p.Name, err)
	}
	if err := value.Content[3].Decode(&p.Options); err != nil {
		return fmt.Errorf("parameter %q: %v", p.Name, err)
	}
	return nil
}

// Config is the validated search-space configuration.
type Config struct {
	// Path is the file the config was loaded from.
	Path string

	// Params are the sampled parameters, in file order.
	Params []ParamSpec

	// Frozen maps constant names to values merged into every trial.
	Frozen map[string]interface{}
}

// Load reads, parses and validates the YAML config at path.
// A missing OPTUNA_PARAMS key is an error; a missing OPTUNA_FROZEN_PARAMS
// key only raises a warning through the pkg/errors warning handler.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "tuning: reading config %q", path)
	}

	var raw struct {
		Params []ParamSpec            `yaml:"OPTUNA_PARAMS"`
		Frozen map[string]interface{} `yaml:"OPTUNA_FROZEN_PARAMS"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewConfigError(path, "", err.Error())
	}

	cfg := &Config{Path: path, Params: raw.Params, Frozen: raw.Frozen}
	if len(cfg.Params) == 0 {
		return nil, errors.NewConfigError(path, ParamsKey, "missing or empty required key")
	}
	if cfg.Frozen == nil {
		errors.Warn(errors.NewMissingFrozenParamsWarning(path))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Params))
	for _, spec := range c.Params {
		if spec.Name == "" {
			return errors.NewConfigError(c.Path, ParamsKey, "parameter name must not be empty")
		}
		if seen[spec.Name] {
			return errors.NewConfigError(c.Path, ParamsKey, fmt.Sprintf("duplicate parameter name %q", spec.Name))
		}
		seen[spec.Name] = true

		if !knownKinds[spec.Kind] {
			return errors.NewSuggestionError(spec.Name, string(spec.Kind), "unrecognized suggestion kind")
		}
		if err := validateSpec(spec); err != nil {
			return err
		}
	}
	for name := range c.Frozen {
		if seen[name] {
			errors.Warn(errors.NewFrozenOverrideWarning(name))
		}
	}
	return nil
}

func validateSpec(spec ParamSpec) error {
	fail := func(reason string) error {
		return errors.NewSuggestionError(spec.Name, string(spec.Kind), reason)
	}

	switch spec.Kind {
	case KindCategorical:
		if len(spec.Args) == 0 {
			return fail("choices must not be empty")
		}
		return nil

	case KindGrid:
		if len(spec.Args) == 0 {
			return fail("grid values must not be empty")
		}
		for _, v := range spec.Args {
			if _, ok := ToFloat(v); !ok {
				return fail(fmt.Sprintf("grid values must be numeric, got %T", v))
			}
		}
		return nil

	case KindDiscreteUniform:
		if _, _, err := bounds(spec, 3); err != nil {
			return err
		}
		if q, ok := ToFloat(spec.Args[2]); !ok || q <= 0 {
			return fail("third argument q must be a positive number")
		}
		return nil

	case KindInt:
		low, high, err := bounds(spec, 2)
		if err != nil {
			return err
		}
		if low != math.Trunc(low) || high != math.Trunc(high) {
			return fail("bounds must be integers")
		}
		if spec.Options.Step != 0 && spec.Options.Step != math.Trunc(spec.Options.Step) {
			return fail("option 'step' must be an integer")
		}
		return validateRangeOptions(spec, low)

	default: // float kinds
		low, _, err := bounds(spec, 2)
		if err != nil {
			return err
		}
		if spec.Kind == KindLogUniform && low <= 0 {
			return fail("log-domain sampling requires a positive lower bound")
		}
		return validateRangeOptions(spec, low)
	}
}

// bounds checks arity, numeric types and ordering of the low/high pair.
func bounds(spec ParamSpec, arity int) (low, high float64, err error) {
	if len(spec.Args) != arity {
		return 0, 0, errors.NewSuggestionError(spec.Name, string(spec.Kind),
			fmt.Sprintf("expected %d positional arguments, got %d", arity, len(spec.Args)))
	}
	var ok bool
	if low, ok = ToFloat(spec.Args[0]); !ok {
		return 0, 0, errors.NewSuggestionError(spec.Name, string(spec.Kind),
			fmt.Sprintf("lower bound must be numeric, got %T", spec.Args[0]))
	}
	if high, ok = ToFloat(spec.Args[1]); !ok {
		return 0, 0, errors.NewSuggestionError(spec.Name, string(spec.Kind),
			fmt.Sprintf("upper bound must be numeric, got %T", spec.Args[1]))
	}
	if low > high {
		return 0, 0, errors.NewSuggestionError(spec.Name, string(spec.Kind),
			fmt.Sprintf("lower bound %v exceeds upper bound %v", low, high))
	}
	return low, high, nil
}

func validateRangeOptions(spec ParamSpec, low float64) error {
	fail := func(reason string) error {
		return errors.NewSuggestionError(spec.Name, string(spec.Kind), reason)
	}
	if spec.Options.Step < 0 {
		return fail("option 'step' must be positive")
	}
	if spec.Options.Log {
		if spec.Options.Step != 0 {
			return fail("options 'log' and 'step' are mutually exclusive")
		}
		if low <= 0 {
			return fail("log-domain sampling requires a positive lower bound")
		}
	}
	return nil
}

// ToFloat widens any YAML numeric scalar to float64. It reports false for
// non-numeric values.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func yamlKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
