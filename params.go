package tuning

import (
	"fmt"
	"math"
	"sort"

	"github.com/ValentinOzeel/goptuna-tuning/config"
)

// Params is the concrete parameter assignment handed to the objective for
// one trial: every sampled parameter plus every frozen parameter.
//
// Sampled values are float64 (float kinds and suggest_grid), int
// (suggest_int) or string (suggest_categorical). Frozen values keep the
// type they were declared with in the YAML file.
type Params map[string]interface{}

// Float returns the named parameter widened to float64. It reports false
// when the parameter is absent or not numeric.
func (p Params) Float(name string) (float64, bool) {
	return config.ToFloat(p[name])
}

// Int returns the named parameter as an int. It reports false when the
// parameter is absent, not numeric or not integral.
func (p Params) Int(name string) (int, bool) {
	f, ok := config.ToFloat(p[name])
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// String returns the named parameter formatted as a string. It reports
// false when the parameter is absent.
func (p Params) String(name string) (string, bool) {
	v, ok := p[name]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
