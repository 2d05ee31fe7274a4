package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ControllerFile describes a controller: the configuration model and its tuning.
type ControllerFile struct {
	LogLevel string `yaml:"log_level,omitempty"`
	// Measures optionally names the model columns so they can be referenced by name.
	Measures []string    `yaml:"measures,omitempty"`
	Model    [][]float64 `yaml:"model"`
	// StrictModel rejects models whose constraint column repeats a value.
	StrictModel       bool       `yaml:"strict_model,omitempty"`
	Constraint        float64    `yaml:"constraint"`
	ConstraintMeasure MeasureRef `yaml:"constraint_measure"`
	Period            int        `yaml:"period"`
	Optimization      string     `yaml:"optimization"` // minimize or maximize
	Cost              CostSpec   `yaml:"cost"`
	Pole              *float64   `yaml:"pole,omitempty"`
	// OscillationThreshold enables oscillation detection when set.
	OscillationThreshold *float64 `yaml:"oscillation_threshold,omitempty"`
	InitialEntry         int      `yaml:"initial_entry,omitempty"`
	// LogIterations logs every controller iteration at debug level.
	LogIterations bool `yaml:"log_iterations,omitempty"`
}

// CostSpec selects the cost (or value) function of the interpolated measures.
type CostSpec struct {
	Type        string     `yaml:"type"`                  // measure, ratio or weighted
	Measure     MeasureRef `yaml:"measure,omitempty"`     // measure
	Numerator   MeasureRef `yaml:"numerator,omitempty"`   // ratio
	Denominator MeasureRef `yaml:"denominator,omitempty"` // ratio
	Weights     []float64  `yaml:"weights,omitempty"`     // weighted
}

// MeasureRef refers to a model column by index or by name.
type MeasureRef struct {
	Index int
	Name  string
	set   bool
}

// MeasureIndex returns a reference to column i.
func MeasureIndex(i int) MeasureRef {
	return MeasureRef{Index: i, set: true}
}

// MeasureName returns a reference to the column called name.
func MeasureName(name string) MeasureRef {
	return MeasureRef{Name: name, set: true}
}

// IsSet reports whether the reference was given.
func (r MeasureRef) IsSet() bool {
	return r.set
}

// IsZero lets yaml omit unset references.
func (r MeasureRef) IsZero() bool {
	return !r.set
}

// UnmarshalYAML accepts either an integer index or a column name.
func (r *MeasureRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: measure reference must be an index or a name", node.Line)
	}
	if node.ShortTag() == "!!int" {
		i, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: invalid measure index %q: %w", node.Line, node.Value, err)
		}
		*r = MeasureIndex(i)
		return nil
	}
	*r = MeasureName(node.Value)
	return nil
}

// MarshalYAML writes the reference back as an index or a name.
func (r MeasureRef) MarshalYAML() (any, error) {
	if r.Name != "" {
		return r.Name, nil
	}
	return r.Index, nil
}

// Resolve returns the column index the reference points to.
func (r MeasureRef) Resolve(names []string, nMeasures int) (int, error) {
	if !r.set {
		return 0, fmt.Errorf("measure reference is required")
	}
	if r.Name != "" {
		for i, n := range names {
			if n == r.Name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("unknown measure %q", r.Name)
	}
	if r.Index < 0 || r.Index >= nMeasures {
		return 0, fmt.Errorf("measure index %d out of range [0, %d)", r.Index, nMeasures)
	}
	return r.Index, nil
}

func (r MeasureRef) String() string {
	if r.Name != "" {
		return r.Name
	}
	return strconv.Itoa(r.Index)
}
