package config

// Scenario drives a closed-loop simulation of a controller against a
// synthetic application.
type Scenario struct {
	Windows int   `yaml:"windows"`
	Seed    int64 `yaml:"seed,omitempty"`
	// NoiseStdDev is the relative standard deviation of the measured constraint.
	NoiseStdDev       float64            `yaml:"noise_stddev,omitempty"`
	Phases            []Phase            `yaml:"phases"`
	ConstraintChanges []ConstraintChange `yaml:"constraint_changes,omitempty"`
}

// Phase sets the application workload from StartWindow onwards. The achieved
// constraint in configuration i is Workload * model[i][constraint_measure].
type Phase struct {
	StartWindow int     `yaml:"start_window"`
	Workload    float64 `yaml:"workload"`
}

// ConstraintChange retargets the controller before the given window.
type ConstraintChange struct {
	Window     int     `yaml:"window"`
	Constraint float64 `yaml:"constraint"`
}

// WorkloadAt returns the workload of the phase active at window.
func (s *Scenario) WorkloadAt(window int) float64 {
	w := 0.0
	for _, p := range s.Phases {
		if p.StartWindow > window {
			break
		}
		w = p.Workload
	}
	return w
}
