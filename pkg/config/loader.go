package config

import (
	"fmt"
	"math"
	"os"

	"github.com/GoSim-25-26J-441/fast-controller/internal/costfn"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
)

// LoadControllerFile loads and parses a controller file
func LoadControllerFile(path string) (*ControllerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read controller file %s: %w", path, err)
	}
	f, err := ParseControllerYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse controller file %s: %w", path, err)
	}
	return f, nil
}

// LoadScenario loads and parses a scenario file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	scenario, err := ParseScenarioYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	return scenario, nil
}

// validateControllerFile checks everything that can be checked without
// building the model; the controller package validates the rest.
func validateControllerFile(f *ControllerFile) error {
	if f.LogLevel != "" && !logger.ValidLevel(f.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", f.LogLevel)
	}

	if len(f.Model) == 0 {
		return fmt.Errorf("model must have at least one entry")
	}
	nMeasures := len(f.Model[0])
	if nMeasures == 0 {
		return fmt.Errorf("model entries must have at least one measure")
	}
	for i, row := range f.Model {
		if len(row) != nMeasures {
			return fmt.Errorf("model entry %d has %d measures, expected %d", i, len(row), nMeasures)
		}
	}

	if len(f.Measures) > 0 {
		if len(f.Measures) != nMeasures {
			return fmt.Errorf("measures names %d columns, model has %d", len(f.Measures), nMeasures)
		}
		seen := make(map[string]bool)
		for _, name := range f.Measures {
			if name == "" {
				return fmt.Errorf("measure name cannot be empty")
			}
			if seen[name] {
				return fmt.Errorf("duplicate measure name: %s", name)
			}
			seen[name] = true
		}
	}

	if _, err := f.ConstraintMeasure.Resolve(f.Measures, nMeasures); err != nil {
		return fmt.Errorf("constraint_measure: %w", err)
	}
	if f.Period <= 0 {
		return fmt.Errorf("period must be positive")
	}
	if _, err := controller.ParseOptimization(f.Optimization); err != nil {
		return fmt.Errorf("optimization: %w", err)
	}
	if f.InitialEntry < 0 || f.InitialEntry >= len(f.Model) {
		return fmt.Errorf("initial_entry %d out of range [0, %d)", f.InitialEntry, len(f.Model))
	}
	if f.Pole != nil && !(*f.Pole >= 0 && *f.Pole < 1) {
		return fmt.Errorf("pole must be in [0, 1), got %g", *f.Pole)
	}
	if f.OscillationThreshold != nil && (math.IsNaN(*f.OscillationThreshold) || *f.OscillationThreshold < 0) {
		return fmt.Errorf("oscillation_threshold cannot be negative")
	}

	spec, err := f.CostFuncSpec()
	if err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	if _, err := costfn.New(spec, nMeasures); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	return nil
}

// validateScenario validates a simulation scenario
func validateScenario(s *Scenario) error {
	if s.Windows <= 0 {
		return fmt.Errorf("windows must be positive")
	}
	if s.NoiseStdDev < 0 {
		return fmt.Errorf("noise_stddev cannot be negative")
	}

	if len(s.Phases) == 0 {
		return fmt.Errorf("at least one phase must be defined")
	}
	if s.Phases[0].StartWindow != 0 {
		return fmt.Errorf("first phase must start at window 0")
	}
	for i, p := range s.Phases {
		if p.Workload <= 0 {
			return fmt.Errorf("phase %d: workload must be positive", i)
		}
		if i > 0 && p.StartWindow <= s.Phases[i-1].StartWindow {
			return fmt.Errorf("phase %d: start_window must be after the previous phase", i)
		}
	}

	for i, c := range s.ConstraintChanges {
		if c.Window < 0 || c.Window >= s.Windows {
			return fmt.Errorf("constraint change %d: window %d out of range [0, %d)", i, c.Window, s.Windows)
		}
	}
	return nil
}
