package config

import (
	"fmt"
	"log/slog"

	"github.com/GoSim-25-26J-441/fast-controller/internal/costfn"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
)

// NMeasures returns the width of the model.
func (f *ControllerFile) NMeasures() int {
	if len(f.Model) == 0 {
		return 0
	}
	return len(f.Model[0])
}

// ConstraintIdx resolves the constraint measure to a column index.
func (f *ControllerFile) ConstraintIdx() (int, error) {
	return f.ConstraintMeasure.Resolve(f.Measures, f.NMeasures())
}

// CostFuncSpec resolves the cost description to column indices.
func (f *ControllerFile) CostFuncSpec() (costfn.Spec, error) {
	spec := costfn.Spec{Type: f.Cost.Type, Weights: f.Cost.Weights}
	resolve := func(field string, ref MeasureRef) (int, error) {
		idx, err := ref.Resolve(f.Measures, f.NMeasures())
		if err != nil {
			return 0, fmt.Errorf("%s: %w", field, err)
		}
		return idx, nil
	}

	var err error
	switch costfn.Type(f.Cost.Type) {
	case costfn.TypeMeasure:
		spec.Measure, err = resolve("measure", f.Cost.Measure)
	case costfn.TypeRatio:
		if spec.Numerator, err = resolve("numerator", f.Cost.Numerator); err != nil {
			return spec, err
		}
		spec.Denominator, err = resolve("denominator", f.Cost.Denominator)
	}
	return spec, err
}

// ControllerConfig builds the model and cost function described by f.
func (f *ControllerFile) ControllerConfig() (controller.Config, error) {
	model, err := controller.NewModel(f.Model)
	if err != nil {
		return controller.Config{}, err
	}
	idx, err := f.ConstraintIdx()
	if err != nil {
		return controller.Config{}, fmt.Errorf("%w: constraint_measure: %v", controller.ErrInvalidParameter, err)
	}
	if f.StrictModel && !model.StrictlyIncreasing(idx) {
		return controller.Config{}, fmt.Errorf("%w: %w: strict_model requires column %d to be strictly increasing",
			controller.ErrInvalidModel, controller.ErrUnsortedModel, idx)
	}
	opt, err := controller.ParseOptimization(f.Optimization)
	if err != nil {
		return controller.Config{}, err
	}
	spec, err := f.CostFuncSpec()
	if err != nil {
		return controller.Config{}, fmt.Errorf("%w: cost: %v", controller.ErrInvalidParameter, err)
	}
	fn, err := costfn.New(spec, model.NMeasures())
	if err != nil {
		return controller.Config{}, fmt.Errorf("%w: %v", controller.ErrInvalidParameter, err)
	}
	return controller.Config{
		Model:         model,
		Constraint:    f.Constraint,
		ConstraintIdx: idx,
		Period:        f.Period,
		Optimization:  opt,
		CostFunc:      fn,
		InitialEntry:  f.InitialEntry,
	}, nil
}

// Build creates a controller from f and applies its tuning. When
// LogIterations is set, iterations are logged to log.
func (f *ControllerFile) Build(log *slog.Logger) (*controller.Controller, error) {
	cfg, err := f.ControllerConfig()
	if err != nil {
		return nil, err
	}
	c, err := controller.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := f.Tune(c); err != nil {
		return nil, err
	}
	c.SetObserver(f.IterationObserver(log))
	return c, nil
}

// Tune applies the optional pole and oscillation threshold of f to c.
func (f *ControllerFile) Tune(c *controller.Controller) error {
	if f.Pole != nil {
		if err := c.SetPole(*f.Pole); err != nil {
			return err
		}
	}
	if f.OscillationThreshold != nil {
		if err := c.SetOscillationErrorThreshold(*f.OscillationThreshold); err != nil {
			return err
		}
	}
	return nil
}

// IterationObserver returns a logging observer when LogIterations is set, else nil.
func (f *ControllerFile) IterationObserver(log *slog.Logger) controller.Observer {
	if !f.LogIterations {
		return nil
	}
	return controller.LogObserver(log)
}
