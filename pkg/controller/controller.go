package controller

import (
	"fmt"
	"math"
)

// Config holds the construction parameters of a Controller.
type Config struct {
	Model *Model
	// Constraint is the target value for the measure at ConstraintIdx.
	Constraint float64
	// ConstraintIdx is the index of the measure to hold at Constraint.
	ConstraintIdx int
	// Period is the number of application iterations per window.
	Period int
	// Optimization selects whether CostFunc is minimized or maximized.
	Optimization Optimization
	CostFunc     CostFunc
	// InitialEntry is the model entry the application runs in before the
	// first schedule is applied.
	InitialEntry int
}

// Controller decides, once per window, which pair of configurations to
// alternate between and for how many iterations.
//
// A Controller is not safe for concurrent use; callers that share one must
// serialize access to it.
type Controller struct {
	settings  *Settings
	kf        *KalmanFilter
	xs        *XupState
	optimizer *Optimizer
	observer  Observer

	oscillationErrorThreshold float64
	// id counts successful ComputeSchedule calls
	id uint64
}

// New validates cfg and creates a Controller. Oscillation detection is off
// until SetOscillationErrorThreshold is called.
func New(cfg Config) (*Controller, error) {
	settings, err := NewSettings(cfg.Model, cfg.Constraint, cfg.ConstraintIdx, cfg.Period, cfg.Optimization, cfg.CostFunc)
	if err != nil {
		return nil, err
	}
	if cfg.InitialEntry < 0 || cfg.InitialEntry >= cfg.Model.NEntries() {
		return nil, fmt.Errorf("%w: initial model entry %d out of range [0, %d)", ErrInvalidParameter, cfg.InitialEntry, cfg.Model.NEntries())
	}
	return &Controller{
		settings:                  settings,
		kf:                        NewKalmanFilter(),
		xs:                        NewXupState(settings.Rate(cfg.InitialEntry)),
		optimizer:                 NewOptimizer(settings),
		oscillationErrorThreshold: math.Inf(1),
	}, nil
}

// ComputeSchedule consumes the measures captured during the last window and
// returns the schedule for the next one. tag is only passed to the observer.
func (c *Controller) ComputeSchedule(tag uint64, measures []float64) (Schedule, error) {
	nMeasures := c.settings.model.NMeasures()
	if len(measures) != nMeasures {
		return Schedule{}, fmt.Errorf("%w: got %d measures, expected %d", ErrMeasureCountMismatch, len(measures), nMeasures)
	}
	constraintAchieved := measures[c.settings.constraintIdx]
	if !(constraintAchieved > 0) {
		return Schedule{}, fmt.Errorf("%w: constraint measure must be > 0, got %g", ErrInvalidMeasurement, constraintAchieved)
	}

	workload := c.kf.EstimateBaseWorkload(c.xs.LastXup(), constraintAchieved)
	errPrior := c.xs.LastError()
	xup := c.xs.CalculateXup(c.settings.constraint, constraintAchieved, workload, c.settings.MaxRate())
	sched := c.optimizer.Search(xup)

	// The first window was only observation, so never flag before the third
	// call, and not before the loop should have settled.
	zone, _ := c.xs.ConfidenceZone(DefaultConfidenceEpsilon)
	settle := uint64(math.Max(1, math.Ceil(zone)))
	if math.Abs(c.xs.LastError()-errPrior) >= c.oscillationErrorThreshold && c.id > settle {
		sched.Oscillating = true
	}

	if c.observer != nil {
		c.observer.ObserveIteration(Iteration{
			ID:                 c.id,
			Tag:                tag,
			ConstraintAchieved: constraintAchieved,
			Workload:           workload,
			Xup:                xup,
			Kalman:             c.kf.State(),
			XupState:           c.xs.State(),
			Schedule:           sched,
		})
	}
	c.id++
	return sched, nil
}

// SetObserver installs o to receive every iteration; nil removes it.
func (c *Controller) SetObserver(o Observer) {
	c.observer = o
}

func (c *Controller) Constraint() float64 {
	return c.settings.Constraint()
}

func (c *Controller) SetConstraint(constraint float64) {
	c.settings.SetConstraint(constraint)
}

// Pole returns the dominant pole of the rate controller.
func (c *Controller) Pole() float64 {
	return c.xs.Pole()
}

// SetPole sets the dominant pole; it must be in [0, 1).
func (c *Controller) SetPole(pole float64) error {
	return c.xs.SetPole(pole)
}

func (c *Controller) Model() *Model {
	return c.settings.Model()
}

// SetModel replaces the model; the number of measures must not change.
func (c *Controller) SetModel(model *Model) error {
	return c.settings.SetModel(model)
}

func (c *Controller) Optimization() Optimization {
	return c.settings.Optimization()
}

func (c *Controller) SetOptimization(o Optimization) error {
	return c.settings.SetOptimization(o)
}

func (c *Controller) CostFunc() CostFunc {
	return c.settings.CostFunc()
}

func (c *Controller) SetCostFunc(fn CostFunc) error {
	return c.settings.SetCostFunc(fn)
}

func (c *Controller) Period() int {
	return c.settings.Period()
}

func (c *Controller) SetPeriod(period int) error {
	return c.settings.SetPeriod(period)
}

// ConstraintIdx returns the index of the constrained measure.
func (c *Controller) ConstraintIdx() int {
	return c.settings.ConstraintIdx()
}

// Rates returns a copy of the normalized rate table.
func (c *Controller) Rates() []float64 {
	return c.settings.Rates()
}

// OscillationErrorThreshold returns the error swing at or above which a
// schedule is flagged as oscillating.
func (c *Controller) OscillationErrorThreshold() float64 {
	return c.oscillationErrorThreshold
}

// SetOscillationErrorThreshold sets the error swing threshold. +Inf disables
// detection.
func (c *Controller) SetOscillationErrorThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 {
		return fmt.Errorf("%w: oscillation error threshold must be >= 0, got %g", ErrInvalidParameter, threshold)
	}
	c.oscillationErrorThreshold = threshold
	return nil
}

// ConfidenceZone returns the settling window count for epsilon.
func (c *Controller) ConfidenceZone(epsilon float64) (float64, error) {
	return c.xs.ConfidenceZone(epsilon)
}

// LastXup returns the rate targeted for the current window.
func (c *Controller) LastXup() float64 {
	return c.xs.LastXup()
}

// Iterations returns the number of successful ComputeSchedule calls.
func (c *Controller) Iterations() uint64 {
	return c.id
}
