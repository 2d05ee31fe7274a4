package controller

import (
	"fmt"
	"math"
)

// machineEpsilon is the float64 spacing at 1.0.
const machineEpsilon = 0x1p-52

// Settings holds the tuning parameters of a controller together with the
// normalized rate table derived from its model.
//
// Every setter validates its argument and leaves Settings unchanged on error.
type Settings struct {
	model         *Model
	constraint    float64
	constraintIdx int
	period        int
	optimization  Optimization
	costFn        CostFunc
	rates         []float64
}

// NewSettings validates the parameters and builds the normalized rate table.
func NewSettings(model *Model, constraint float64, constraintIdx, period int, optimization Optimization, costFn CostFunc) (*Settings, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidModel)
	}
	if constraintIdx < 0 || constraintIdx >= model.NMeasures() {
		return nil, fmt.Errorf("%w: constraint measure index %d out of range [0, %d)", ErrInvalidParameter, constraintIdx, model.NMeasures())
	}
	s := &Settings{
		constraint:    constraint,
		constraintIdx: constraintIdx,
	}
	if err := s.SetPeriod(period); err != nil {
		return nil, err
	}
	if err := s.SetOptimization(optimization); err != nil {
		return nil, err
	}
	if err := s.SetCostFunc(costFn); err != nil {
		return nil, err
	}
	rates, err := normalizedRates(model, constraintIdx)
	if err != nil {
		return nil, err
	}
	s.model = model
	s.rates = rates
	return s, nil
}

// normalizedRates divides the constraint column by its first value.
func normalizedRates(model *Model, idx int) ([]float64, error) {
	base := model.Measure(0, idx)
	if math.Abs(base) < machineEpsilon {
		return nil, fmt.Errorf("%w: base constraint measure %g is too close to zero", ErrInvalidParameter, base)
	}
	rates := make([]float64, model.NEntries())
	rates[0] = 1.0
	for i := 1; i < len(rates); i++ {
		if model.Measure(i, idx) < model.Measure(i-1, idx) {
			return nil, fmt.Errorf("%w: %w at entry %d", ErrInvalidModel, ErrUnsortedModel, i)
		}
		rates[i] = model.Measure(i, idx) / base
	}
	return rates, nil
}

// Model returns the current model.
func (s *Settings) Model() *Model {
	return s.model
}

// SetModel replaces the model and re-derives the rate table. The new model
// must have the same number of measures as the current one.
func (s *Settings) SetModel(model *Model) error {
	if model == nil {
		return fmt.Errorf("%w: model is required", ErrInvalidModel)
	}
	if model.NMeasures() != s.model.NMeasures() {
		return fmt.Errorf("%w: model has %d measures, expected %d", ErrMeasureCountMismatch, model.NMeasures(), s.model.NMeasures())
	}
	rates, err := normalizedRates(model, s.constraintIdx)
	if err != nil {
		return err
	}
	s.model = model
	s.rates = rates
	return nil
}

func (s *Settings) Constraint() float64 {
	return s.constraint
}

func (s *Settings) SetConstraint(constraint float64) {
	s.constraint = constraint
}

// ConstraintIdx returns the index of the measure the constraint applies to.
func (s *Settings) ConstraintIdx() int {
	return s.constraintIdx
}

// Period returns the window length in iterations.
func (s *Settings) Period() int {
	return s.period
}

// SetPeriod sets the window length; it must be positive.
func (s *Settings) SetPeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("%w: period must be > 0, got %d", ErrInvalidParameter, period)
	}
	s.period = period
	return nil
}

func (s *Settings) Optimization() Optimization {
	return s.optimization
}

func (s *Settings) SetOptimization(o Optimization) error {
	if !o.Valid() {
		return fmt.Errorf("%w: unknown optimization %v", ErrInvalidParameter, o)
	}
	s.optimization = o
	return nil
}

func (s *Settings) CostFunc() CostFunc {
	return s.costFn
}

func (s *Settings) SetCostFunc(fn CostFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: cost function is required", ErrInvalidParameter)
	}
	s.costFn = fn
	return nil
}

// Rate returns the normalized rate of configuration entry.
func (s *Settings) Rate(entry int) float64 {
	return s.rates[entry]
}

// Rates returns a copy of the normalized rate table.
func (s *Settings) Rates() []float64 {
	return append([]float64(nil), s.rates...)
}

// MaxRate returns the largest normalized rate, which is the last entry.
func (s *Settings) MaxRate() float64 {
	return s.rates[len(s.rates)-1]
}
