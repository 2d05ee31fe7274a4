// Package costfn builds controller cost/value functions from a declarative
// description so that controllers can be configured from files and requests.
package costfn

import (
	"fmt"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"gonum.org/v1/gonum/floats"
)

// Type names a cost function
type Type string

const (
	// TypeMeasure uses one interpolated measure as the cost
	TypeMeasure Type = "measure"
	// TypeRatio divides one measure by another (e.g. energy per unit of work)
	TypeRatio Type = "ratio"
	// TypeWeighted is the dot product of the measures with a weight vector
	TypeWeighted Type = "weighted"
)

// Spec describes a cost function over resolved measure indices.
type Spec struct {
	Type        string
	Measure     int
	Numerator   int
	Denominator int
	Weights     []float64
}

// New returns the cost function described by spec for vectors of nMeasures.
func New(spec Spec, nMeasures int) (controller.CostFunc, error) {
	switch Type(spec.Type) {
	case TypeMeasure:
		if err := checkIndex("measure", spec.Measure, nMeasures); err != nil {
			return nil, err
		}
		idx := spec.Measure
		return func(m []float64) float64 {
			return m[idx]
		}, nil
	case TypeRatio:
		if err := checkIndex("numerator", spec.Numerator, nMeasures); err != nil {
			return nil, err
		}
		if err := checkIndex("denominator", spec.Denominator, nMeasures); err != nil {
			return nil, err
		}
		num, den := spec.Numerator, spec.Denominator
		return func(m []float64) float64 {
			return m[num] / m[den]
		}, nil
	case TypeWeighted:
		if len(spec.Weights) != nMeasures {
			return nil, &InvalidSpecError{Reason: fmt.Sprintf("weighted cost needs %d weights, got %d", nMeasures, len(spec.Weights))}
		}
		weights := append([]float64(nil), spec.Weights...)
		return func(m []float64) float64 {
			return floats.Dot(weights, m)
		}, nil
	default:
		return nil, &UnknownCostError{Type: spec.Type}
	}
}

// Describe returns a short human-readable form of spec for logs.
func Describe(spec Spec) string {
	switch Type(spec.Type) {
	case TypeMeasure:
		return fmt.Sprintf("m[%d]", spec.Measure)
	case TypeRatio:
		return fmt.Sprintf("m[%d]/m[%d]", spec.Numerator, spec.Denominator)
	case TypeWeighted:
		return fmt.Sprintf("w·m %v", spec.Weights)
	default:
		return spec.Type
	}
}

func checkIndex(field string, idx, nMeasures int) error {
	if idx < 0 || idx >= nMeasures {
		return &InvalidSpecError{Reason: fmt.Sprintf("%s index %d out of range [0, %d)", field, idx, nMeasures)}
	}
	return nil
}

// UnknownCostError indicates an unknown cost function type
type UnknownCostError struct {
	Type string
}

func (e *UnknownCostError) Error() string {
	return "unknown cost function type: " + e.Type
}

// InvalidSpecError indicates a cost function that cannot be built
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return "invalid cost function: " + e.Reason
}
