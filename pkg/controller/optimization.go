package controller

import (
	"fmt"
	"strings"
)

// Optimization selects whether the cost/value function is minimized or maximized.
type Optimization int

const (
	// Minimize treats the callback result as a cost.
	Minimize Optimization = iota
	// Maximize treats the callback result as a value.
	Maximize
)

func (o Optimization) String() string {
	switch o {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	default:
		return fmt.Sprintf("Optimization(%d)", int(o))
	}
}

// Valid reports whether o is Minimize or Maximize.
func (o Optimization) Valid() bool {
	return o == Minimize || o == Maximize
}

// ParseOptimization parses "minimize"/"min" or "maximize"/"max" (case-insensitive).
func ParseOptimization(s string) (Optimization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimize", "min":
		return Minimize, nil
	case "maximize", "max":
		return Maximize, nil
	default:
		return 0, fmt.Errorf("%w: unknown optimization %q (must be minimize or maximize)", ErrInvalidParameter, s)
	}
}

// CostFunc computes the cost or value of an interpolated measure vector.
// It must be free of side effects on the controller and must not block.
type CostFunc func(measures []float64) float64
