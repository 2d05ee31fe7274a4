package controller

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Optimizer searches configuration pairs for the cheapest (or most valuable)
// time division that achieves a target rate.
type Optimizer struct {
	settings *Settings
}

// NewOptimizer returns an optimizer reading its model, rates, period and
// cost function from settings on every search.
func NewOptimizer(settings *Settings) *Optimizer {
	return &Optimizer{settings: settings}
}

// scheduleAndCost evaluates running lower configuration j and upper
// configuration i so that the window averages xupTarget.
func (o *Optimizer) scheduleAndCost(xupTarget float64, i, j int) (cost float64, iterations int) {
	s := o.settings
	xupLower := s.rates[j]
	xupUpper := s.rates[i]

	// x is the fraction of the window in the lower configuration:
	// 1/target = x/lower + (1-x)/upper
	var x float64
	if xupUpper <= xupLower {
		x = 0
	} else {
		x = ((xupUpper * xupLower) - (xupTarget * xupLower)) / ((xupUpper * xupTarget) - (xupTarget * xupLower))
	}

	interpolated := make([]float64, s.model.nMeasures)
	floats.ScaleTo(interpolated, x, s.model.measures[j])
	floats.AddScaled(interpolated, 1-x, s.model.measures[i])

	cost = s.costFn(interpolated)
	iterations = int(math.Round(float64(s.period) * x))
	return cost, iterations
}

// Search returns the best feasible schedule for xupTarget. Pairs are visited
// with the upper index ascending, then the lower index ascending, and only a
// strictly better cost replaces the incumbent. If no pair is feasible the zero
// Schedule is returned.
func (o *Optimizer) Search(xupTarget float64) Schedule {
	s := o.settings
	var sched Schedule
	costBest := math.Inf(1)
	if s.optimization == Maximize {
		costBest = math.Inf(-1)
	}

	n := s.model.nEntries
	for i := 0; i < n; i++ {
		if s.rates[i] < xupTarget {
			continue
		}
		for j := 0; j < n; j++ {
			if s.rates[j] > xupTarget {
				continue
			}
			cost, iterations := o.scheduleAndCost(xupTarget, i, j)
			var isBest bool
			if s.optimization == Maximize {
				isBest = cost > costBest
			} else {
				isBest = cost < costBest
			}
			if isBest {
				sched = Schedule{IDLower: j, IDUpper: i, NLowerIterations: iterations}
				costBest = cost
			}
		}
	}
	return sched
}
