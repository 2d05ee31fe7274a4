package controller

import (
	"math"
	"testing"
)

func newTestSettings(t *testing.T, measures [][]float64, opt Optimization, fn CostFunc) *Settings {
	t.Helper()
	s, err := NewSettings(mustModel(t, measures), 100, 0, 10, opt, fn)
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}
	return s
}

func TestOptimizerSearchReferenceTargets(t *testing.T) {
	o := NewOptimizer(newTestSettings(t, testMeasures, Minimize, ratioCost))

	sched := o.Search(4.029757321841034)
	if sched != (Schedule{IDLower: 0, IDUpper: 2, NLowerIterations: 1}) {
		t.Fatalf("unexpected schedule: %+v", sched)
	}
	sched = o.Search(7.837840768761179)
	if sched != (Schedule{IDLower: 0, IDUpper: 2, NLowerIterations: 0}) {
		t.Fatalf("unexpected schedule: %+v", sched)
	}
}

func TestOptimizerScheduleAndCost(t *testing.T) {
	var got []float64
	o := NewOptimizer(newTestSettings(t, testMeasures, Minimize, func(m []float64) float64 {
		got = append([]float64(nil), m...)
		return 0
	}))

	// halfway in time between rate 1 and rate 4 averages 1.6
	_, iterations := o.scheduleAndCost(1.6, 1, 0)
	if iterations != 5 {
		t.Fatalf("expected 5 lower iterations, got %d", iterations)
	}
	if math.Abs(got[0]-2.5) > 1e-12 || math.Abs(got[1]-3.5) > 1e-12 {
		t.Fatalf("unexpected interpolation: %v", got)
	}

	// same-rate pair spends everything in the upper configuration
	_, iterations = o.scheduleAndCost(4, 1, 1)
	if iterations != 0 {
		t.Fatalf("expected 0 lower iterations, got %d", iterations)
	}
	if got[0] != 4 || got[1] != 6 {
		t.Fatalf("unexpected interpolation: %v", got)
	}
}

func TestOptimizerTieKeepsFirstPair(t *testing.T) {
	measures := [][]float64{{1, 1}, {2, 2}, {2, 2}, {4, 4}}
	o := NewOptimizer(newTestSettings(t, measures, Minimize, func([]float64) float64 { return 1 }))
	sched := o.Search(2)
	// first feasible upper is 1 (rate 2), first lower is 0
	if sched.IDUpper != 1 || sched.IDLower != 0 {
		t.Fatalf("expected first pair (lower 0, upper 1), got %+v", sched)
	}

	o = NewOptimizer(newTestSettings(t, measures, Maximize, func([]float64) float64 { return 1 }))
	sched = o.Search(2)
	if sched.IDUpper != 1 || sched.IDLower != 0 {
		t.Fatalf("expected first pair (lower 0, upper 1), got %+v", sched)
	}
}

func TestOptimizerMaximize(t *testing.T) {
	// value is the second measure; every pair that runs row 1 for the whole
	// window ties at 50 and the first of them wins
	measures := [][]float64{{1, 1}, {2, 50}, {4, 4}}
	o := NewOptimizer(newTestSettings(t, measures, Maximize, func(m []float64) float64 { return m[1] }))
	sched := o.Search(2)
	if sched != (Schedule{IDLower: 0, IDUpper: 1, NLowerIterations: 0}) {
		t.Fatalf("expected pair (0, 1), got %+v", sched)
	}

	o = NewOptimizer(newTestSettings(t, measures, Minimize, func(m []float64) float64 { return m[1] }))
	sched = o.Search(2)
	if sched != (Schedule{IDLower: 0, IDUpper: 2, NLowerIterations: 3}) {
		t.Fatalf("expected pair (0, 2) with 3 lower iterations, got %+v", sched)
	}
}

func TestOptimizerNoFeasiblePair(t *testing.T) {
	o := NewOptimizer(newTestSettings(t, testMeasures, Minimize, ratioCost))
	if sched := o.Search(9); sched != (Schedule{}) {
		t.Fatalf("expected zero schedule, got %+v", sched)
	}
}

func TestOptimizerSearchProperties(t *testing.T) {
	measures := [][]float64{{1, 3}, {1.5, 3.5}, {1.5, 4}, {2.25, 7}, {3, 8}, {6, 20}}
	s := newTestSettings(t, measures, Minimize, ratioCost)
	o := NewOptimizer(s)
	for target := 1.0; target <= s.MaxRate(); target += 0.05 {
		sched := o.Search(target)
		if sched.NLowerIterations < 0 || sched.NLowerIterations > s.Period() {
			t.Fatalf("target %g: lower iterations %d out of range", target, sched.NLowerIterations)
		}
		if sched.IDLower < 0 || sched.IDLower >= len(measures) || sched.IDUpper < 0 || sched.IDUpper >= len(measures) {
			t.Fatalf("target %g: invalid ids %+v", target, sched)
		}
		if s.Rate(sched.IDUpper) < target || s.Rate(sched.IDLower) > target {
			t.Fatalf("target %g: infeasible pair %+v", target, sched)
		}
		if again := o.Search(target); again != sched {
			t.Fatalf("target %g: search not deterministic: %+v != %+v", target, again, sched)
		}
	}
}
