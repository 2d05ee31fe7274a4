// Package plant simulates the application a controller steers: it applies a
// schedule for one window and reports the measures the host would observe.
package plant

import (
	"fmt"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/utils"
)

// minNoiseFactor keeps noisy measurements positive.
const minNoiseFactor = 0.05

// App is a synthetic application. In configuration i one iteration takes
// 1 / (workload * model[i][constraintIdx]) time units; every other measure is
// the time-weighted average of the configuration rows used in the window.
type App struct {
	model         *controller.Model
	constraintIdx int
	workload      float64
	noise         float64
	rng           *utils.RandSource
}

// New returns an App over model. noise is the relative standard deviation of
// the measured constraint.
func New(model *controller.Model, constraintIdx int, workload, noise float64, rng *utils.RandSource) (*App, error) {
	if constraintIdx < 0 || constraintIdx >= model.NMeasures() {
		return nil, fmt.Errorf("constraint index %d out of range [0, %d)", constraintIdx, model.NMeasures())
	}
	for i := 0; i < model.NEntries(); i++ {
		if model.Measure(i, constraintIdx) <= 0 {
			return nil, fmt.Errorf("entry %d: constraint measure must be positive", i)
		}
	}
	a := &App{
		model:         model,
		constraintIdx: constraintIdx,
		noise:         noise,
		rng:           rng,
	}
	if err := a.SetWorkload(workload); err != nil {
		return nil, err
	}
	return a, nil
}

// SetWorkload changes the application workload from the next window on.
func (a *App) SetWorkload(workload float64) error {
	if workload <= 0 {
		return fmt.Errorf("workload must be positive, got %g", workload)
	}
	a.workload = workload
	return nil
}

func (a *App) Workload() float64 {
	return a.workload
}

// Run executes one window of period iterations under sched and returns the
// measured vector.
func (a *App) Run(sched controller.Schedule, period int) []float64 {
	nLower := utils.ClampFloat64(float64(sched.NLowerIterations), 0, float64(period))
	nUpper := float64(period) - nLower

	lower := a.model.Row(sched.IDLower)
	upper := a.model.Row(sched.IDUpper)
	tLower := nLower / (a.workload * lower[a.constraintIdx])
	tUpper := nUpper / (a.workload * upper[a.constraintIdx])
	total := tLower + tUpper

	measures := make([]float64, len(lower))
	for m := range measures {
		measures[m] = (tLower*lower[m] + tUpper*upper[m]) / total
	}
	measures[a.constraintIdx] = float64(period) / total
	if a.rng != nil {
		measures[a.constraintIdx] *= a.rng.NoiseFactor(a.noise, minNoiseFactor)
	}
	return measures
}

// Hold is the schedule that runs entry for the whole window.
func Hold(entry int) controller.Schedule {
	return controller.Schedule{IDLower: entry, IDUpper: entry}
}
