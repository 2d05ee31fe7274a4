// Package simulation runs a controller in closed loop against a synthetic
// application for the windows of a scenario.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/GoSim-25-26J-441/fast-controller/internal/costfn"
	"github.com/GoSim-25-26J-441/fast-controller/internal/plant"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/config"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/utils"
	"gonum.org/v1/gonum/stat"
)

// Record is the outcome of one simulated window.
type Record struct {
	Window     int     `json:"window"`
	Workload   float64 `json:"workload"`
	Constraint float64 `json:"constraint"`
	// Measures were observed while running Applied.
	Measures []float64           `json:"measures"`
	Applied  controller.Schedule `json:"applied"`
	Cost     float64             `json:"cost"`
	// Estimate and Xup come from the controller call made after the window.
	Estimate float64             `json:"workload_estimate"`
	Xup      float64             `json:"xup"`
	Next     controller.Schedule `json:"next"`
}

// Error returns the constraint error observed in the window.
func (r *Record) Error(constraintIdx int) float64 {
	return r.Constraint - r.Measures[constraintIdx]
}

// Summary aggregates a run.
type Summary struct {
	Windows            int     `json:"windows"`
	MeanError          float64 `json:"mean_error"`
	StdDevError        float64 `json:"stddev_error"`
	MeanAbsError       float64 `json:"mean_abs_error"`
	MeanCost           float64 `json:"mean_cost"`
	OscillatingWindows int     `json:"oscillating_windows"`
}

// Result is the trace and summary of a run.
type Result struct {
	Records []Record `json:"records"`
	Summary Summary  `json:"summary"`
}

// Runner couples a controller with a synthetic application.
type Runner struct {
	file     *config.ControllerFile
	scenario *config.Scenario
	log      *slog.Logger
}

// NewRunner creates a runner. A nil log uses the package default logger.
func NewRunner(file *config.ControllerFile, scenario *config.Scenario, log *slog.Logger) *Runner {
	if log == nil {
		log = logger.Default
	}
	return &Runner{file: file, scenario: scenario, log: log}
}

// Run simulates every window of the scenario. It stops early with ctx.Err()
// when ctx is cancelled between windows.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	spec, err := r.file.CostFuncSpec()
	if err != nil {
		return nil, fmt.Errorf("invalid cost: %w", err)
	}
	ctrl, err := r.file.Build(r.log)
	if err != nil {
		return nil, fmt.Errorf("failed to build controller: %w", err)
	}

	var last controller.Iteration
	ctrl.SetObserver(controller.MultiObserver(
		controller.ObserverFunc(func(it controller.Iteration) { last = it }),
		r.file.IterationObserver(r.log),
	))

	model, idx, cost := ctrl.Model(), ctrl.ConstraintIdx(), ctrl.CostFunc()
	app, err := plant.New(model, idx, r.scenario.WorkloadAt(0), r.scenario.NoiseStdDev, utils.NewRandSource(r.scenario.Seed))
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}

	changes := make(map[int]float64, len(r.scenario.ConstraintChanges))
	for _, c := range r.scenario.ConstraintChanges {
		changes[c.Window] = c.Constraint
	}

	r.log.Info("simulation started",
		"windows", r.scenario.Windows,
		"entries", model.NEntries(),
		"period", ctrl.Period(),
		"cost", costfn.Describe(spec))

	records := make([]Record, 0, r.scenario.Windows)
	applied := plant.Hold(r.file.InitialEntry)
	for w := 0; w < r.scenario.Windows; w++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if c, ok := changes[w]; ok {
			ctrl.SetConstraint(c)
			r.log.Debug("constraint changed", "window", w, "constraint", c)
		}
		if err := app.SetWorkload(r.scenario.WorkloadAt(w)); err != nil {
			return nil, err
		}

		measures := app.Run(applied, ctrl.Period())
		next, err := ctrl.ComputeSchedule(uint64(w), measures)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w, err)
		}
		if next.Oscillating {
			r.log.Warn("controller oscillating", "window", w, "xup", last.Xup)
		}

		records = append(records, Record{
			Window:     w,
			Workload:   app.Workload(),
			Constraint: ctrl.Constraint(),
			Measures:   measures,
			Applied:    applied,
			Cost:       cost(measures),
			Estimate:   last.Workload,
			Xup:        last.Xup,
			Next:       next,
		})
		applied = next
	}

	res := &Result{Records: records, Summary: Summarize(records, idx)}
	r.log.Info("simulation finished",
		"windows", res.Summary.Windows,
		"mean_abs_error", res.Summary.MeanAbsError,
		"oscillating_windows", res.Summary.OscillatingWindows)
	return res, nil
}

// Summarize computes the error and cost statistics of records.
func Summarize(records []Record, constraintIdx int) Summary {
	s := Summary{Windows: len(records)}
	if len(records) == 0 {
		return s
	}
	errs := make([]float64, len(records))
	abs := make([]float64, len(records))
	costs := make([]float64, len(records))
	for i := range records {
		errs[i] = records[i].Error(constraintIdx)
		abs[i] = math.Abs(errs[i])
		costs[i] = records[i].Cost
		if records[i].Next.Oscillating {
			s.OscillatingWindows++
		}
	}
	s.MeanError = stat.Mean(errs, nil)
	if len(errs) > 1 {
		s.StdDevError = stat.StdDev(errs, nil)
	}
	s.MeanAbsError = stat.Mean(abs, nil)
	s.MeanCost = stat.Mean(costs, nil)
	return s
}
