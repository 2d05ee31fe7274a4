package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Objective scores the summary of a run.
type Objective interface {
	Name() string
	// Minimize reports whether lower scores are better.
	Minimize() bool
	Score(s Summary) float64
}

type ObjectiveType string

const (
	ObjectiveMeanAbsError ObjectiveType = "mean_abs_error"
	ObjectiveStdDevError  ObjectiveType = "stddev_error"
	ObjectiveOscillations ObjectiveType = "oscillations"
	ObjectiveMinCost      ObjectiveType = "min_cost"
	ObjectiveMaxCost      ObjectiveType = "max_cost"
)

type summaryObjective struct {
	name     ObjectiveType
	minimize bool
	score    func(Summary) float64
}

func (o *summaryObjective) Name() string {
	return string(o.name)
}

func (o *summaryObjective) Minimize() bool {
	return o.minimize
}

func (o *summaryObjective) Score(s Summary) float64 {
	return o.score(s)
}

// UnknownObjectiveError is returned for an unsupported objective name.
type UnknownObjectiveError struct {
	ObjectiveType string
}

func (e *UnknownObjectiveError) Error() string {
	return fmt.Sprintf("unknown objective %q", e.ObjectiveType)
}

// NewObjective creates an objective from its name.
func NewObjective(name string) (Objective, error) {
	switch t := ObjectiveType(name); t {
	case ObjectiveMeanAbsError:
		return &summaryObjective{t, true, func(s Summary) float64 { return s.MeanAbsError }}, nil
	case ObjectiveStdDevError:
		return &summaryObjective{t, true, func(s Summary) float64 { return s.StdDevError }}, nil
	case ObjectiveOscillations:
		return &summaryObjective{t, true, func(s Summary) float64 { return float64(s.OscillatingWindows) }}, nil
	case ObjectiveMinCost:
		return &summaryObjective{t, true, func(s Summary) float64 { return s.MeanCost }}, nil
	case ObjectiveMaxCost:
		return &summaryObjective{t, false, func(s Summary) float64 { return s.MeanCost }}, nil
	default:
		return nil, &UnknownObjectiveError{ObjectiveType: name}
	}
}

// SweepPoint is the outcome of one candidate pole.
type SweepPoint struct {
	Pole    float64 `json:"pole"`
	Score   float64 `json:"score"`
	Summary Summary `json:"summary"`
}

// SweepResult lists every candidate in ascending pole order and the best one.
type SweepResult struct {
	Objective string       `json:"objective"`
	Points    []SweepPoint `json:"points"`
	Best      SweepPoint   `json:"best"`
}

// SweepPoles runs the scenario once per candidate pole and selects the pole
// with the best objective score. Ties keep the smaller pole.
func (r *Runner) SweepPoles(ctx context.Context, poles []float64, objective Objective) (*SweepResult, error) {
	if len(poles) == 0 {
		return nil, fmt.Errorf("at least one pole is required")
	}
	sorted := append([]float64(nil), poles...)
	sort.Float64s(sorted)

	res := &SweepResult{Objective: objective.Name(), Points: make([]SweepPoint, 0, len(sorted))}
	for i, pole := range sorted {
		file := *r.file
		p := pole
		file.Pole = &p

		run, err := NewRunner(&file, r.scenario, r.log.With(slog.Float64("pole", pole))).Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("pole %g: %w", pole, err)
		}
		pt := SweepPoint{Pole: pole, Score: objective.Score(run.Summary), Summary: run.Summary}
		res.Points = append(res.Points, pt)

		better := pt.Score < res.Best.Score
		if !objective.Minimize() {
			better = pt.Score > res.Best.Score
		}
		if i == 0 || better {
			res.Best = pt
		}
	}
	r.log.Info("pole sweep finished", "objective", res.Objective, "best_pole", res.Best.Pole, "best_score", res.Best.Score)
	return res, nil
}
