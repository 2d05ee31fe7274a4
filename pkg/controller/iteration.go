package controller

import (
	"context"
	"log/slog"
)

// Iteration records one ComputeSchedule call for telemetry.
type Iteration struct {
	ID                 uint64      `json:"id"`
	Tag                uint64      `json:"tag,string"`
	ConstraintAchieved float64     `json:"constraint_achieved"`
	Workload           float64     `json:"workload"`
	Xup                float64     `json:"xup"`
	Kalman             KalmanState `json:"kalman"`
	XupState           XupSnapshot `json:"xup_state"`
	Schedule           Schedule    `json:"schedule"`
}

// Observer receives every completed iteration. It runs synchronously inside
// ComputeSchedule and must not call back into the controller.
type Observer interface {
	ObserveIteration(it Iteration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(it Iteration)

func (f ObserverFunc) ObserveIteration(it Iteration) {
	f(it)
}

// MultiObserver fans an iteration out to several observers in order.
func MultiObserver(observers ...Observer) Observer {
	return ObserverFunc(func(it Iteration) {
		for _, o := range observers {
			if o != nil {
				o.ObserveIteration(it)
			}
		}
	})
}

type logObserver struct {
	logger *slog.Logger
}

// LogObserver logs each iteration at debug level. A nil logger uses slog.Default().
func LogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logObserver{logger: logger}
}

func (o *logObserver) ObserveIteration(it Iteration) {
	if !o.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	o.logger.Debug("controller iteration",
		"id", it.ID,
		"tag", it.Tag,
		"constraint_achieved", it.ConstraintAchieved,
		"workload", it.Workload,
		"xup", it.Xup,
		slog.Group("kalman",
			"x_hat_minus", it.Kalman.XHatMinus,
			"x_hat", it.Kalman.XHat,
			"p_minus", it.Kalman.PMinus,
			"h", it.Kalman.H,
			"k", it.Kalman.K,
			"p", it.Kalman.P,
		),
		slog.Group("xup_state",
			"u", it.XupState.U,
			"uo", it.XupState.UO,
			"uoo", it.XupState.UOO,
			"e", it.XupState.E,
			"eo", it.XupState.EO,
			"p1", it.XupState.P1,
		),
		"id_lower", it.Schedule.IDLower,
		"id_upper", it.Schedule.IDUpper,
		"n_lower_iterations", it.Schedule.NLowerIterations,
		"oscillating", it.Schedule.Oscillating,
	)
}
