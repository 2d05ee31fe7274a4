package fastd

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/fast-controller/internal/history"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/config"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
)

// Session owns one controller. The controller is not safe for concurrent use,
// so every access goes through mu.
type Session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	file      *config.ControllerFile
	ctrl      *controller.Controller
	history   *history.Buffer
}

// SessionInfo is the externally visible state of a session.
type SessionInfo struct {
	ID              string   `json:"id"`
	CreatedAtUnixMs int64    `json:"created_at_unix_ms"`
	Entries         int      `json:"entries"`
	Measures        []string `json:"measures,omitempty"`
	NMeasures       int      `json:"n_measures"`
	Constraint      float64  `json:"constraint"`
	ConstraintIdx   int      `json:"constraint_idx"`
	Period          int      `json:"period"`
	Optimization    string   `json:"optimization"`
	Pole            float64  `json:"pole"`

	// OscillationThreshold is omitted while detection is disabled.
	OscillationThreshold *float64              `json:"oscillation_threshold,omitempty"`
	ConfidenceZone       float64               `json:"confidence_zone"`
	Iterations           uint64                `json:"iterations"`
	LastXup              float64               `json:"last_xup"`
	LastIteration        *controller.Iteration `json:"last_iteration,omitempty"`
}

// TuneRequest holds the parameters to change; nil fields are left alone.
type TuneRequest struct {
	Constraint           *float64 `json:"constraint,omitempty"`
	Pole                 *float64 `json:"pole,omitempty"`
	OscillationThreshold *float64 `json:"oscillation_threshold,omitempty"`
	Period               *int     `json:"period,omitempty"`
	Optimization         *string  `json:"optimization,omitempty"`
}

// ScheduleResult is the answer to one ComputeSchedule call.
type ScheduleResult struct {
	Schedule  controller.Schedule `json:"schedule"`
	Xup       float64             `json:"xup"`
	Iteration uint64              `json:"iteration"`
}

func (s *Session) ID() string {
	return s.id
}

// History returns the iterations recorded for the session.
func (s *Session) History() *history.Buffer {
	return s.history
}

// ComputeSchedule runs one controller iteration.
func (s *Session) ComputeSchedule(tag uint64, measures []float64) (ScheduleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, err := s.ctrl.ComputeSchedule(tag, measures)
	if err != nil {
		return ScheduleResult{}, err
	}
	return ScheduleResult{
		Schedule:  sched,
		Xup:       s.ctrl.LastXup(),
		Iteration: s.ctrl.Iterations() - 1,
	}, nil
}

// Tune applies req. Either every field is applied or, on error, none is.
func (s *Session) Tune(req TuneRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.ctrl
	prevConstraint := c.Constraint()
	prevPole := c.Pole()
	prevThreshold := c.OscillationErrorThreshold()
	prevPeriod := c.Period()
	prevOpt := c.Optimization()

	err := s.tune(req)
	if err != nil {
		c.SetConstraint(prevConstraint)
		restoreErr := errors.Join(
			c.SetPole(prevPole),
			c.SetOscillationErrorThreshold(prevThreshold),
			c.SetPeriod(prevPeriod),
			c.SetOptimization(prevOpt),
		)
		if restoreErr != nil {
			logger.Error("failed to restore controller parameters", "controller_id", s.id, "error", restoreErr)
		}
	}
	return err
}

func (s *Session) tune(req TuneRequest) error {
	c := s.ctrl
	if req.Constraint != nil {
		if math.IsNaN(*req.Constraint) || math.IsInf(*req.Constraint, 0) {
			return fmt.Errorf("%w: constraint must be finite", controller.ErrInvalidParameter)
		}
		c.SetConstraint(*req.Constraint)
	}
	if req.Pole != nil {
		if err := c.SetPole(*req.Pole); err != nil {
			return err
		}
	}
	if req.OscillationThreshold != nil {
		if err := c.SetOscillationErrorThreshold(*req.OscillationThreshold); err != nil {
			return err
		}
	}
	if req.Period != nil {
		if err := c.SetPeriod(*req.Period); err != nil {
			return err
		}
	}
	if req.Optimization != nil {
		opt, err := controller.ParseOptimization(*req.Optimization)
		if err != nil {
			return err
		}
		if err := c.SetOptimization(opt); err != nil {
			return err
		}
	}
	return nil
}

// Info returns a snapshot of the session state.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.ctrl
	info := SessionInfo{
		ID:              s.id,
		CreatedAtUnixMs: s.createdAt.UnixMilli(),
		Entries:         c.Model().NEntries(),
		Measures:        append([]string(nil), s.file.Measures...),
		NMeasures:       c.Model().NMeasures(),
		Constraint:      c.Constraint(),
		ConstraintIdx:   c.ConstraintIdx(),
		Period:          c.Period(),
		Optimization:    c.Optimization().String(),
		Pole:            c.Pole(),
		Iterations:      c.Iterations(),
		LastXup:         c.LastXup(),
	}
	if th := c.OscillationErrorThreshold(); !math.IsInf(th, 1) {
		info.OscillationThreshold = &th
	}
	info.ConfidenceZone, _ = c.ConfidenceZone(controller.DefaultConfidenceEpsilon)
	if last, ok := s.history.Last(); ok {
		info.LastIteration = &last
	}
	return info
}
