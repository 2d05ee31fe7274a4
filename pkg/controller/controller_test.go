package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"
)

const (
	measureXupIdx    = 0
	measureCostupIdx = 1
	testConstraint   = 100.0
	testWindowPeriod = 10
)

func costupPerXup(m []float64) float64 {
	return m[measureCostupIdx] / m[measureXupIdx]
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	c, err := New(Config{
		Model:         mustModel(t, testMeasures),
		Constraint:    testConstraint,
		ConstraintIdx: measureXupIdx,
		Period:        testWindowPeriod,
		Optimization:  Minimize,
		CostFunc:      costupPerXup,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestControllerComputeSchedule(t *testing.T) {
	c := newTestController(t)
	// setters must not recurse or disturb state
	c.SetConstraint(testConstraint)
	if err := c.SetPole(0); err != nil {
		t.Fatalf("SetPole failed: %v", err)
	}
	if err := c.SetModel(c.Model()); err != nil {
		t.Fatalf("SetModel failed: %v", err)
	}

	sched, err := c.ComputeSchedule(testWindowPeriod, []float64{testConstraint / 4, 10})
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}
	if sched != (Schedule{IDLower: 0, IDUpper: 2, NLowerIterations: 1}) {
		t.Fatalf("first window: unexpected schedule %+v", sched)
	}

	sched, err = c.ComputeSchedule(2*testWindowPeriod, []float64{testConstraint / 2, 10})
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}
	if sched != (Schedule{IDLower: 0, IDUpper: 2, NLowerIterations: 0}) {
		t.Fatalf("second window: unexpected schedule %+v", sched)
	}
	if c.Iterations() != 2 {
		t.Fatalf("expected 2 iterations, got %d", c.Iterations())
	}
	if math.Abs(c.LastXup()-7.837840768761179) > 1e-9 {
		t.Fatalf("unexpected last xup %v", c.LastXup())
	}
}

func TestControllerOscillationDetection(t *testing.T) {
	c := newTestController(t)
	_ = c.SetPole(0)
	// error swings of exactly 2 * 51 = 102 exceed the threshold
	if err := c.SetOscillationErrorThreshold(testConstraint); err != nil {
		t.Fatalf("SetOscillationErrorThreshold failed: %v", err)
	}

	steps := []struct {
		achieved    float64
		oscillating bool
	}{
		// the first window was only observation
		{testConstraint * 1.51, false},
		// could just be overshoot
		{testConstraint * 0.49, false},
		{testConstraint * 1.51, true},
		// swing of 76 is below the threshold
		{testConstraint * 0.75, false},
	}
	for i, step := range steps {
		sched, err := c.ComputeSchedule(uint64(i), []float64{step.achieved, 10})
		if err != nil {
			t.Fatalf("step %d: ComputeSchedule failed: %v", i, err)
		}
		if sched.Oscillating != step.oscillating {
			t.Fatalf("step %d: expected oscillating=%v, got %v", i, step.oscillating, sched.Oscillating)
		}
	}
}

func TestControllerOscillationWaitsForConfidenceZone(t *testing.T) {
	c := newTestController(t)
	// zone = log(0.05)/log(0.5) ≈ 4.3, so flag only once more than 5 calls were made
	_ = c.SetPole(0.5)
	_ = c.SetOscillationErrorThreshold(1)

	for i := 0; i < 8; i++ {
		achieved := testConstraint * 0.5
		if i%2 == 1 {
			achieved = testConstraint * 1.5
		}
		sched, err := c.ComputeSchedule(uint64(i), []float64{achieved, 10})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if want := i > 5; sched.Oscillating != want {
			t.Fatalf("call %d: expected oscillating=%v, got %v", i, want, sched.Oscillating)
		}
	}
}

func TestControllerOscillationDisabledByDefault(t *testing.T) {
	c := newTestController(t)
	if !math.IsInf(c.OscillationErrorThreshold(), 1) {
		t.Fatalf("expected +Inf default threshold, got %v", c.OscillationErrorThreshold())
	}
	for i := 0; i < 6; i++ {
		achieved := 10.0
		if i%2 == 1 {
			achieved = 1000
		}
		sched, err := c.ComputeSchedule(uint64(i), []float64{achieved, 10})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if sched.Oscillating {
			t.Fatalf("call %d: unexpected oscillation", i)
		}
	}
}

func TestNewControllerInvalid(t *testing.T) {
	model := mustModel(t, testMeasures)
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"nil model", Config{Period: 10, CostFunc: costupPerXup}, ErrInvalidModel},
		{"constraint index too large", Config{Model: model, ConstraintIdx: 2, Period: 10, CostFunc: costupPerXup}, ErrInvalidParameter},
		{"zero period", Config{Model: model, CostFunc: costupPerXup}, ErrInvalidParameter},
		{"initial entry negative", Config{Model: model, Period: 10, CostFunc: costupPerXup, InitialEntry: -1}, ErrInvalidParameter},
		{"initial entry too large", Config{Model: model, Period: 10, CostFunc: costupPerXup, InitialEntry: 3}, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestControllerInitialEntrySeedsXup(t *testing.T) {
	c, err := New(Config{
		Model:        mustModel(t, [][]float64{{2, 1}, {4, 6}, {8, 10}}),
		Constraint:   100,
		Period:       10,
		CostFunc:     costupPerXup,
		InitialEntry: 2,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.LastXup() != 4 {
		t.Fatalf("expected starting xup 4, got %v", c.LastXup())
	}
}

func TestControllerComputeScheduleInvalidInput(t *testing.T) {
	c := newTestController(t)
	if _, err := c.ComputeSchedule(0, []float64{1}); !errors.Is(err, ErrMeasureCountMismatch) {
		t.Fatalf("expected ErrMeasureCountMismatch, got %v", err)
	}
	if _, err := c.ComputeSchedule(0, []float64{1, 2, 3}); !errors.Is(err, ErrMeasureCountMismatch) {
		t.Fatalf("expected ErrMeasureCountMismatch, got %v", err)
	}
	for _, v := range []float64{0, -1, math.NaN()} {
		if _, err := c.ComputeSchedule(0, []float64{v, 2}); !errors.Is(err, ErrInvalidMeasurement) {
			t.Fatalf("%g: expected ErrInvalidMeasurement, got %v", v, err)
		}
	}
	if c.Iterations() != 0 {
		t.Fatalf("failed calls must not count, got %d", c.Iterations())
	}
	if c.LastXup() != 1 {
		t.Fatalf("failed calls must not touch the filters, xup = %v", c.LastXup())
	}
}

func TestControllerSetters(t *testing.T) {
	c := newTestController(t)
	if err := c.SetPole(1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if err := c.SetPole(0.25); err != nil || c.Pole() != 0.25 {
		t.Fatalf("SetPole(0.25): err=%v pole=%v", err, c.Pole())
	}
	if err := c.SetModel(mustModel(t, [][]float64{{1}, {2}})); !errors.Is(err, ErrMeasureCountMismatch) {
		t.Fatalf("expected ErrMeasureCountMismatch, got %v", err)
	}
	if err := c.SetOptimization(Maximize); err != nil || c.Optimization() != Maximize {
		t.Fatalf("SetOptimization: err=%v opt=%v", err, c.Optimization())
	}
	if err := c.SetCostFunc(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if err := c.SetPeriod(0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if err := c.SetOscillationErrorThreshold(-1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if err := c.SetOscillationErrorThreshold(math.NaN()); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	c.SetConstraint(42)
	if c.Constraint() != 42 {
		t.Fatalf("expected constraint 42, got %v", c.Constraint())
	}
	if c.ConstraintIdx() != measureXupIdx {
		t.Fatalf("unexpected constraint index %d", c.ConstraintIdx())
	}
}

func TestControllerSetModelTakesEffect(t *testing.T) {
	c := newTestController(t)
	if err := c.SetModel(mustModel(t, [][]float64{{1, 1}, {2, 2}})); err != nil {
		t.Fatalf("SetModel failed: %v", err)
	}
	sched, err := c.ComputeSchedule(0, []float64{25, 10})
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}
	if sched.IDUpper != 1 || c.LastXup() != 2 {
		t.Fatalf("expected target clamped to new max rate 2, got xup %v schedule %+v", c.LastXup(), sched)
	}
}

func TestControllerObserver(t *testing.T) {
	c := newTestController(t)
	var got []Iteration
	c.SetObserver(ObserverFunc(func(it Iteration) {
		got = append(got, it)
	}))
	for i := 0; i < 3; i++ {
		if _, err := c.ComputeSchedule(uint64(100+i), []float64{50, 10}); err != nil {
			t.Fatalf("ComputeSchedule failed: %v", err)
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 iterations, got %d", len(got))
	}
	for i, it := range got {
		if it.ID != uint64(i) || it.Tag != uint64(100+i) {
			t.Fatalf("iteration %d: unexpected id/tag %d/%d", i, it.ID, it.Tag)
		}
		if it.ConstraintAchieved != 50 {
			t.Fatalf("iteration %d: unexpected achieved %v", i, it.ConstraintAchieved)
		}
		if it.Xup != it.XupState.U {
			t.Fatalf("iteration %d: xup %v does not match state %v", i, it.Xup, it.XupState.U)
		}
		if it.Workload != 1/it.Kalman.XHat {
			t.Fatalf("iteration %d: workload %v does not match filter %v", i, it.Workload, it.Kalman.XHat)
		}
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newTestController(t)
	c.SetObserver(MultiObserver(LogObserver(l), nil))
	if _, err := c.ComputeSchedule(7, []float64{25, 10}); err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"controller iteration", "tag=7", "id_upper=2", "kalman.x_hat="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got: %s", want, out)
		}
	}

	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	c.SetObserver(LogObserver(quiet))
	if _, err := c.ComputeSchedule(8, []float64{25, 10}); err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output at info level, got: %s", buf.String())
	}
}

func TestScheduleUpperIterations(t *testing.T) {
	s := Schedule{NLowerIterations: 3}
	if s.UpperIterations(10) != 7 {
		t.Fatalf("expected 7 upper iterations, got %d", s.UpperIterations(10))
	}
}
