//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoSim-25-26J-441/fast-controller/internal/fastd"
	"github.com/GoSim-25-26J-441/fast-controller/internal/plant"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/config"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
)

const testControllerYAML = `
measures: [xup, costup]
model:
  - [1, 1]
  - [4, 6]
  - [8, 10]
constraint: 100
constraint_measure: xup
period: 10
optimization: minimize
cost:
  type: ratio
  numerator: costup
  denominator: xup
pole: 0.3
oscillation_threshold: 100
`

func postJSON(t *testing.T, url string, body, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("invalid json from %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// TestIntegration_RemoteControllerMatchesInProcess drives the synthetic
// application through the HTTP daemon and through an in-process controller
// built from the same definition; both must make identical decisions.
func TestIntegration_RemoteControllerMatchesInProcess(t *testing.T) {
	store := fastd.NewStore(64, logger.Discard())
	srv := httptest.NewServer(fastd.NewHTTPServer(store).Handler())
	defer srv.Close()

	if code := postJSON(t, srv.URL+"/v1/controllers", map[string]any{"id": "app-1", "controller": testControllerYAML}, nil); code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", code)
	}

	file, err := config.ParseControllerYAMLString(testControllerYAML)
	if err != nil {
		t.Fatalf("failed to parse controller: %v", err)
	}
	local, err := file.Build(logger.Discard())
	if err != nil {
		t.Fatalf("failed to build controller: %v", err)
	}

	app, err := plant.New(local.Model(), local.ConstraintIdx(), 25, 0, nil)
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}

	applied := plant.Hold(0)
	for w := 0; w < 30; w++ {
		if w == 15 {
			if err := app.SetWorkload(40); err != nil {
				t.Fatalf("SetWorkload failed: %v", err)
			}
		}
		measures := app.Run(applied, local.Period())

		want, err := local.ComputeSchedule(uint64(w), measures)
		if err != nil {
			t.Fatalf("window %d: local ComputeSchedule failed: %v", w, err)
		}
		var got fastd.ScheduleResult
		code := postJSON(t, srv.URL+"/v1/controllers/app-1:schedule", fastd.ScheduleRequest{Tag: uint64(w), Measures: measures}, &got)
		if code != http.StatusOK {
			t.Fatalf("window %d: expected status 200, got %d", w, code)
		}
		if got.Schedule != want {
			t.Fatalf("window %d: remote schedule %+v, local %+v", w, got.Schedule, want)
		}
		if got.Iteration != uint64(w) {
			t.Fatalf("window %d: expected iteration %d, got %d", w, w, got.Iteration)
		}
		applied = got.Schedule
	}

	sess, err := store.Get("app-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.History().Total() != 30 {
		t.Fatalf("expected 30 recorded iterations, got %d", sess.History().Total())
	}
}
