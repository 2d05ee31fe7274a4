package fastd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
)

// maxBodyBytes bounds request bodies; controller definitions are small.
const maxBodyBytes = 1 << 20

// CreateRequest creates a controller session from a YAML definition.
type CreateRequest struct {
	ID         string `json:"id,omitempty"`
	Controller string `json:"controller"`
}

// ScheduleRequest carries the measures of the window that just ended. Tag is
// a decimal string on the wire so every uint64 survives JSON numbers and
// google.protobuf.Struct doubles.
type ScheduleRequest struct {
	Tag      uint64    `json:"tag,string,omitempty"`
	Measures []float64 `json:"measures"`
}

type HTTPServer struct {
	mux   *http.ServeMux
	store *Store
}

func NewHTTPServer(store *Store) *HTTPServer {
	s := &HTTPServer{
		mux:   http.NewServeMux(),
		store: store,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/controllers", s.handleControllers)
	s.mux.HandleFunc("/v1/controllers/", s.handleControllerByID)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"controllers": s.store.Len(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleControllers handles /v1/controllers
func (s *HTTPServer) handleControllers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleControllerByID handles /v1/controllers/{id}, {id}:schedule, {id}:tune
// and {id}/iterations
func (s *HTTPServer) handleControllerByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/controllers/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "controller ID is required")
		return
	}

	route := func(suffix, method string, h func(http.ResponseWriter, *http.Request, string)) bool {
		if !strings.HasSuffix(path, suffix) {
			return false
		}
		if r.Method != method {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return true
		}
		h(w, r, strings.TrimSuffix(path, suffix))
		return true
	}
	if route(":schedule", http.MethodPost, s.handleSchedule) ||
		route(":tune", http.MethodPost, s.handleTune) ||
		route("/iterations", http.MethodGet, s.handleIterations) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, path)
	case http.MethodDelete:
		s.handleDelete(w, r, path)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreate handles POST /v1/controllers
func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.store.Create(req.ID, req.Controller)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	logger.Info("controller created (HTTP)", "controller_id", sess.ID())
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"controller": sess.Info(),
	})
}

// handleList handles GET /v1/controllers
func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	sessions := s.store.List(limit)
	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"controllers": infos,
	})
}

// handleGet handles GET /v1/controllers/{id}
func (s *HTTPServer) handleGet(w http.ResponseWriter, _ *http.Request, id string) {
	sess, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"controller": sess.Info(),
	})
}

// handleDelete handles DELETE /v1/controllers/{id}
func (s *HTTPServer) handleDelete(w http.ResponseWriter, _ *http.Request, id string) {
	if err := s.store.Delete(id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	logger.Info("controller deleted (HTTP)", "controller_id", id)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deleted": id,
	})
}

// handleSchedule handles POST /v1/controllers/{id}:schedule
func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	var req ScheduleRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := sess.ComputeSchedule(req.Tag, req.Measures)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if res.Schedule.Oscillating {
		logger.Warn("controller oscillating", "controller_id", id, "iteration", res.Iteration)
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleTune handles POST /v1/controllers/{id}:tune
func (s *HTTPServer) handleTune(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	var req TuneRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := sess.Tune(req); err != nil {
		s.writeStoreError(w, err)
		return
	}
	logger.Info("controller tuned (HTTP)", "controller_id", id)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"controller": sess.Info(),
	})
}

// handleIterations handles GET /v1/controllers/{id}/iterations
func (s *HTTPServer) handleIterations(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	h := sess.History()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"iterations": h.Snapshot(limit),
		"total":      h.Total(),
		"capacity":   h.Capacity(),
	})
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// queryLimit parses the optional limit query parameter; 0 means the default.
func (s *HTTPServer) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", limitStr))
		return 0, false
	}
	return limit, true
}

func (s *HTTPServer) writeStoreError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	s.writeError(w, status, err.Error())
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
