// Package fastd hosts controller sessions for applications running in other
// processes, over HTTP JSON and gRPC.
package fastd

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/fast-controller/internal/history"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/config"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
	"github.com/google/uuid"
)

const defaultListLimit = 50

// Store holds the live controller sessions.
type Store struct {
	mu              sync.RWMutex
	sessions        map[string]*Session
	historyCapacity int
	log             *slog.Logger
}

// NewStore creates an empty store. Each session keeps at most
// historyCapacity iterations; a non-positive value uses history.DefaultCapacity.
func NewStore(historyCapacity int, log *slog.Logger) *Store {
	if log == nil {
		log = logger.Default
	}
	return &Store{
		sessions:        make(map[string]*Session),
		historyCapacity: historyCapacity,
		log:             log,
	}
}

func validateSessionID(id string) error {
	if strings.ContainsAny(id, "/:? ") {
		return fmt.Errorf("%w: %q must not contain '/', ':', '?' or spaces", ErrInvalidSessionID, id)
	}
	return nil
}

// Create builds a controller from its YAML definition and registers it under
// id, or under a fresh UUID when id is empty.
func (s *Store) Create(id, controllerYAML string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	} else if err := validateSessionID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(controllerYAML) == "" {
		return nil, fmt.Errorf("%w: controller definition is required", ErrInvalidRequest)
	}

	file, err := config.ParseControllerYAMLString(controllerYAML)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidController, err)
	}
	ctrl, err := file.Build(s.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidController, err)
	}

	sess := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		file:      file,
		ctrl:      ctrl,
		history:   history.New(s.historyCapacity),
	}
	ctrl.SetObserver(controller.MultiObserver(sess.history, file.IterationObserver(s.log.With("controller_id", id))))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	s.sessions[id] = sess
	return sess, nil
}

// Get returns the session registered under id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// List returns up to limit sessions, oldest first.
func (s *Store) List(limit int) []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].createdAt.Before(out[j].createdAt)
		}
		return out[i].id < out[j].id
	})
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Delete removes the session registered under id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
