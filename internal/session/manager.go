package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/pipewalk/pipewalk/internal/metrics"
	"github.com/pipewalk/pipewalk/sim"
)

// ErrSessionNotFound is returned for session ids the manager does not
// know, either never created or already destroyed.
var ErrSessionNotFound = errors.New("session not found")

// Manager creates, looks up and destroys sessions. It is the only
// holder of session references; the hosting layer passes session
// handles in on every action.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	log    logr.Logger
	strict bool
}

// NewManager creates an empty session manager. With strict enabled,
// sessions reject unusable pipeline documents instead of silently
// falling back to the default pipeline.
func NewManager(log logr.Logger, strict bool) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		log:      log,
		strict:   strict,
	}
}

// Create starts a new session. document may be nil (default pipeline)
// and seed may be nil (default seed records). The bool reports
// whether the default pipeline was used in place of the supplied
// document.
func (m *Manager) Create(document []byte, seed []sim.Record) (*Session, bool, error) {
	id := uuid.NewString()
	s, usedDefault, err := newSession(id, m.log, m.strict, document, seed)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	metrics.SessionsCreated.Inc()
	m.log.Info("session created", "session", id, "default_pipeline", usedDefault)
	return s, usedDefault, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s, nil
}

// Destroy removes the session with the given id.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)

	metrics.SessionsDestroyed.Inc()
	m.log.Info("session destroyed", "session", id)
	return nil
}

// IDs returns the ids of all live sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := maps.Keys(m.sessions)
	slices.Sort(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
