package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Manager is an id-keyed registry of live sessions for the HTTP surface.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a new empty session and returns its id.
func (m *Manager) Create() (string, *Session) {
	id := uuid.NewString()
	session := NewSession()

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	return id, session
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session from the registry.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
