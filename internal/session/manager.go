// ABOUTME: Manager tracks Sessions across control-stream connects, handling
// ABOUTME: resume-within-window adoption and destroy-on-expiry cascade
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultResumeTimeout = 60 * time.Second

// Manager owns every live Session, keyed by its opaque id.
type Manager struct {
	cfg           Config
	resumeTimeout time.Duration
	newPlayer     PlayerFactory

	mu       sync.Mutex
	sessions map[string]*Session
	timers   map[string]*time.Timer
}

// NewManager builds a Manager. resumeTimeout <= 0 falls back to 60s.
func NewManager(newPlayer PlayerFactory, resumeTimeout time.Duration, cfg Config) *Manager {
	if resumeTimeout <= 0 {
		resumeTimeout = defaultResumeTimeout
	}
	return &Manager{
		cfg:           cfg,
		resumeTimeout: resumeTimeout,
		newPlayer:     newPlayer,
		sessions:      make(map[string]*Session),
		timers:        make(map[string]*time.Timer),
	}
}

// Connect handles a new control-stream connection. If id is empty, or
// matches no live (non-expired) session, a fresh Session is created and a
// fresh identifier assigned; resumed reports false. If id matches a live
// resumable session, that Session is adopted as-is (its players, their
// voice connections, and the buffered tail of pending events); resumed
// reports true.
func (m *Manager) Connect(id string) (sess *Session, resumed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if existing, ok := m.sessions[id]; ok && existing.IsResumable() {
			if t, ok := m.timers[id]; ok {
				t.Stop()
				delete(m.timers, id)
			}
			existing.announceResumed()
			return existing, true
		}
	}

	newID := uuid.NewString()
	s := newSession(newID, true, m.resumeTimeout, m.cfg, m.newPlayer)
	m.sessions[newID] = s
	return s, false
}

// Disconnect marks sessionID's stream as gone. A resumable session is kept
// alive for its resume_timeout before being destroyed and cascading to its
// players; a non-resumable session is destroyed immediately.
func (m *Manager) Disconnect(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	resumable, timeout := s.disconnectPolicy()
	if !resumable {
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		s.Destroy()
		return
	}
	m.timers[sessionID] = time.AfterFunc(timeout, func() { m.expire(sessionID) })
	m.mu.Unlock()
}

func (m *Manager) expire(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		delete(m.timers, sessionID)
	}
	m.mu.Unlock()
	if ok {
		s.Destroy()
	}
}

// Get returns the live Session for id, if any.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Destroy immediately tears down sessionID regardless of resumability,
// cascading to its players. Used for explicit administrative teardown.
func (m *Manager) Destroy(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	if t, ok := m.timers[sessionID]; ok {
		t.Stop()
		delete(m.timers, sessionID)
	}
	m.mu.Unlock()
	if ok {
		s.Destroy()
	}
}
