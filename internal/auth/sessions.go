package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultSessionTTL = 12 * time.Hour

// Session is a signed-in browser.
type Session struct {
	ID        string
	Email     string
	Username  string
	ExpiresAt time.Time
}

// SessionManager maps opaque cookie values to signed-in users.
type SessionManager struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]Session
	now      func() time.Time
}

// NewSessionManager creates an empty manager.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{ttl: ttl, sessions: make(map[string]Session), now: time.Now}
}

// Create starts a session and returns it.
func (m *SessionManager) Create(email, username string) Session {
	s := Session{ID: uuid.NewString(), Email: email, Username: username, ExpiresAt: m.now().Add(m.ttl)}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the live session for id.
func (m *SessionManager) Get(id string) (Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.now().After(s.ExpiresAt) {
		return Session{}, false
	}
	return s, true
}

// Delete ends a session.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Purge drops expired sessions and reports how many.
func (m *SessionManager) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
