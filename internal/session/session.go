// Package session manages live form session lifecycle.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/formstate"
)

// Session holds one open form.
type Session struct {
	ID        string    `json:"id"`
	Schema    string    `json:"schema"`
	CreatedAt time.Time `json:"created_at"`

	form *formstate.Form

	mu           sync.Mutex
	lastActiveAt time.Time
}

// NewSession creates a session for form, built from the named schema.
func NewSession(schemaName string, form *formstate.Form) *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		Schema:       schemaName,
		CreatedAt:    now,
		form:         form,
		lastActiveAt: now,
	}
	form.Store().Subscribe("session-activity", formstate.SubscriberFunc(func(formstate.Change) error {
		s.Touch()
		return nil
	}))
	return s
}

// Form returns the session's form.
func (s *Session) Form() *formstate.Form {
	return s.form
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

// LastActiveAt returns the last activity timestamp.
func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	return time.Since(s.LastActiveAt()) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Create registers a new session for form and returns it.
func (m *Manager) Create(schemaName string, form *formstate.Form) *Session {
	s := NewSession(schemaName, form)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by ID. Returns nil if not found, expired or idle.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if m.stale(s) {
		m.Remove(id)
		return nil
	}
	s.Touch()
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of sessions held, stale ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions and returns how many were
// removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.stale(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) stale(s *Session) bool {
	return s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout)
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Cleanup(); n > 0 {
				log.Debug().Str("component", "session").Int("removed", n).Msg("stale sessions removed")
			}
		}
	}
}
