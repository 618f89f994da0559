package state

import (
	"maps"
	"sync"
	"time"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	now      func() time.Time
}

// NewMemoryManager constructs an in-memory Manager. Sessions are lost on restart.
func NewMemoryManager() Manager {
	return newMemoryManager(time.Now)
}

func newMemoryManager(now func() time.Time) *memoryManager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		now:      now,
	}
}

// Get returns the session for a user if it exists, otherwise returns a default idle session.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		return Session{State: session.State, Data: maps.Clone(session.Data), UpdatedAt: session.UpdatedAt}
	}
	return Session{State: StateIdle, Data: map[string]string{}}
}

// session returns the mutable session for userID, creating it when missing. Caller holds mu.
func (m *memoryManager) session(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{State: StateIdle, Data: make(map[string]string)}
		m.sessions[userID] = sess
	}
	sess.UpdatedAt = m.now()
	return sess
}

// SetValue stores a collected answer for the given user session.
func (m *memoryManager) SetValue(userID int64, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).Data[key] = value
}

// Value retrieves a collected answer by key.
func (m *memoryManager) Value(userID int64, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[userID]
	if !ok {
		return "", false
	}
	val, ok := session.Data[key]
	return val, ok
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// SetState sets the FSM state for the given user. Setting StateIdle drops the session.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == StateIdle {
		delete(m.sessions, userID)
		return
	}
	m.session(userID).State = st
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.State != StateIdle
}

func (m *memoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sess := range m.sessions {
		if sess.State != StateIdle {
			n++
		}
	}
	return n
}

func (m *memoryManager) Stale(cutoff time.Time) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stale []int64
	for id, sess := range m.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	return stale
}
