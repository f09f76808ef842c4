// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/dungeonserver/network"
)

// Session is one authenticated WebSocket connection. Username is the
// validated identity resolved at upgrade time and never changes afterward.
type Session struct {
	ID         string
	Conn       network.Connection
	Username   string
	CreatedAt  time.Time
	LastActive time.Time

	roomID string
	mutex  sync.RWMutex
}

func NewSession(id string, username string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		Username:   username,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

// SetRoomID records which lobby room this connection currently acts in.
func (s *Session) SetRoomID(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.roomID = roomID
}

func (s *Session) GetRoomID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.roomID
}

func (s *Session) Send(v interface{}) error {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
	return s.Conn.Send(v)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActive = time.Now()
}

func (s *Session) IdleSince() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return time.Since(s.LastActive)
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager is the global registry of connected sessions.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByUsername returns every live session of one identity; a user may be
// connected from more than one tab.
func (m *Manager) GetByUsername(username string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Username == username {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// CountByRoom tallies connected sessions per room id, for the rooms list.
func (m *Manager) CountByRoom() map[string]int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counts := make(map[string]int)
	for _, session := range m.sessions {
		if roomID := session.GetRoomID(); roomID != "" {
			counts[roomID]++
		}
	}
	return counts
}

// ClearRoom detaches every session pointing at a deleted room.
func (m *Manager) ClearRoom(roomID string) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, session := range m.sessions {
		if session.GetRoomID() == roomID {
			session.SetRoomID("")
		}
	}
}

// Idle returns sessions that have been silent for at least maxIdle.
func (m *Manager) Idle(maxIdle time.Duration) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.IdleSince() >= maxIdle {
			result = append(result, session)
		}
	}
	return result
}
