package gateway

import (
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager tracks open websocket connections by session. A session may have
// several tabs open; each gets every update.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]map[*Connection]struct{}
	pending  map[string]bool
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]map[*Connection]struct{}),
		pending:  make(map[string]bool),
	}
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.sessions[c.SessionID]
	if !ok {
		conns = make(map[*Connection]struct{})
		m.sessions[c.SessionID] = conns
	}
	conns[c] = struct{}{}
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.sessions[c.SessionID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(m.sessions, c.SessionID)
		delete(m.pending, c.SessionID)
	}
}

// Sessions returns the ids of sessions with at least one open connection.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Count returns the number of open connections for a session.
func (m *Manager) Count(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

func (m *Manager) connections(sessionID string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conns := make([]*Connection, 0, len(m.sessions[sessionID]))
	for c := range m.sessions[sessionID] {
		conns = append(conns, c)
	}
	return conns
}

// SendToSession queues p on every connection of the session and returns how
// many received it.
func (m *Manager) SendToSession(sessionID string, p Payload) int {
	conns := m.connections(sessionID)
	for _, c := range conns {
		c.SendPayload(p)
	}
	return len(conns)
}

// Expire sends SESSION_EXPIRED to every tab of the session and closes them.
func (m *Manager) Expire(sessionID string) {
	m.mu.Lock()
	conns := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	delete(m.pending, sessionID)
	m.mu.Unlock()

	for c := range conns {
		c.expire()
	}
}

// RequestRefresh marks the session for an update on the next poll.
func (m *Manager) RequestRefresh(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		m.pending[sessionID] = true
	}
}

// takeRefresh reports and clears a pending refresh request.
func (m *Manager) takeRefresh(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.pending[sessionID]
	delete(m.pending, sessionID)
	return ok
}

// CloseAll closes every connection, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]map[*Connection]struct{})
	m.pending = make(map[string]bool)
	m.mu.Unlock()

	for _, conns := range all {
		for c := range conns {
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			c.Close()
		}
	}
}
