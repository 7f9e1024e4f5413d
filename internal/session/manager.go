// Package session tracks per-browser conversation state in memory.
// State is a convenience cache for follow-up questions; the durable record
// lives in the chat history table. Losing it on restart is acceptable.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxExchanges caps how many recent exchanges a session keeps in memory.
const maxExchanges = 20

// Exchange is one question and its answer.
type Exchange struct {
	Query  string
	Answer string
	At     time.Time
}

// Manager holds in-memory conversation state keyed by session ID.
// Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string][]Exchange
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string][]Exchange),
	}
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Append records a completed exchange for a session, trimming oldest
// exchanges past the cap.
func (m *Manager) Append(sessionID, query, answer string) {
	if sessionID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	exchanges := append(m.sessions[sessionID], Exchange{Query: query, Answer: answer, At: time.Now()})
	if len(exchanges) > maxExchanges {
		exchanges = exchanges[len(exchanges)-maxExchanges:]
	}
	m.sessions[sessionID] = exchanges
}

// Exchanges returns a copy of the recorded exchanges for a session,
// oldest first.
func (m *Manager) Exchanges(sessionID string) []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()

	exchanges := m.sessions[sessionID]
	result := make([]Exchange, len(exchanges))
	copy(result, exchanges)
	return result
}

// Reset drops the in-memory state for every session. Used when the durable
// history is wiped so stale conversations do not outlive it.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string][]Exchange)
}
