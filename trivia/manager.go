package trivia

import (
	"sync"

	"github.com/samosabot/samosa-bot/metrics"
)

// Manager is the registry of active sessions, one per guild, and of the rounds
// currently collecting answers. Discord dispatches handlers on their own
// goroutines so every access is locked.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	rounds   map[string]*round
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		rounds:   make(map[string]*round),
	}
}

// Get returns the guild's active session.
func (m *Manager) Get(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// Active is the number of running sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.GuildID]; ok {
		return ErrSessionActive
	}
	m.sessions[s.GuildID] = s
	metrics.ActiveTriviaSessions.Set(int64(len(m.sessions)))
	return nil
}

// remove deletes s only if it is still the guild's registered session, so a
// finished game never removes a newer one.
func (m *Manager) remove(s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.GuildID]; !ok || cur != s {
		return false
	}
	delete(m.sessions, s.GuildID)
	metrics.ActiveTriviaSessions.Set(int64(len(m.sessions)))
	return true
}

func (m *Manager) openRound(r *round) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.id] = r
}

func (m *Manager) closeRound(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, id)
}

func (m *Manager) round(id string) (*round, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[id]
	return r, ok
}
