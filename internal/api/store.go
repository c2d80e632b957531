package api

import (
	"sync"

	"github.com/gazelab/gazetrack/internal/services"
)

// memoryStore is the reference store: a session map plus an append-only trial
// sequence, guarded by one RWMutex. State lives for the process lifetime; a
// restart loses it. Durable deployments swap in the SQLite store behind the
// same interface.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*services.Session
	trials   []*services.Trial
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{sessions: map[string]*services.Session{}}
}

func (m *memoryStore) AddSession(s *services.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.SessionID] = &cp
}

func (m *memoryStore) GetSession(id string) *services.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess := m.sessions[id]
	if sess == nil {
		return nil
	}
	cp := *sess
	return &cp
}

func (m *memoryStore) CompleteSession(id string, endTime int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessions[id]
	if sess == nil {
		return false
	}
	sess.Status = services.StatusCompleted
	sess.EndTime = endTime
	return true
}

func (m *memoryStore) ListSessions() []*services.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*services.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		cp := *sess
		out = append(out, &cp)
	}
	return out
}

// AddTrial appends the trial and advances the owning session's counters under
// one write lock, so concurrent submissions to the same session cannot lose
// counter updates.
func (m *memoryStore) AddTrial(t *services.Trial) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := m.sessions[t.SessionID]
	if sess == nil {
		return false
	}
	m.trials = append(m.trials, t)
	sess.TotalTrials++
	sess.CompletedTrials++
	return true
}

func (m *memoryStore) ListTrials() []*services.Trial {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Trials are immutable once appended; sharing the elements is safe.
	out := make([]*services.Trial, 0, len(m.trials))
	return append(out, m.trials...)
}

func (m *memoryStore) CountSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryStore) CountTrials() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trials)
}
