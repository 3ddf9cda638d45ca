package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"geoint-analysis-service/audio"
	"geoint-analysis-service/comparison"
	"geoint-analysis-service/metrics"
	"geoint-analysis-service/models"
)

// Session bundles one operator's state store with the widgets that carry
// their own timers: the comparison renderer and the audio player.
type Session struct {
	ID       string
	Store    *Store
	Renderer *comparison.Renderer
	Player   *audio.Player
}

// Close releases the session's timers.
func (s *Session) Close() {
	s.Renderer.Close()
	s.Player.Close()
}

// Manager hands out in-memory sessions keyed by id. There is no
// persistence; a session lives as long as the process does or until it is
// dropped.
type Manager struct {
	mu              sync.Mutex
	sessions        map[string]*Session
	limits          Limits
	flickerInterval time.Duration
}

func NewManager(limits Limits, flickerInterval time.Duration) *Manager {
	return &Manager{
		sessions:        make(map[string]*Session),
		limits:          limits,
		flickerInterval: flickerInterval,
	}
}

// GetOrCreate returns the session for id, creating it on first use. An
// empty id is given a fresh uuid.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.New().String()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:       id,
		Store:    NewStore(m.limits),
		Renderer: comparison.NewRenderer(m.flickerInterval),
		Player:   audio.NewPlayer(),
	}
	s.Store.AppendLog("System initialized. Version 2.0. Ready.", models.LogSuccess)
	m.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return s
}

// Drop closes and removes a session. Unknown ids are ignored.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Close tears down every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	metrics.SessionsActive.Set(0)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
