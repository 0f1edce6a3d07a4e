package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csmajors/bracket-predictor/internal/model"
)

// Session binds one scanned page to its engine and status board. The cache
// lives for the session: re-scanning replaces the descriptors but keeps
// prior results.
type Session struct {
	ID        string
	URL       string
	CreatedAt time.Time

	mu          sync.Mutex
	descriptors []model.MatchDescriptor
	engine      *Engine
	board       *Board
}

// Descriptors returns the session's current descriptors, sorted by round
// index then id for stable output.
func (s *Session) Descriptors() []model.MatchDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MatchDescriptor, len(s.descriptors))
	copy(out, s.descriptors)
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundIndex != out[j].RoundIndex {
			return out[i].RoundIndex < out[j].RoundIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Replace swaps in a fresh scan's descriptors.
func (s *Session) Replace(descriptors []model.MatchDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors = descriptors
}

// Engine returns the session's engine.
func (s *Session) Engine() *Engine { return s.engine }

// Board returns the session's status board.
func (s *Session) Board() *Board { return s.board }

// Manager owns the live sessions. Sessions are in-memory only; a server
// restart drops them, matching the page-session scope of the cache.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	newEngine func(sink Sink) *Engine
}

// NewManager creates a Manager. newEngine constructs a session-scoped engine
// wired to the given sink.
func NewManager(newEngine func(sink Sink) *Engine) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		newEngine: newEngine,
	}
}

// Create registers a new session for a scanned page.
func (m *Manager) Create(url string, descriptors []model.MatchDescriptor) *Session {
	board := NewBoard()
	s := &Session{
		ID:          uuid.NewString(),
		URL:         url,
		CreatedAt:   time.Now().UTC(),
		descriptors: descriptors,
		engine:      m.newEngine(board),
		board:       board,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
