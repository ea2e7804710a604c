package game

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound means no game has been started under the given ID
var ErrSessionNotFound = errors.New("game session not found")

// ErrSessionBusy means an operation is already in flight for the session
var ErrSessionBusy = errors.New("game session is busy")

// Manager is a by-ID session registry. The engine itself is single-writer
// and sequential; the manager adds the per-session serialization that
// concurrent HTTP callers need.
// ⭐ SSOT: 세션 수명 관리는 여기서만
type Manager struct {
	newSession func() *Session

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	mu      sync.Mutex
	session *Session
}

// NewManager creates a Manager that builds sessions with factory
func NewManager(factory func() *Session) *Manager {
	return &Manager{
		newSession: factory,
		sessions:   make(map[string]*managedSession),
	}
}

// Start starts (or restarts) the game under id
func (m *Manager) Start(ctx context.Context, id, symbol string) (*Result, error) {
	entry := m.entry(id, true)

	// Serialize against other operations on the same session; the fetch
	// inside Start is the engine's only suspension point, so holding the
	// session lock across it is what rejects concurrent guesses.
	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.session.Start(ctx, symbol)
}

// Guess applies a guess to the game under id
func (m *Manager) Guess(id string, direction Direction) (*Result, error) {
	entry := m.entry(id, false)
	if entry == nil {
		return nil, ErrSessionNotFound
	}

	if !entry.mu.TryLock() {
		// A Start fetch is outstanding; reject rather than queue
		return nil, ErrSessionBusy
	}
	defer entry.mu.Unlock()

	return entry.session.Guess(direction), nil
}

// State returns the current window and score of the game under id
func (m *Manager) State(id string) (*Result, error) {
	entry := m.entry(id, false)
	if entry == nil {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.session.State(), nil
}

// Drop discards the game under id
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// entry returns the managed session for id, creating it when create is set
func (m *Manager) entry(id string, create bool) *managedSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok && create {
		entry = &managedSession{session: m.newSession()}
		m.sessions[id] = entry
	}
	return entry
}
