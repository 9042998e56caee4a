package form

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager handles dialog session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Open opens a dialog and registers it.
func (m *Manager) Open(ctx context.Context, req OpenRequest, deps Deps, opts ...Option) (*Session, error) {
	if deps.Logger == nil {
		deps.Logger = m.logger
	}
	s, err := Open(ctx, req, deps, opts...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get retrieves a session by ID. Expired sessions are closed and removed.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(m.maxAge, m.idleTimeout, time.Now()) {
		m.Remove(id)
		return nil, false
	}
	return s, true
}

// Remove closes and deletes a session. Any load still in flight is
// discarded when it completes.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes closed, expired and idle sessions and returns how many it
// removed.
func (m *Manager) Cleanup() int {
	now := time.Now()
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.State() == StateClosed || s.expired(m.maxAge, m.idleTimeout, now) {
			delete(m.sessions, id)
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()
	for _, s := range stale {
		s.close()
	}
	if len(stale) > 0 {
		m.logger.Debug("dialog sessions cleaned up", "removed", len(stale))
	}
	return len(stale)
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
			m.Cleanup()
		}
	}
}
