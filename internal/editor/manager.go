package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ryanbastic/go-pagegrid/internal/content"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("editing session not found")

// Manager is the registry of open editing sessions. Sessions idle for
// longer than the idle timeout are dropped by Sweep; unsaved changes in a
// dropped session are lost.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Session
	idleTimeout time.Duration
	opts        []Option
	logger      *slog.Logger
	now         func() time.Time
}

// NewManager creates a Manager. opts are applied to every session it opens.
func NewManager(idleTimeout time.Duration, logger *slog.Logger, opts ...Option) *Manager {
	return &Manager{
		sessions:    make(map[uuid.UUID]*Session),
		idleTimeout: idleTimeout,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Open starts a session over tree and registers it.
func (m *Manager) Open(pageID *uuid.UUID, tree content.Tree) *Session {
	s := NewSession(pageID, tree, m.opts...)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("editing session opened", "session_id", s.ID, "page_id", pageID)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close drops the session with id.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("editing session closed", "session_id", id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions whose last activity is older than the idle timeout
// at now, and returns how many were dropped. A zero timeout disables it.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) <= m.idleTimeout {
			continue
		}
		if s.Dirty() {
			m.logger.Warn("dropping idle session with unsaved changes", "session_id", id)
		}
		delete(m.sessions, id)
		dropped++
	}
	return dropped
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.now()); n > 0 {
				m.logger.Info("idle editing sessions dropped", "count", n)
			}
		}
	}
}
