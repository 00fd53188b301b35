package scheduler

import (
	"context"
	"sync"
	"time"

	"barakah/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager tracks the live foreground sessions of every user.
type Manager struct {
	deps Deps
	cfg  Config

	mu       sync.RWMutex
	sessions map[string]map[string]*Session
}

func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	return &Manager{
		deps:     deps,
		cfg:      cfg,
		sessions: make(map[string]map[string]*Session),
	}
}

// Open creates and arms a session for the user. A session without granted
// permission is refused with ErrPermissionDenied and never registered.
func (m *Manager) Open(ctx context.Context, ownerID string, permission Permission, loc *time.Location, surface notification.Surface) (*Session, error) {
	cfg := m.cfg
	if loc != nil {
		cfg.Location = loc
	}
	s := NewSession(uuid.NewString(), ownerID, permission, cfg, m.deps, surface)
	if err := s.Arm(ctx, m.deps.Clock.Now()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.sessions[ownerID] == nil {
		m.sessions[ownerID] = make(map[string]*Session)
	}
	m.sessions[ownerID][s.id] = s
	m.mu.Unlock()

	m.deps.Logger.Info("foreground session opened",
		zap.String("session_id", s.id),
		zap.String("owner_id", ownerID),
		zap.String("timezone", cfg.Location.String()))
	return s, nil
}

// Close cancels the session's pending events and forgets it.
func (m *Manager) Close(s *Session) {
	cancelled := s.CancelAll()

	m.mu.Lock()
	if byID := m.sessions[s.ownerID]; byID != nil {
		delete(byID, s.id)
		if len(byID) == 0 {
			delete(m.sessions, s.ownerID)
		}
	}
	m.mu.Unlock()

	m.deps.Logger.Info("foreground session closed",
		zap.String("session_id", s.id),
		zap.String("owner_id", s.ownerID),
		zap.Int("cancelled_events", cancelled))
}

// Refresh asks every session of the user to recompute its entity set and
// returns how many sessions were notified.
func (m *Manager) Refresh(ownerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions[ownerID] {
		s.RequestRefresh()
	}
	return len(m.sessions[ownerID])
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, byID := range m.sessions {
		n += len(byID)
	}
	return n
}
