package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/caller-panel/internal/core/domain"
)

// PanelSession is the pair of panels shown to one agent. The two panels
// share nothing but the caller's phone number.
type PanelSession struct {
	ID     string
	Caller *CallerPanel
	Calls  *RecentCallsPanel

	lastSeen time.Time
}

// SessionManager creates panel sessions on first use and expires idle ones.
type SessionManager struct {
	deps    Collaborators
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*PanelSession

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionManager creates a manager. An idleTTL of zero disables expiry.
func NewSessionManager(deps Collaborators, idleTTL time.Duration, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		deps:     deps,
		idleTTL:  idleTTL,
		logger:   logger.With("component", "session_manager"),
		now:      time.Now,
		sessions: make(map[string]*PanelSession),
		stop:     make(chan struct{}),
	}
}

// Get returns the session for id, creating it if needed. A new session
// picks up an active call already recorded in the shared store.
func (m *SessionManager) Get(ctx context.Context, id string) (*PanelSession, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		session.lastSeen = m.now()
		m.mu.Unlock()
		return session, nil
	}
	session = &PanelSession{
		ID:       id,
		Caller:   NewCallerPanel(id, m.deps, m.logger),
		Calls:    NewRecentCallsPanel(id, m.deps, m.logger),
		lastSeen: m.now(),
	}
	m.sessions[id] = session
	m.mu.Unlock()

	m.logger.Info("panel session created", "session_id", id)
	m.restore(ctx, session)
	return session, nil
}

func (m *SessionManager) restore(ctx context.Context, session *PanelSession) {
	caller, ok, err := m.deps.Store.CallData(ctx, session.ID)
	if err != nil {
		m.logger.Warn("failed to read call data", "session_id", session.ID, "error", err)
		return
	}
	if ok && caller.HasCall() && !session.Caller.restoreCaller(ctx, caller) {
		m.logger.Debug("stored call data superseded", "session_id", session.ID)
	}
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *SessionManager) Sweep(ctx context.Context) int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*PanelSession
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Caller.Shutdown()
		if err := m.deps.Store.DeleteSession(ctx, s.ID); err != nil {
			m.logger.Warn("failed to delete session state", "session_id", s.ID, "error", err)
		}
		m.logger.Info("panel session expired", "session_id", s.ID)
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until Shutdown.
func (m *SessionManager) StartSweeper(interval time.Duration) {
	if m.idleTTL <= 0 || interval <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(context.Background())
			case <-m.stop:
				return
			}
		}
	}()
}

// Shutdown stops the sweeper and waits for in-flight lookups.
func (m *SessionManager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.mu.Lock()
	sessions := make([]*PanelSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Caller.Shutdown()
	}
}
