package memory

import (
	"context"
	"sync"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

type sessionState struct {
	caller  *domain.CallerContext
	contact *domain.Contact
	outcome *domain.TicketFetchState
}

// StateStore keeps the shared panel state in process memory. It is the
// default store for a single instance deployment.
type StateStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore creates an empty in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{sessions: make(map[string]*sessionState)}
}

// sessionLocked returns the state of sessionID, creating it. Callers hold mu.
func (s *StateStore) sessionLocked(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}

func (s *StateStore) CallData(ctx context.Context, sessionID string) (domain.CallerContext, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.caller == nil {
		return domain.CallerContext{}, false, nil
	}
	return *st.caller, true, nil
}

func (s *StateStore) SetCallData(ctx context.Context, sessionID string, caller domain.CallerContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionLocked(sessionID).caller = &caller
	return nil
}

// ClearCallData forgets the caller and the lookup outcome tied to it.
func (s *StateStore) ClearCallData(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[sessionID]; ok {
		st.caller = nil
		st.outcome = nil
	}
	return nil
}

// Contact returns nil when no contact has been matched yet.
func (s *StateStore) Contact(ctx context.Context, sessionID string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.contact == nil {
		return nil, nil
	}
	c := *st.contact
	return &c, nil
}

func (s *StateStore) SetContact(ctx context.Context, sessionID string, contact domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionLocked(sessionID).contact = &contact
	return nil
}

func (s *StateStore) SaveFetchOutcome(ctx context.Context, sessionID string, state domain.TicketFetchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.Phase == domain.PhaseLoaded {
		state = domain.LoadedState(state.Tickets)
	}
	s.sessionLocked(sessionID).outcome = &state
	return nil
}

func (s *StateStore) FetchOutcome(ctx context.Context, sessionID string) (domain.TicketFetchState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok || st.outcome == nil {
		return domain.TicketFetchState{}, false, nil
	}
	return *st.outcome, true, nil
}

func (s *StateStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Ping always succeeds.
func (s *StateStore) Ping(ctx context.Context) error {
	return nil
}

// SessionCount reports how many sessions hold state.
func (s *StateStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
