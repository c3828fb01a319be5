package services

import (
	"context"
	"io"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// PanelService exposes the panels of every agent session by session id.
type PanelService struct {
	sessions *SessionManager
}

var (
	_ ports.PanelService   = (*PanelService)(nil)
	_ ports.CallLogService = (*PanelService)(nil)
)

// NewPanelService creates a panel service over sessions.
func NewPanelService(sessions *SessionManager) *PanelService {
	return &PanelService{sessions: sessions}
}

func (s *PanelService) CallerView(ctx context.Context, sessionID string) (domain.CallerPanelView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.CallerPanelView{}, err
	}
	return session.Caller.View(ctx), nil
}

func (s *PanelService) SetCaller(ctx context.Context, sessionID string, caller domain.CallerContext) (domain.CallerPanelView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.CallerPanelView{}, err
	}
	return session.Caller.SetCaller(ctx, caller), nil
}

func (s *PanelService) EndCall(ctx context.Context, sessionID string) (domain.CallerPanelView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.CallerPanelView{}, err
	}
	return session.Caller.EndCall(ctx), nil
}

func (s *PanelService) RefreshTickets(ctx context.Context, sessionID string) (domain.CallerPanelView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.CallerPanelView{}, err
	}
	return session.Caller.Refresh(ctx), nil
}

func (s *PanelService) CreateTicket(ctx context.Context, sessionID string, params domain.NewTicketParams) (domain.Ticket, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Ticket{}, err
	}
	return session.Caller.CreateTicket(ctx, params)
}

func (s *PanelService) OpenTicket(ctx context.Context, sessionID string, ticketID int64) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.Caller.OpenTicket(ctx, ticketID)
}

func (s *PanelService) SetContact(ctx context.Context, sessionID string, contact domain.Contact) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.Caller.SetContact(ctx, contact)
}

func (s *PanelService) OpenContact(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.Caller.OpenContact(ctx)
}

func (s *PanelService) OpenDraft(ctx context.Context, sessionID string, ticketID int64) (domain.NoteDraft, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.NoteDraft{}, err
	}
	return session.Caller.OpenDraft(ticketID)
}

func (s *PanelService) UpdateDraft(ctx context.Context, sessionID string, text string) (domain.NoteDraft, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.NoteDraft{}, err
	}
	return session.Caller.UpdateDraft(text)
}

func (s *PanelService) CancelDraft(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Caller.CancelDraft()
	return nil
}

func (s *PanelService) SubmitNote(ctx context.Context, sessionID string, ticketID int64, text string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.Caller.SubmitNote(ctx, ticketID, text)
}

func (s *PanelService) SetCalls(ctx context.Context, sessionID string, calls []domain.RawCallRecord) (int, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return session.Calls.SetCalls(calls), nil
}

func (s *PanelService) ImportCalls(ctx context.Context, sessionID string, r io.Reader) (int, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return session.Calls.Import(ctx, r)
}

func (s *PanelService) RecentCalls(ctx context.Context, sessionID string, query string) (domain.RecentCallsView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.RecentCallsView{}, err
	}
	return session.Calls.View(query), nil
}

func (s *PanelService) Dial(ctx context.Context, sessionID string, callID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.Calls.Dial(ctx, callID)
}
