package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// Collaborators are the external systems a panel session talks to.
// Helpdesk may be nil; every other field is required.
type Collaborators struct {
	Helpdesk    ports.HelpdeskClient
	Store       ports.StateStore
	Broadcaster ports.EventBroadcaster
	Navigator   ports.Navigator
	Dialer      ports.CallDialer
	Importer    ports.CallLogImporter
}

// CallerPanel ties the caller context of one session to its ticket lookup
// and note draft.
type CallerPanel struct {
	sessionID string
	deps      Collaborators
	fetcher   *TicketFetchController
	notes     *NoteComposer
	logger    *slog.Logger

	// changeMu serializes caller changes so the caller shown and the
	// lookup in flight always belong to the same call.
	changeMu sync.Mutex
	// touched is set once an agent action changed the caller.
	touched bool

	mu     sync.Mutex
	caller domain.CallerContext
}

// NewCallerPanel creates the caller panel of a session.
func NewCallerPanel(sessionID string, deps Collaborators, logger *slog.Logger) *CallerPanel {
	p := &CallerPanel{
		sessionID: sessionID,
		deps:      deps,
		logger:    logger.With("component", "caller_panel", "session_id", sessionID),
	}
	p.fetcher = NewTicketFetchController(deps.Helpdesk, p.onFetchState, p.logger)
	p.notes = NewNoteComposer(deps.Helpdesk, p.onDraft, p.onNotice, p.logger)
	return p
}

// Caller returns the active caller context.
func (p *CallerPanel) Caller() domain.CallerContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.caller
}

// SetCaller records the caller reported by the telephony layer and starts
// the ticket lookup when the number changed.
func (p *CallerPanel) SetCaller(ctx context.Context, caller domain.CallerContext) domain.CallerPanelView {
	if err := p.deps.Store.SetCallData(ctx, p.sessionID, caller); err != nil {
		p.logger.Warn("failed to record call data", "error", err)
	}

	p.changeMu.Lock()
	p.touched = true
	p.applyCaller(ctx, caller)
	p.changeMu.Unlock()
	return p.View(ctx)
}

// restoreCaller adopts a caller read back from the shared store. It does
// nothing once an agent action has changed the caller.
func (p *CallerPanel) restoreCaller(ctx context.Context, caller domain.CallerContext) bool {
	p.changeMu.Lock()
	defer p.changeMu.Unlock()
	if p.touched {
		return false
	}
	p.applyCaller(ctx, caller)
	return true
}

// applyCaller must be called with changeMu held.
func (p *CallerPanel) applyCaller(ctx context.Context, caller domain.CallerContext) {
	p.mu.Lock()
	previous := p.caller
	p.caller = caller
	p.mu.Unlock()

	numberChanged := previous.CallerNumber != caller.CallerNumber
	if numberChanged {
		// A draft belongs to the previous caller's tickets.
		p.notes.Cancel()
	}
	if numberChanged || p.fetcher.State().Phase == domain.PhaseIdle {
		p.fetcher.Watch(ctx, caller.CallerNumber)
	}
}

// EndCall clears the caller and returns the panel to Idle.
func (p *CallerPanel) EndCall(ctx context.Context) domain.CallerPanelView {
	if err := p.deps.Store.ClearCallData(ctx, p.sessionID); err != nil {
		p.logger.Warn("failed to clear call data", "error", err)
	}

	p.changeMu.Lock()
	p.touched = true
	p.mu.Lock()
	p.caller = domain.CallerContext{}
	p.mu.Unlock()
	p.notes.Cancel()
	p.fetcher.Reset()
	p.changeMu.Unlock()
	return p.View(ctx)
}

// Refresh repeats the ticket lookup for the active caller.
func (p *CallerPanel) Refresh(ctx context.Context) domain.CallerPanelView {
	p.changeMu.Lock()
	p.fetcher.Refresh(ctx)
	p.changeMu.Unlock()
	return p.View(ctx)
}

// CreateTicket escalates the call to a new ticket and prepends it to the
// loaded list. The list is not refetched.
func (p *CallerPanel) CreateTicket(ctx context.Context, params domain.NewTicketParams) (domain.Ticket, error) {
	if err := params.Validate(); err != nil {
		return domain.Ticket{}, err
	}
	if p.deps.Helpdesk == nil {
		return domain.Ticket{}, apperrors.ErrHelpdeskUnavailable
	}

	caller := p.Caller()
	if params.RequesterPhone == "" {
		params.RequesterPhone = caller.CallerNumber
	}
	if params.RequesterName == "" {
		params.RequesterName = caller.CallerName
	}
	if params.Priority == "" {
		params.Priority = domain.PriorityNormal
	}

	ticket, err := p.deps.Helpdesk.CreateTicket(ctx, params)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	if !p.fetcher.PrependTicket(ticket) {
		p.logger.Debug("created ticket not prepended, list not loaded", "ticket_id", ticket.ID)
	}
	p.emit(domain.EventTicketCreated, ticket)
	p.logger.Info("ticket created", "ticket_id", ticket.ID)
	return ticket, nil
}

// OpenTicket asks the host to navigate to the ticket.
func (p *CallerPanel) OpenTicket(ctx context.Context, ticketID int64) error {
	if ticketID <= 0 {
		return apperrors.ErrTicketIDRequired
	}
	p.deps.Navigator.RouteTo(ctx, p.sessionID, domain.NavigateTicket, strconv.FormatInt(ticketID, 10))
	return nil
}

// SetContact records the helpdesk user matched to the caller.
func (p *CallerPanel) SetContact(ctx context.Context, contact domain.Contact) error {
	if err := p.deps.Store.SetContact(ctx, p.sessionID, contact); err != nil {
		return fmt.Errorf("store contact: %w", err)
	}
	return nil
}

// OpenContact asks the host to navigate to the caller's user record.
func (p *CallerPanel) OpenContact(ctx context.Context) error {
	contact, err := p.deps.Store.Contact(ctx, p.sessionID)
	if err != nil {
		return fmt.Errorf("load contact: %w", err)
	}
	if contact == nil || contact.ID == "" {
		return apperrors.ErrContactNotFound
	}
	p.deps.Navigator.RouteTo(ctx, p.sessionID, domain.NavigateUser, contact.ID)
	return nil
}

// OpenDraft starts composing a note on ticketID.
func (p *CallerPanel) OpenDraft(ticketID int64) (domain.NoteDraft, error) {
	if ticketID <= 0 {
		return domain.NoteDraft{}, apperrors.ErrTicketIDRequired
	}
	return p.notes.Open(ticketID), nil
}

// UpdateDraft replaces the text of the open draft.
func (p *CallerPanel) UpdateDraft(text string) (domain.NoteDraft, error) {
	return p.notes.SetText(text)
}

// CancelDraft closes the draft without submitting.
func (p *CallerPanel) CancelDraft() {
	p.notes.Cancel()
}

// SubmitNote adds a private note to ticketID.
func (p *CallerPanel) SubmitNote(ctx context.Context, ticketID int64, text string) error {
	if ticketID <= 0 {
		return apperrors.ErrTicketIDRequired
	}
	return p.notes.Submit(ctx, ticketID, text)
}

// View renders the panel.
func (p *CallerPanel) View(ctx context.Context) domain.CallerPanelView {
	contact, err := p.deps.Store.Contact(ctx, p.sessionID)
	if err != nil {
		p.logger.Warn("failed to load contact", "error", err)
		contact = nil
	}
	return domain.BuildCallerPanelView(p.Caller(), contact, p.fetcher.State(), p.notes.Draft())
}

// Shutdown waits for background lookups.
func (p *CallerPanel) Shutdown() {
	p.fetcher.Shutdown()
}

// onFetchState pushes the state to the panel and writes settled outcomes
// back to the shared store.
func (p *CallerPanel) onFetchState(state domain.TicketFetchState) {
	p.emit(domain.EventFetchStateChanged, state)

	if state.Phase != domain.PhaseLoaded && state.Phase != domain.PhaseFailed {
		return
	}
	if err := p.deps.Store.SaveFetchOutcome(context.Background(), p.sessionID, state); err != nil {
		p.logger.Warn("failed to save fetch outcome", "error", err)
	}
}

func (p *CallerPanel) onDraft(draft domain.NoteDraft) {
	p.emit(domain.EventDraftChanged, draft)
}

func (p *CallerPanel) onNotice(notice domain.NoticePayload) {
	p.emit(domain.EventNotice, notice)
}

func (p *CallerPanel) emit(eventType domain.EventType, payload interface{}) {
	event := domain.Event{
		Type:      eventType,
		Payload:   payload,
		SessionID: p.sessionID,
	}
	if err := p.deps.Broadcaster.Broadcast(event); err != nil {
		p.logger.Warn("failed to broadcast event", "event_type", eventType, "error", err)
	}
}
