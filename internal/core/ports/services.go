package ports

import (
	"context"
	"io"

	"github.com/lorrc/caller-panel/internal/core/domain"
)

// PanelService defines the caller panel operations of an agent session.
type PanelService interface {
	CallerView(ctx context.Context, sessionID string) (domain.CallerPanelView, error)
	SetCaller(ctx context.Context, sessionID string, caller domain.CallerContext) (domain.CallerPanelView, error)
	EndCall(ctx context.Context, sessionID string) (domain.CallerPanelView, error)
	RefreshTickets(ctx context.Context, sessionID string) (domain.CallerPanelView, error)
	CreateTicket(ctx context.Context, sessionID string, params domain.NewTicketParams) (domain.Ticket, error)
	OpenTicket(ctx context.Context, sessionID string, ticketID int64) error
	SetContact(ctx context.Context, sessionID string, contact domain.Contact) error
	OpenContact(ctx context.Context, sessionID string) error

	OpenDraft(ctx context.Context, sessionID string, ticketID int64) (domain.NoteDraft, error)
	UpdateDraft(ctx context.Context, sessionID string, text string) (domain.NoteDraft, error)
	CancelDraft(ctx context.Context, sessionID string) error
	SubmitNote(ctx context.Context, sessionID string, ticketID int64, text string) error
}

// CallLogService defines the recent calls operations of an agent session.
type CallLogService interface {
	SetCalls(ctx context.Context, sessionID string, calls []domain.RawCallRecord) (int, error)
	ImportCalls(ctx context.Context, sessionID string, r io.Reader) (int, error)
	RecentCalls(ctx context.Context, sessionID string, query string) (domain.RecentCallsView, error)
	Dial(ctx context.Context, sessionID string, callID string) error
}

// EventBroadcaster defines the port for pushing events to connected panels.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// Navigator asks the host helpdesk to open a ticket or user view.
// Fire-and-forget: nothing is returned and nothing waits on the host.
type Navigator interface {
	RouteTo(ctx context.Context, sessionID string, target domain.NavigationTarget, id string)
}

// CallDialer hands an outbound call request to the telephony widget.
// One-way: there is no acknowledgement channel.
type CallDialer interface {
	PlaceCall(ctx context.Context, sessionID string, number string)
}
