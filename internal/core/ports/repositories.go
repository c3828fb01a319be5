package ports

import (
	"context"
	"io"

	"github.com/lorrc/caller-panel/internal/core/domain"
)

// HelpdeskClient is the helpdesk platform collaborator.
type HelpdeskClient interface {
	// FetchTicketsByPhone looks up the tickets of the requester with the
	// given phone number. A returned error and a lookup with OK=false are
	// both failures; the latter carries the collaborator's own message.
	FetchTicketsByPhone(ctx context.Context, phone string) (domain.TicketLookup, error)
	// AddPrivateNote appends a non-public comment to a ticket.
	AddPrivateNote(ctx context.Context, ticketID int64, body string) error
	CreateTicket(ctx context.Context, params domain.NewTicketParams) (domain.Ticket, error)
}

// StateStore is the shared application state the panel reads its inputs
// from and writes lookup outcomes back to.
type StateStore interface {
	CallData(ctx context.Context, sessionID string) (domain.CallerContext, bool, error)
	SetCallData(ctx context.Context, sessionID string, caller domain.CallerContext) error
	ClearCallData(ctx context.Context, sessionID string) error
	Contact(ctx context.Context, sessionID string) (*domain.Contact, error)
	SetContact(ctx context.Context, sessionID string, contact domain.Contact) error
	SaveFetchOutcome(ctx context.Context, sessionID string, state domain.TicketFetchState) error
	FetchOutcome(ctx context.Context, sessionID string) (domain.TicketFetchState, bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// CallLogImporter reads a call-log export into raw records.
type CallLogImporter interface {
	Import(ctx context.Context, r io.Reader) ([]domain.RawCallRecord, error)
}
