package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// maxTicketsPerLookup caps the tickets returned for one phone number.
const maxTicketsPerLookup = 100

// HelpdeskRepository serves the panel from a self-hosted service-desk
// database instead of a hosted helpdesk.
type HelpdeskRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

// Ensure implementation matches the interface.
var _ ports.HelpdeskClient = (*HelpdeskRepository)(nil)

// NewHelpdeskRepository creates a new helpdesk repository.
func NewHelpdeskRepository(pool *pgxpool.Pool) *HelpdeskRepository {
	return &HelpdeskRepository{
		pool: pool,
		tm:   NewTransactionManager(pool),
	}
}

// FetchTicketsByPhone lists the tickets requested from phone, most recently
// updated first. Query failures are returned as errors.
func (r *HelpdeskRepository) FetchTicketsByPhone(ctx context.Context, phone string) (domain.TicketLookup, error) {
	const query = `
SELECT id, subject, status, priority
FROM tickets
WHERE requester_phone = $1
ORDER BY updated_at DESC, id DESC
LIMIT $2
`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, phone, maxTicketsPerLookup)
	if err != nil {
		return domain.TicketLookup{}, fmt.Errorf("query tickets by phone: %w", err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var (
			t        domain.Ticket
			status   string
			priority string
		)
		if err := rows.Scan(&t.ID, &t.Subject, &status, &priority); err != nil {
			return domain.TicketLookup{}, fmt.Errorf("scan ticket: %w", err)
		}
		t.Status = domain.ParseTicketStatus(status)
		t.Priority = domain.ParseTicketPriority(priority)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return domain.TicketLookup{}, fmt.Errorf("iterate tickets: %w", err)
	}

	return domain.TicketLookup{OK: true, Tickets: tickets}, nil
}

// AddPrivateNote stores an internal comment and touches the ticket.
func (r *HelpdeskRepository) AddPrivateNote(ctx context.Context, ticketID int64, body string) error {
	return r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE tickets SET updated_at = NOW() WHERE id = $1`, ticketID)
		if err != nil {
			return fmt.Errorf("touch ticket: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrTicketNotFound
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_comments (ticket_id, body, is_public) VALUES ($1, $2, FALSE)`,
			ticketID, body,
		); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	})
}

// CreateTicket inserts an open ticket. A description becomes its first
// public comment.
func (r *HelpdeskRepository) CreateTicket(ctx context.Context, params domain.NewTicketParams) (domain.Ticket, error) {
	priority := params.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	var ticket domain.Ticket
	err := r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var status, storedPriority string
		err := tx.QueryRow(ctx, `
INSERT INTO tickets (subject, description, priority, requester_phone, requester_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, subject, status, priority
`,
			params.Subject, params.Description, string(priority), params.RequesterPhone, params.RequesterName,
		).Scan(&ticket.ID, &ticket.Subject, &status, &storedPriority)
		if err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		ticket.Status = domain.ParseTicketStatus(status)
		ticket.Priority = domain.ParseTicketPriority(storedPriority)

		if params.Description == "" {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_comments (ticket_id, body, is_public) VALUES ($1, $2, TRUE)`,
			ticket.ID, params.Description,
		); err != nil {
			return fmt.Errorf("insert description: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	return ticket, nil
}

// PrivateNotes returns the internal comments of a ticket, oldest first.
func (r *HelpdeskRepository) PrivateNotes(ctx context.Context, ticketID int64) ([]string, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx,
		`SELECT body FROM ticket_comments WHERE ticket_id = $1 AND NOT is_public ORDER BY created_at, id`,
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}

	notes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("collect notes: %w", err)
	}
	return notes, nil
}

// Ping checks database connectivity.
func (r *HelpdeskRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
