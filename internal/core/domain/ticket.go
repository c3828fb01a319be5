package domain

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
)

// Validation constants
const (
	MaxSubjectLength     = 255
	MaxDescriptionLength = 10000
)

// TicketStatus is the helpdesk status of a ticket as shown in the panel.
type TicketStatus string

const (
	StatusOpen    TicketStatus = "open"
	StatusPending TicketStatus = "pending"
	StatusSolved  TicketStatus = "solved"
	StatusClosed  TicketStatus = "closed"
	StatusOther   TicketStatus = "other"
)

// ParseTicketStatus maps the helpdesk vocabulary onto a TicketStatus.
// Matching is case-insensitive; anything unrecognised becomes StatusOther.
func ParseTicketStatus(s string) TicketStatus {
	switch TicketStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOpen:
		return StatusOpen
	case StatusPending:
		return StatusPending
	case StatusSolved:
		return StatusSolved
	case StatusClosed:
		return StatusClosed
	default:
		return StatusOther
	}
}

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityHigh   TicketPriority = "high"
	PriorityMedium TicketPriority = "medium"
	PriorityLow    TicketPriority = "low"
	PriorityNormal TicketPriority = "normal"
)

// ParseTicketPriority maps the helpdesk vocabulary onto a TicketPriority.
// Empty or unknown priorities are treated as normal.
func ParseTicketPriority(s string) TicketPriority {
	switch TicketPriority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityMedium:
		return PriorityMedium
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// IsValid reports whether p is one of the known priorities.
func (p TicketPriority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityNormal:
		return true
	}
	return false
}

// Label is the badge text for the priority.
func (p TicketPriority) Label() string {
	if p == "" {
		return "Normal"
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Ticket is the panel's display-only copy of a helpdesk ticket.
type Ticket struct {
	ID       int64          `json:"id"`
	Subject  string         `json:"subject"`
	Status   TicketStatus   `json:"status"`
	Priority TicketPriority `json:"priority"`
}

// NewTicketParams is the input of the escalation flow.
type NewTicketParams struct {
	Subject        string
	Description    string
	Priority       TicketPriority
	RequesterPhone string
	RequesterName  string
}

// Validate enforces the rules a new ticket must satisfy before it is sent
// to the helpdesk.
func (p NewTicketParams) Validate() error {
	if strings.TrimSpace(p.Subject) == "" {
		return apperrors.ErrSubjectRequired
	}
	if utf8.RuneCountInString(p.Subject) > MaxSubjectLength {
		return apperrors.ErrSubjectTooLong
	}
	if p.Priority != "" && !p.Priority.IsValid() {
		return apperrors.ErrInvalidPriority
	}
	return nil
}
