package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// DraftListener is told about every change of the draft.
type DraftListener func(draft domain.NoteDraft)

// NoticeListener receives transient notices for the agent.
type NoticeListener func(notice domain.NoticePayload)

// NoteComposer owns the single note draft of a session and submits it as a
// private comment.
type NoteComposer struct {
	client   ports.HelpdeskClient
	onDraft  DraftListener
	onNotice NoticeListener
	logger   *slog.Logger

	mu    sync.Mutex
	draft domain.NoteDraft
}

// NewNoteComposer creates a composer with no open draft.
func NewNoteComposer(client ports.HelpdeskClient, onDraft DraftListener, onNotice NoticeListener, logger *slog.Logger) *NoteComposer {
	if onDraft == nil {
		onDraft = func(domain.NoteDraft) {}
	}
	if onNotice == nil {
		onNotice = func(domain.NoticePayload) {}
	}
	return &NoteComposer{
		client:   client,
		onDraft:  onDraft,
		onNotice: onNotice,
		logger:   logger.With("component", "note_composer"),
	}
}

// Draft returns a copy of the current draft.
func (n *NoteComposer) Draft() domain.NoteDraft {
	n.mu.Lock()
	defer n.mu.Unlock()
	return copyDraft(n.draft)
}

// Open targets ticketID. Any unsaved text on another ticket is discarded.
func (n *NoteComposer) Open(ticketID int64) domain.NoteDraft {
	n.mu.Lock()
	if n.draft.Targets(ticketID) {
		draft := copyDraft(n.draft)
		n.mu.Unlock()
		return draft
	}
	if n.draft.IsOpen() && n.draft.Text != "" {
		n.logger.Debug("discarding unsaved draft",
			"ticket_id", *n.draft.TargetTicketID,
			"next_ticket_id", ticketID,
		)
	}
	id := ticketID
	n.draft = domain.NoteDraft{TargetTicketID: &id}
	draft := copyDraft(n.draft)
	n.mu.Unlock()

	n.onDraft(draft)
	return draft
}

// SetText replaces the text of the open draft.
func (n *NoteComposer) SetText(text string) (domain.NoteDraft, error) {
	n.mu.Lock()
	if !n.draft.IsOpen() {
		n.mu.Unlock()
		return domain.NoteDraft{}, apperrors.ErrNoDraftOpen
	}
	n.draft.Text = text
	draft := copyDraft(n.draft)
	n.mu.Unlock()

	n.onDraft(draft)
	return draft, nil
}

// Cancel closes the draft without submitting it.
func (n *NoteComposer) Cancel() {
	n.mu.Lock()
	if !n.draft.IsOpen() {
		n.mu.Unlock()
		return
	}
	n.draft = domain.NoteDraft{}
	n.mu.Unlock()

	n.onDraft(domain.NoteDraft{})
}

// Submit adds text to ticketID as a private comment.
//
// Blank or oversized text is rejected with an error notice before any
// network call. On success the draft is cleared if it targeted ticketID;
// on failure it is kept with text so the agent can retry. Either way a
// notice is raised.
func (n *NoteComposer) Submit(ctx context.Context, ticketID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		n.onNotice(domain.NoticePayload{Level: domain.NoticeError, Message: domain.NoticeNoteRequired})
		return apperrors.ErrNoteBodyRequired
	}
	if utf8.RuneCountInString(text) > domain.MaxNoteBodyLength {
		n.onNotice(domain.NoticePayload{Level: domain.NoticeError, Message: domain.NoticeNoteTooLong})
		return apperrors.ErrNoteBodyTooLong
	}

	if err := n.send(ctx, ticketID, text); err != nil {
		n.keepText(ticketID, text)
		n.onNotice(domain.NoticePayload{Level: domain.NoticeError, Message: domain.NoticeNoteFailed + noticeReason(err)})
		n.logger.Warn("failed to add note",
			"ticket_id", ticketID,
			"error", err,
		)
		return fmt.Errorf("%w: %w", apperrors.ErrNoteSubmitFailed, err)
	}

	n.mu.Lock()
	cleared := n.draft.Targets(ticketID)
	if cleared {
		n.draft = domain.NoteDraft{}
	}
	n.mu.Unlock()

	if cleared {
		n.onDraft(domain.NoteDraft{})
	}
	n.onNotice(domain.NoticePayload{Level: domain.NoticeSuccess, Message: domain.NoticeNoteAdded})
	n.logger.Info("note added", "ticket_id", ticketID)
	return nil
}

func (n *NoteComposer) send(ctx context.Context, ticketID int64, text string) error {
	if n.client == nil {
		return apperrors.ErrHelpdeskUnavailable
	}
	// A submitted note is not cancelled with the request.
	return n.client.AddPrivateNote(context.WithoutCancel(ctx), ticketID, text)
}

func (n *NoteComposer) keepText(ticketID int64, text string) {
	n.mu.Lock()
	if !n.draft.Targets(ticketID) || n.draft.Text == text {
		n.mu.Unlock()
		return
	}
	n.draft.Text = text
	draft := copyDraft(n.draft)
	n.mu.Unlock()

	n.onDraft(draft)
}

func noticeReason(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fetchFailedNoMessage
}

func copyDraft(d domain.NoteDraft) domain.NoteDraft {
	if d.TargetTicketID == nil {
		return domain.NoteDraft{Text: d.Text}
	}
	id := *d.TargetTicketID
	return domain.NoteDraft{TargetTicketID: &id, Text: d.Text}
}
