package domain

// MaxNoteBodyLength bounds the size of a private note.
const MaxNoteBodyLength = 65535

// NoteDraft is the single in-progress note of a session.
// A nil TargetTicketID means no note is being composed.
type NoteDraft struct {
	TargetTicketID *int64 `json:"targetTicketId"`
	Text           string `json:"text"`
}

// IsOpen reports whether a draft is being composed.
func (d NoteDraft) IsOpen() bool {
	return d.TargetTicketID != nil
}

// Targets reports whether the draft is open on ticketID.
func (d NoteDraft) Targets(ticketID int64) bool {
	return d.TargetTicketID != nil && *d.TargetTicketID == ticketID
}
