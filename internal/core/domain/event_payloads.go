package domain

// NoticeLevel tells the panel how to style a transient notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice texts raised by note submission.
const (
	NoticeNoteRequired = "Please enter a note before submitting."
	NoticeNoteTooLong  = "Note is too long to submit."
	NoticeNoteAdded    = "Note added successfully!"
	NoticeNoteFailed   = "Failed to add note: "
)

// NoticePayload is a transient message for the agent. It is never stored.
type NoticePayload struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// NavigationTarget is the kind of host view to open.
type NavigationTarget string

const (
	NavigateTicket NavigationTarget = "ticket"
	NavigateUser   NavigationTarget = "user"
)

// NavigatePayload asks the host helpdesk to route to a ticket or user.
type NavigatePayload struct {
	Action string           `json:"action"`
	Target NavigationTarget `json:"target"`
	ID     string           `json:"id"`
}

// MakeCallMessage is the message the telephony widget understands.
type MakeCallMessage struct {
	Type string          `json:"type"`
	Data MakeCallNumbers `json:"data"`
}

type MakeCallNumbers struct {
	Number string `json:"number"`
}

// MakeCallPayload carries the widget message and the only origin the
// frontend may post it to.
type MakeCallPayload struct {
	TargetOrigin string          `json:"targetOrigin"`
	Message      MakeCallMessage `json:"message"`
}

// NewMakeCallPayload builds the outbound call request for number.
func NewMakeCallPayload(origin, number string) MakeCallPayload {
	return MakeCallPayload{
		TargetOrigin: origin,
		Message: MakeCallMessage{
			Type: "zp-make-call",
			Data: MakeCallNumbers{Number: number},
		},
	}
}

// CallsChangedPayload announces a new raw call collection.
type CallsChangedPayload struct {
	Count int `json:"count"`
}
