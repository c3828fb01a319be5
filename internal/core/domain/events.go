package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventFetchStateChanged EventType = "FETCH_STATE_CHANGED"
	EventDraftChanged      EventType = "DRAFT_CHANGED"
	EventNotice            EventType = "NOTICE"
	EventNavigate          EventType = "NAVIGATE"
	EventMakeCall          EventType = "MAKE_CALL"
	EventTicketCreated     EventType = "TICKET_CREATED"
	EventCallsChanged      EventType = "CALLS_CHANGED"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	SessionID string      `json:"sessionId"` // Used for routing to the agent's panel "room"
}
