package domain

// FetchPhase tags which variant of TicketFetchState holds.
type FetchPhase string

const (
	PhaseIdle    FetchPhase = "idle"
	PhaseLoading FetchPhase = "loading"
	PhaseLoaded  FetchPhase = "loaded"
	PhaseFailed  FetchPhase = "failed"
)

// TicketFetchState is the state of the caller-to-tickets lookup.
// Tickets is only meaningful when Phase is PhaseLoaded and Message only when
// Phase is PhaseFailed; use the constructors to build a value.
type TicketFetchState struct {
	Phase   FetchPhase `json:"phase"`
	Tickets []Ticket   `json:"tickets,omitempty"`
	Message string     `json:"message,omitempty"`
}

func IdleState() TicketFetchState {
	return TicketFetchState{Phase: PhaseIdle}
}

func LoadingState() TicketFetchState {
	return TicketFetchState{Phase: PhaseLoading}
}

// LoadedState copies tickets so later prepends never alias the
// collaborator's slice.
func LoadedState(tickets []Ticket) TicketFetchState {
	cp := make([]Ticket, len(tickets))
	copy(cp, tickets)
	return TicketFetchState{Phase: PhaseLoaded, Tickets: cp}
}

func FailedState(message string) TicketFetchState {
	return TicketFetchState{Phase: PhaseFailed, Message: message}
}

// WithPrepended returns a Loaded state with t placed first.
// States in any other phase are returned unchanged.
func (s TicketFetchState) WithPrepended(t Ticket) TicketFetchState {
	if s.Phase != PhaseLoaded {
		return s
	}
	tickets := make([]Ticket, 0, len(s.Tickets)+1)
	tickets = append(tickets, t)
	tickets = append(tickets, s.Tickets...)
	return TicketFetchState{Phase: PhaseLoaded, Tickets: tickets}
}

// TicketLookup is the collaborator's answer to a lookup by phone number.
// OK=false is an explicit failure signal; Error carries the collaborator's
// message and may also be set alongside OK=true as an error payload.
type TicketLookup struct {
	OK      bool
	Tickets []Ticket
	Error   string
}
