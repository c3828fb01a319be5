package domain

import "fmt"

// Panel messages shown in place of a ticket list or call list.
const (
	MessageMissingInput  = "Missing client or caller number"
	MessageNoTickets     = "No tickets found"
	MessageNoRecentCalls = "No recent calls found"
	UnknownCallName      = "Unknown"
)

// CallerView is the caller block at the top of the panel.
type CallerView struct {
	Number      string `json:"number,omitempty"`
	DisplayName string `json:"displayName"`
	Initial     string `json:"initial"`
	HasContact  bool   `json:"hasContact"`
}

// TicketView is one ticket row.
type TicketView struct {
	ID            int64          `json:"id"`
	Subject       string         `json:"subject"`
	Status        TicketStatus   `json:"status"`
	Priority      TicketPriority `json:"priority"`
	PriorityLabel string         `json:"priorityLabel"`
	CanAddNote    bool           `json:"canAddNote"`
	Composing     bool           `json:"composing"`
}

// CallerPanelView is everything the caller panel renders.
// Exactly one of Tickets, Message or Empty applies, selected by Phase.
type CallerPanelView struct {
	Caller  CallerView   `json:"caller"`
	Phase   FetchPhase   `json:"phase"`
	Tickets []TicketView `json:"tickets"`
	Message string       `json:"message,omitempty"`
	Draft   NoteDraft    `json:"draft"`
}

// BuildCallerPanelView renders the fetch state and draft for a caller.
func BuildCallerPanelView(caller CallerContext, contact *Contact, state TicketFetchState, draft NoteDraft) CallerPanelView {
	view := CallerPanelView{
		Caller: CallerView{
			Number:      caller.CallerNumber,
			DisplayName: caller.DisplayName(),
			Initial:     caller.Initial(),
			HasContact:  contact != nil && contact.ID != "",
		},
		Phase:   state.Phase,
		Tickets: []TicketView{},
		Draft:   draft,
	}

	switch state.Phase {
	case PhaseIdle:
		view.Message = MessageMissingInput
	case PhaseFailed:
		view.Message = state.Message
	case PhaseLoaded:
		if len(state.Tickets) == 0 {
			view.Message = MessageNoTickets
		}
		for _, t := range state.Tickets {
			view.Tickets = append(view.Tickets, TicketView{
				ID:            t.ID,
				Subject:       t.Subject,
				Status:        t.Status,
				Priority:      t.Priority,
				PriorityLabel: t.Priority.Label(),
				CanAddNote:    !draft.IsOpen(),
				Composing:     draft.Targets(t.ID),
			})
		}
	}
	return view
}

// CallView is one row of the recent calls list.
type CallView struct {
	Key           string        `json:"key"`
	ID            string        `json:"id"`
	Indicator     CallIndicator `json:"indicator"`
	Name          string        `json:"name"`
	Number        string        `json:"number,omitempty"`
	Email         string        `json:"email,omitempty"`
	Duration      string        `json:"duration"`
	DateTime      string        `json:"dateTime,omitempty"`
	Missed        bool          `json:"missed"`
	CanCall       bool          `json:"canCall"`
	CanAddContact bool          `json:"canAddContact"`
}

// RecentCallsView is the recent calls panel for a given search query.
type RecentCallsView struct {
	Query   string     `json:"query"`
	Calls   []CallView `json:"calls"`
	Message string     `json:"message,omitempty"`
}

// BuildRecentCallsView renders already filtered calls. Calls without an
// identifier are skipped.
func BuildRecentCallsView(query string, calls []NormalizedCall) RecentCallsView {
	view := RecentCallsView{Query: query, Calls: []CallView{}}
	for i, c := range calls {
		if !c.Valid() {
			continue
		}
		view.Calls = append(view.Calls, buildCallView(i, c))
	}
	if len(view.Calls) == 0 {
		view.Message = MessageNoRecentCalls
	}
	return view
}

func buildCallView(index int, c NormalizedCall) CallView {
	name := c.Name
	if name == "" {
		name = UnknownCallName
	}
	key := fmt.Sprintf("%s-%s", c.ID, c.DateTime)
	if c.DateTime == "" {
		key = fmt.Sprintf("%s-%d", c.ID, index)
	}
	return CallView{
		Key:           key,
		ID:            c.ID,
		Indicator:     Indicator(c),
		Name:          name,
		Number:        c.Number,
		Email:         c.Email,
		Duration:      FormatDuration(c.Duration),
		DateTime:      c.DateTime,
		Missed:        IsMissed(c),
		CanCall:       c.Number != "",
		CanAddContact: c.Number == "" || c.Name == UnknownCallName,
	}
}

// FormatDuration renders seconds as "Xm Ys", "Ys" or "0s".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}
	mins, secs := seconds/60, seconds%60
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
