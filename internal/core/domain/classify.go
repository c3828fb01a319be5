package domain

// Outcome strings the telephony collaborator uses for calls that never
// connected. Matched exactly, case-sensitive.
const (
	ResultMissed     = "Missed"
	ResultCallCancel = "Call Cancel"
	ResultRejected   = "Rejected"
	ResultNoAnswer   = "No Answer"
)

var missedResults = map[string]struct{}{
	ResultMissed:     {},
	ResultCallCancel: {},
	ResultRejected:   {},
	ResultNoAnswer:   {},
}

// IsMissed classifies a call by its outcome, independent of its type.
func IsMissed(call NormalizedCall) bool {
	_, ok := missedResults[call.Result]
	return ok
}

// CallIndicator is the icon category a call row renders with.
type CallIndicator string

const (
	IndicatorMissed   CallIndicator = "missed"
	IndicatorIncoming CallIndicator = "incoming"
	IndicatorOutgoing CallIndicator = "outgoing"
)

// Indicator picks the row icon. A missed outcome wins over direction.
func Indicator(call NormalizedCall) CallIndicator {
	switch {
	case IsMissed(call):
		return IndicatorMissed
	case call.Type == CallIncoming:
		return IndicatorIncoming
	default:
		return IndicatorOutgoing
	}
}
