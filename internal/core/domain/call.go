package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CallType is the directional category of a normalized call.
type CallType string

const (
	CallIncoming CallType = "incoming"
	CallOutgoing CallType = "outgoing"
	CallMissed   CallType = "missed"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// FlexString accepts a JSON string or number and keeps its text form.
// null, booleans and objects decode to the empty string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = FlexString(data)
	default:
		*s = ""
	}
	return nil
}

// Seconds is a call duration as reported by the telephony collaborator.
// It accepts a JSON number, a numeric string or null. Anything that is not a
// finite non-negative number becomes 0 and fractions are truncated.
type Seconds int

func (d *Seconds) UnmarshalJSON(data []byte) error {
	*d = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	var text string
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
	case 'n', 't', 'f', '{', '[':
		return nil
	default:
		text = string(data)
	}
	*d = ParseSeconds(text)
	return nil
}

// ParseSeconds converts a textual duration into whole seconds.
func ParseSeconds(text string) Seconds {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return Seconds(math.MaxInt32)
	}
	return Seconds(math.Trunc(v))
}

// Party is one side of a call. Every field may be empty.
type Party struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Email  string `json:"email"`
}

// RawCallRecord is a call-log entry as delivered by the telephony
// collaborator. It must not travel past Normalize.
type RawCallRecord struct {
	CallID    FlexString `json:"callId"`
	CallLogID FlexString `json:"callLogId"`
	Direction string     `json:"direction"`
	Caller    *Party     `json:"caller"`
	Callee    *Party     `json:"callee"`
	Duration  Seconds    `json:"duration"`
	DateTime  string     `json:"dateTime"`
	Result    string     `json:"result"`
}

// NormalizedCall is the canonical form of one call-log entry.
type NormalizedCall struct {
	ID       string   `json:"id"`
	Type     CallType `json:"type"`
	Name     string   `json:"name"`
	Number   string   `json:"number"`
	Duration int      `json:"duration"`
	DateTime string   `json:"dateTime"`
	Email    string   `json:"email"`
	Result   string   `json:"result"`
}

// Valid reports whether the call carries an identifier.
func (c NormalizedCall) Valid() bool {
	return c.ID != ""
}

// Normalize maps a raw record onto a NormalizedCall. It is total: missing
// parties or fields yield empty values, never a panic.
func Normalize(raw RawCallRecord) NormalizedCall {
	call := NormalizedCall{
		ID:       string(raw.CallID),
		DateTime: raw.DateTime,
		Result:   raw.Result,
	}
	if call.ID == "" {
		call.ID = string(raw.CallLogID)
	}
	if raw.Duration > 0 {
		call.Duration = int(raw.Duration)
	}

	other := raw.Callee
	switch raw.Direction {
	case DirectionInbound:
		call.Type = CallIncoming
		other = raw.Caller
	case DirectionOutbound:
		call.Type = CallOutgoing
	default:
		call.Type = CallMissed
	}

	if other != nil {
		call.Name = other.Name
		call.Number = other.Number
		call.Email = other.Email
	}
	return call
}

// NormalizeAll normalizes a raw collection, preserving order.
func NormalizeAll(raws []RawCallRecord) []NormalizedCall {
	calls := make([]NormalizedCall, 0, len(raws))
	for _, r := range raws {
		calls = append(calls, Normalize(r))
	}
	return calls
}
