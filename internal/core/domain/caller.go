package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CallerContext identifies the party on the active call.
// An empty CallerNumber means there is no active call.
type CallerContext struct {
	CallerNumber string `json:"callerNumber"`
	CallerName   string `json:"callerName"`
}

// HasCall reports whether a caller number is present.
func (c CallerContext) HasCall() bool {
	return strings.TrimSpace(c.CallerNumber) != ""
}

// DisplayName returns the caller name or a placeholder.
func (c CallerContext) DisplayName() string {
	if c.CallerName == "" {
		return "Unknown Caller"
	}
	return c.CallerName
}

// Initial returns the avatar letter for the caller.
func (c CallerContext) Initial() string {
	r, _ := utf8.DecodeRuneInString(c.CallerName)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// Contact is the helpdesk user record matched to the caller.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
