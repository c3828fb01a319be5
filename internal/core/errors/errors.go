package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Session
	ErrSessionIDRequired = errors.New("session ID is required")
	ErrSessionIDInvalid  = errors.New("session ID format is invalid")

	// Helpdesk collaborator
	ErrHelpdeskUnavailable = errors.New("helpdesk client is not configured")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrTicketIDRequired    = errors.New("ticket ID is required")
	ErrSubjectRequired     = errors.New("subject is required")
	ErrSubjectTooLong      = errors.New("subject exceeds maximum length")
	ErrInvalidPriority     = errors.New("invalid ticket priority")

	// Notes
	ErrNoteBodyRequired = errors.New("note body is required")
	ErrNoteBodyTooLong  = errors.New("note body exceeds maximum length")
	ErrNoteSubmitFailed = errors.New("failed to add note")
	ErrNoDraftOpen      = errors.New("no note draft is open")

	// Call log
	ErrCallNotFound      = errors.New("call not found")
	ErrCallHasNoNumber   = errors.New("call has no number to dial")
	ErrContactNotFound   = errors.New("contact not found")
	ErrCallLogUnreadable = errors.New("call log file could not be read")

	// Generic
	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
