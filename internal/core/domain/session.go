package domain

import (
	"regexp"

	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
)

const MaxSessionIDLength = 128

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// ValidateSessionID checks an agent session identifier.
func ValidateSessionID(id string) error {
	if id == "" {
		return apperrors.ErrSessionIDRequired
	}
	if len(id) > MaxSessionIDLength || !sessionIDPattern.MatchString(id) {
		return apperrors.ErrSessionIDInvalid
	}
	return nil
}
