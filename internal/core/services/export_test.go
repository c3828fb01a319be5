package services

import "time"

// SetClock replaces the manager's time source in tests.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}
