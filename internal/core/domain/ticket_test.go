package domain_test

import (
	"strings"
	"testing"

	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		in   string
		want domain.TicketStatus
	}{
		{"open", domain.StatusOpen},
		{"OPEN", domain.StatusOpen},
		{"Pending", domain.StatusPending},
		{"solved", domain.StatusSolved},
		{" closed ", domain.StatusClosed},
		{"new", domain.StatusOther},
		{"hold", domain.StatusOther},
		{"", domain.StatusOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseTicketStatus(tt.in))
		})
	}
}

func TestParseTicketPriority(t *testing.T) {
	tests := []struct {
		in   string
		want domain.TicketPriority
	}{
		{"high", domain.PriorityHigh},
		{"HIGH", domain.PriorityHigh},
		{"medium", domain.PriorityMedium},
		{"low", domain.PriorityLow},
		{"normal", domain.PriorityNormal},
		{"urgent", domain.PriorityNormal},
		{"", domain.PriorityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ParseTicketPriority(tt.in))
		})
	}
}

func TestTicketPriority_Label(t *testing.T) {
	assert.Equal(t, "High", domain.PriorityHigh.Label())
	assert.Equal(t, "Normal", domain.PriorityNormal.Label())
	assert.Equal(t, "Normal", domain.TicketPriority("").Label())
}

func TestNewTicketParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  domain.NewTicketParams
		wantErr error
	}{
		{
			name:   "valid ticket",
			params: domain.NewTicketParams{Subject: "Printer on fire", Priority: domain.PriorityHigh},
		},
		{
			name:   "priority may be omitted",
			params: domain.NewTicketParams{Subject: "Callback requested"},
		},
		{
			name:    "blank subject",
			params:  domain.NewTicketParams{Subject: "   "},
			wantErr: apperrors.ErrSubjectRequired,
		},
		{
			name:    "subject too long",
			params:  domain.NewTicketParams{Subject: strings.Repeat("a", 256)},
			wantErr: apperrors.ErrSubjectTooLong,
		},
		{
			name:    "invalid priority",
			params:  domain.NewTicketParams{Subject: "x", Priority: "URGENT"},
			wantErr: apperrors.ErrInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCallerContext(t *testing.T) {
	assert.Equal(t, "Unknown Caller", domain.CallerContext{}.DisplayName())
	assert.Equal(t, "?", domain.CallerContext{}.Initial())
	assert.False(t, domain.CallerContext{CallerNumber: "  "}.HasCall())

	c := domain.CallerContext{CallerNumber: "+15550100", CallerName: "ann smith"}
	assert.True(t, c.HasCall())
	assert.Equal(t, "ann smith", c.DisplayName())
	assert.Equal(t, "A", c.Initial())
}

func TestTicketFetchState_WithPrepended(t *testing.T) {
	t1 := domain.Ticket{ID: 1, Subject: "first"}
	t2 := domain.Ticket{ID: 2, Subject: "second"}
	created := domain.Ticket{ID: 3, Subject: "new"}

	t.Run("prepends to loaded list", func(t *testing.T) {
		state := domain.LoadedState([]domain.Ticket{t1, t2}).WithPrepended(created)
		assert.Equal(t, domain.PhaseLoaded, state.Phase)
		assert.Equal(t, []domain.Ticket{created, t1, t2}, state.Tickets)
	})

	t.Run("other phases unchanged", func(t *testing.T) {
		for _, s := range []domain.TicketFetchState{
			domain.IdleState(), domain.LoadingState(), domain.FailedState("boom"),
		} {
			assert.Equal(t, s, s.WithPrepended(created))
		}
	})

	t.Run("loaded state does not alias input", func(t *testing.T) {
		input := []domain.Ticket{t1}
		state := domain.LoadedState(input)
		input[0].Subject = "changed"
		assert.Equal(t, "first", state.Tickets[0].Subject)
	})
}

func TestNoteDraft(t *testing.T) {
	assert.False(t, domain.NoteDraft{}.IsOpen())

	id := int64(7)
	d := domain.NoteDraft{TargetTicketID: &id}
	assert.True(t, d.IsOpen())
	assert.True(t, d.Targets(7))
	assert.False(t, d.Targets(8))
}

func TestValidateSessionID(t *testing.T) {
	assert.ErrorIs(t, domain.ValidateSessionID(""), apperrors.ErrSessionIDRequired)
	assert.ErrorIs(t, domain.ValidateSessionID("agent 1"), apperrors.ErrSessionIDInvalid)
	assert.ErrorIs(t, domain.ValidateSessionID(strings.Repeat("a", 129)), apperrors.ErrSessionIDInvalid)
	assert.NoError(t, domain.ValidateSessionID("agent-42:desk.1_a"))
}
