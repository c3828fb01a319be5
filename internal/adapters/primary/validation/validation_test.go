package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Required("subject", "  ").
		MaxLength("name", strings.Repeat("é", 4), 3).
		Email("email", "not-an-email").
		OneOf("priority", "urgent", []string{"low", "normal"}).
		OneOf("status", "", []string{"open"}).
		Custom("ok", true, "never added")

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors().Errors, 4)
	assert.Contains(t, v.Errors().Errors, "subject")
	assert.Contains(t, v.Errors().Errors, "name")
	assert.Contains(t, v.Errors().Errors, "email")
	assert.Contains(t, v.Errors().Errors, "priority")
}

func TestValidator_MaxLengthCountsCharacters(t *testing.T) {
	v := NewValidator()
	v.MaxLength("name", strings.Repeat("é", 3), 3)
	assert.False(t, v.HasErrors())
}

func TestDecodeAndValidate(t *testing.T) {
	type body struct {
		Text string `json:"text"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi"}`))
		got, err := DecodeAndValidate[body](httptest.NewRecorder(), r)
		require.NoError(t, err)
		assert.Equal(t, "hi", got.Text)
	})

	for name, payload := range map[string]string{"empty": "", "malformed": "{"} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
			_, err := DecodeAndValidate[body](httptest.NewRecorder(), r)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var got int64
			var err error
			router := chi.NewRouter()
			router.Get("/tickets/{ticketID}", func(w http.ResponseWriter, r *http.Request) {
				got, err = ParseIDParam(r, "ticketID")
			})
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tickets/"+tt.raw, nil))

			if tt.wantErr {
				var verrs *apperrors.ValidationErrors
				assert.True(t, errors.As(err, &verrs))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
