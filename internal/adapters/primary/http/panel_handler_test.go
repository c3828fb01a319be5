package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPanelRouter(svc *mocks.MockPanelService) *chi.Mux {
	logger := discardLogger()
	handler := NewPanelHandler(svc, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Route("/sessions/{sessionID}", handler.RegisterRoutes)
	return r
}

func serve(router stdhttp.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func loadedView() domain.CallerPanelView {
	return domain.BuildCallerPanelView(
		domain.CallerContext{CallerNumber: "+15550100", CallerName: "Ann"},
		nil,
		domain.LoadedState([]domain.Ticket{{ID: 7, Subject: "Router down", Status: domain.StatusOpen, Priority: domain.PriorityHigh}}),
		domain.NoteDraft{},
	)
}

func TestPanelHandler_GetPanel(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("CallerView", mock.Anything, "agent-1").Return(loadedView(), nil)

	recorder := serve(newPanelRouter(svc), stdhttp.MethodGet, "/sessions/agent-1/panel", "")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	var view domain.CallerPanelView
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&view))
	assert.Equal(t, domain.PhaseLoaded, view.Phase)
	require.Len(t, view.Tickets, 1)
	assert.Equal(t, "High", view.Tickets[0].PriorityLabel)
	assert.True(t, view.Tickets[0].CanAddNote)
}

func TestPanelHandler_InvalidSession(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("CallerView", mock.Anything, mock.Anything).Return(domain.CallerPanelView{}, apperrors.ErrSessionIDInvalid)

	recorder := serve(newPanelRouter(svc), stdhttp.MethodGet, "/sessions/bad%20id/panel", "")

	assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	assert.Equal(t, "INVALID_SESSION", decodeError(t, recorder).Code)
}

func TestPanelHandler_SetCall(t *testing.T) {
	svc := mocks.NewMockPanelService()
	caller := domain.CallerContext{CallerNumber: "+15550100", CallerName: "Ann"}
	svc.On("SetCaller", mock.Anything, "agent-1", caller).
		Return(domain.BuildCallerPanelView(caller, nil, domain.LoadingState(), domain.NoteDraft{}), nil)

	recorder := serve(newPanelRouter(svc), stdhttp.MethodPut, "/sessions/agent-1/call",
		`{"callerNumber":" +15550100 ","callerName":"Ann"}`)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	var view domain.CallerPanelView
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&view))
	assert.Equal(t, domain.PhaseLoading, view.Phase)
	svc.AssertExpectations(t)
}

func TestPanelHandler_SetCall_Validation(t *testing.T) {
	svc := mocks.NewMockPanelService()

	body := fmt.Sprintf(`{"callerNumber":%q}`, strings.Repeat("9", 200))
	recorder := serve(newPanelRouter(svc), stdhttp.MethodPut, "/sessions/agent-1/call", body)

	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
	svc.AssertNotCalled(t, "SetCaller", mock.Anything, mock.Anything, mock.Anything)

	recorder = serve(newPanelRouter(svc), stdhttp.MethodPut, "/sessions/agent-1/call", "{")
	assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestPanelHandler_EndCall(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("EndCall", mock.Anything, "agent-1").
		Return(domain.BuildCallerPanelView(domain.CallerContext{}, nil, domain.IdleState(), domain.NoteDraft{}), nil)

	recorder := serve(newPanelRouter(svc), stdhttp.MethodDelete, "/sessions/agent-1/call", "")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	var view domain.CallerPanelView
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&view))
	assert.Equal(t, domain.PhaseIdle, view.Phase)
	assert.Equal(t, domain.MessageMissingInput, view.Message)
}

func TestPanelHandler_RefreshTickets(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("RefreshTickets", mock.Anything, "agent-1").Return(loadedView(), nil)

	recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets/refresh", "")

	assert.Equal(t, stdhttp.StatusOK, recorder.Code)
	svc.AssertExpectations(t)
}

func TestPanelHandler_CreateTicket(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := mocks.NewMockPanelService()
		svc.On("CreateTicket", mock.Anything, "agent-1", domain.NewTicketParams{
			Subject:  "Callback requested",
			Priority: domain.PriorityHigh,
		}).Return(domain.Ticket{ID: 99, Subject: "Callback requested", Status: domain.StatusOpen, Priority: domain.PriorityHigh}, nil)

		recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets",
			`{"subject":" Callback requested ","priority":"HIGH"}`)

		require.Equal(t, stdhttp.StatusCreated, recorder.Code)
		var ticket domain.Ticket
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&ticket))
		assert.Equal(t, int64(99), ticket.ID)
	})

	t.Run("missing subject", func(t *testing.T) {
		svc := mocks.NewMockPanelService()

		recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets", `{"priority":"urgent"}`)

		require.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
		var response ValidationErrorResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Contains(t, response.Fields, "subject")
		assert.Contains(t, response.Fields, "priority")
	})

	t.Run("helpdesk not configured", func(t *testing.T) {
		svc := mocks.NewMockPanelService()
		svc.On("CreateTicket", mock.Anything, "agent-1", mock.Anything).Return(domain.Ticket{}, apperrors.ErrHelpdeskUnavailable)

		recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets", `{"subject":"x"}`)

		assert.Equal(t, stdhttp.StatusServiceUnavailable, recorder.Code)
		assert.Equal(t, "HELPDESK_UNAVAILABLE", decodeError(t, recorder).Code)
	})
}

func TestPanelHandler_OpenTicket(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("OpenTicket", mock.Anything, "agent-1", int64(7)).Return(nil)

	recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets/7/open", "")
	assert.Equal(t, stdhttp.StatusAccepted, recorder.Code)

	recorder = serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets/abc/open", "")
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)

	svc.AssertNumberOfCalls(t, "OpenTicket", 1)
}

func TestPanelHandler_SubmitNote(t *testing.T) {
	t.Run("success returns the refreshed panel", func(t *testing.T) {
		svc := mocks.NewMockPanelService()
		svc.On("SubmitNote", mock.Anything, "agent-1", int64(7), "Called back").Return(nil)
		svc.On("CallerView", mock.Anything, "agent-1").Return(loadedView(), nil)

		recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets/7/notes", `{"text":"Called back"}`)

		assert.Equal(t, stdhttp.StatusCreated, recorder.Code)
		svc.AssertExpectations(t)
	})

	t.Run("blank note", func(t *testing.T) {
		svc := mocks.NewMockPanelService()
		svc.On("SubmitNote", mock.Anything, "agent-1", int64(7), "  ").Return(apperrors.ErrNoteBodyRequired)

		recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets/7/notes", `{"text":"  "}`)

		assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, recorder).Code)
	})

	t.Run("helpdesk rejects the note", func(t *testing.T) {
		svc := mocks.NewMockPanelService()
		err := fmt.Errorf("%w: %w", apperrors.ErrNoteSubmitFailed, errors.New("zendesk returned 422"))
		svc.On("SubmitNote", mock.Anything, "agent-1", int64(7), "hi").Return(err)

		recorder := serve(newPanelRouter(svc), stdhttp.MethodPost, "/sessions/agent-1/tickets/7/notes", `{"text":"hi"}`)

		assert.Equal(t, stdhttp.StatusBadGateway, recorder.Code)
		response := decodeError(t, recorder)
		assert.Equal(t, "NOTE_SUBMIT_FAILED", response.Code)
		assert.Contains(t, response.Error, "zendesk returned 422")
	})
}

func TestPanelHandler_Contact(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("SetContact", mock.Anything, "agent-1", domain.Contact{ID: "u-1", Name: "Ann", Email: "ann@example.com"}).Return(nil)
	svc.On("OpenContact", mock.Anything, "agent-1").Return(nil).Once()
	svc.On("OpenContact", mock.Anything, "agent-1").Return(apperrors.ErrContactNotFound).Once()
	router := newPanelRouter(svc)

	recorder := serve(router, stdhttp.MethodPut, "/sessions/agent-1/contact", `{"id":"u-1","name":"Ann","email":"ann@example.com"}`)
	assert.Equal(t, stdhttp.StatusNoContent, recorder.Code)

	recorder = serve(router, stdhttp.MethodPut, "/sessions/agent-1/contact", `{"id":"","email":"nope"}`)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)

	recorder = serve(router, stdhttp.MethodPost, "/sessions/agent-1/contact/open", "")
	assert.Equal(t, stdhttp.StatusAccepted, recorder.Code)

	recorder = serve(router, stdhttp.MethodPost, "/sessions/agent-1/contact/open", "")
	assert.Equal(t, stdhttp.StatusNotFound, recorder.Code)
	assert.Equal(t, "CONTACT_NOT_FOUND", decodeError(t, recorder).Code)
}

func TestPanelHandler_Draft(t *testing.T) {
	svc := mocks.NewMockPanelService()
	ticketID := int64(7)
	svc.On("OpenDraft", mock.Anything, "agent-1", ticketID).Return(domain.NoteDraft{TargetTicketID: &ticketID}, nil)
	svc.On("UpdateDraft", mock.Anything, "agent-1", "half a thought").
		Return(domain.NoteDraft{TargetTicketID: &ticketID, Text: "half a thought"}, nil).Once()
	svc.On("UpdateDraft", mock.Anything, "agent-1", "late").Return(domain.NoteDraft{}, apperrors.ErrNoDraftOpen).Once()
	svc.On("CancelDraft", mock.Anything, "agent-1").Return(nil)
	router := newPanelRouter(svc)

	recorder := serve(router, stdhttp.MethodPost, "/sessions/agent-1/draft", `{"ticketId":7}`)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	var draft domain.NoteDraft
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&draft))
	require.NotNil(t, draft.TargetTicketID)
	assert.Equal(t, ticketID, *draft.TargetTicketID)

	recorder = serve(router, stdhttp.MethodPost, "/sessions/agent-1/draft", `{"ticketId":0}`)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)

	recorder = serve(router, stdhttp.MethodPatch, "/sessions/agent-1/draft", `{"text":"half a thought"}`)
	assert.Equal(t, stdhttp.StatusOK, recorder.Code)

	recorder = serve(router, stdhttp.MethodPatch, "/sessions/agent-1/draft", `{"text":"late"}`)
	assert.Equal(t, stdhttp.StatusConflict, recorder.Code)

	recorder = serve(router, stdhttp.MethodDelete, "/sessions/agent-1/draft", "")
	assert.Equal(t, stdhttp.StatusNoContent, recorder.Code)
}

func TestErrorHandler_UnknownErrorIsInternal(t *testing.T) {
	svc := mocks.NewMockPanelService()
	svc.On("CallerView", mock.Anything, "agent-1").Return(domain.CallerPanelView{}, errors.New("boom"))

	recorder := serve(newPanelRouter(svc), stdhttp.MethodGet, "/sessions/agent-1/panel", "")

	assert.Equal(t, stdhttp.StatusInternalServerError, recorder.Code)
	response := decodeError(t, recorder)
	assert.Equal(t, "INTERNAL_ERROR", response.Code)
	assert.NotContains(t, response.Error, "boom")
}
