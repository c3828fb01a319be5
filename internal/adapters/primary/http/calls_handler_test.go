package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCallsRouter(svc *mocks.MockCallLogService, maxUpload int64) *chi.Mux {
	logger := discardLogger()
	handler := NewCallsHandler(svc, NewErrorHandler(logger), maxUpload, logger)

	r := chi.NewRouter()
	r.Route("/sessions/{sessionID}", handler.RegisterRoutes)
	return r
}

func multipartUpload(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "calls.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCallsHandler_RecentCalls(t *testing.T) {
	svc := mocks.NewMockCallLogService()
	view := domain.BuildRecentCallsView("ann", []domain.NormalizedCall{
		{ID: "c1", Type: domain.CallIncoming, Name: "Ann", Number: "+1555", Duration: 65, DateTime: "2025-03-01T09:00:00Z"},
	})
	svc.On("RecentCalls", mock.Anything, "agent-1", "ann").Return(view, nil)

	recorder := serve(newCallsRouter(svc, 1<<20), stdhttp.MethodGet, "/sessions/agent-1/calls?q=+ann+", "")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	var got domain.RecentCallsView
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	require.Len(t, got.Calls, 1)
	assert.Equal(t, "c1-2025-03-01T09:00:00Z", got.Calls[0].Key)
	assert.Equal(t, "1m 5s", got.Calls[0].Duration)
}

func TestCallsHandler_SetCalls(t *testing.T) {
	svc := mocks.NewMockCallLogService()
	svc.On("SetCalls", mock.Anything, "agent-1", mock.MatchedBy(func(calls []domain.RawCallRecord) bool {
		return len(calls) == 2 && calls[0].CallID == "123" && calls[1].Duration == 0
	})).Return(2, nil)

	body := `[{"callId":123,"direction":"inbound","duration":"45"},{"callLogId":"l-2","duration":null}]`
	recorder := serve(newCallsRouter(svc, 1<<20), stdhttp.MethodPut, "/sessions/agent-1/calls", body)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)
	var response CallCountResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)

	recorder = serve(newCallsRouter(svc, 1<<20), stdhttp.MethodPut, "/sessions/agent-1/calls", `{"not":"an array"}`)
	assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestCallsHandler_Import(t *testing.T) {
	t.Run("imports the uploaded spreadsheet", func(t *testing.T) {
		svc := mocks.NewMockCallLogService()
		svc.On("ImportCalls", mock.Anything, "agent-1", mock.MatchedBy(func(r io.Reader) bool {
			data, err := io.ReadAll(r)
			return err == nil && string(data) == "xlsx bytes"
		})).Return(3, nil)

		body, contentType := multipartUpload(t, "file", []byte("xlsx bytes"))
		req := httptest.NewRequest(stdhttp.MethodPost, "/sessions/agent-1/calls/import", body)
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()
		newCallsRouter(svc, 1<<20).ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusOK, recorder.Code)
		var response CallCountResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, 3, response.Count)
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := mocks.NewMockCallLogService()

		body, contentType := multipartUpload(t, "attachment", []byte("xlsx bytes"))
		req := httptest.NewRequest(stdhttp.MethodPost, "/sessions/agent-1/calls/import", body)
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()
		newCallsRouter(svc, 1<<20).ServeHTTP(recorder, req)

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
		svc.AssertNotCalled(t, "ImportCalls", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upload too large", func(t *testing.T) {
		svc := mocks.NewMockCallLogService()

		body, contentType := multipartUpload(t, "file", bytes.Repeat([]byte("x"), 4096))
		req := httptest.NewRequest(stdhttp.MethodPost, "/sessions/agent-1/calls/import", body)
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()
		newCallsRouter(svc, 512).ServeHTTP(recorder, req)

		assert.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})

	t.Run("unreadable spreadsheet", func(t *testing.T) {
		svc := mocks.NewMockCallLogService()
		svc.On("ImportCalls", mock.Anything, "agent-1", mock.Anything).Return(0, apperrors.ErrCallLogUnreadable)

		body, contentType := multipartUpload(t, "file", []byte("garbage"))
		req := httptest.NewRequest(stdhttp.MethodPost, "/sessions/agent-1/calls/import", body)
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()
		newCallsRouter(svc, 1<<20).ServeHTTP(recorder, req)

		assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
		assert.Equal(t, "CALL_LOG_UNREADABLE", decodeError(t, recorder).Code)
	})
}

func TestCallsHandler_Dial(t *testing.T) {
	svc := mocks.NewMockCallLogService()
	svc.On("Dial", mock.Anything, "agent-1", "c1").Return(nil)
	svc.On("Dial", mock.Anything, "agent-1", "gone").Return(apperrors.ErrCallNotFound)
	svc.On("Dial", mock.Anything, "agent-1", "c4").Return(apperrors.ErrCallHasNoNumber)
	router := newCallsRouter(svc, 1<<20)

	assert.Equal(t, stdhttp.StatusAccepted, serve(router, stdhttp.MethodPost, "/sessions/agent-1/calls/c1/dial", "").Code)
	assert.Equal(t, stdhttp.StatusNotFound, serve(router, stdhttp.MethodPost, "/sessions/agent-1/calls/gone/dial", "").Code)
	assert.Equal(t, stdhttp.StatusBadRequest, serve(router, stdhttp.MethodPost, "/sessions/agent-1/calls/c4/dial", "").Code)
}
