package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/caller-panel/internal/adapters/primary/validation"
	"github.com/lorrc/caller-panel/internal/core/domain"
	apperrors "github.com/lorrc/caller-panel/internal/core/errors"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// importFormField is the multipart field holding the call-log spreadsheet.
const importFormField = "file"

// CallsHandler handles HTTP requests for the recent calls panel of a session
type CallsHandler struct {
	callLogService ports.CallLogService
	errorHandler   *ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewCallsHandler creates a new calls handler
func NewCallsHandler(
	callLogService ports.CallLogService,
	errorHandler *ErrorHandler,
	maxUploadBytes int64,
	logger *slog.Logger,
) *CallsHandler {
	return &CallsHandler{
		callLogService: callLogService,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("handler", "calls"),
	}
}

// RegisterRoutes sets up the routing for the recent calls endpoints.
// The router is expected to be scoped to /sessions/{sessionID}.
func (h *CallsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/calls", func(r chi.Router) {
		r.Get("/", h.HandleRecentCalls)
		r.Put("/", h.HandleSetCalls)
		r.Post("/import", h.HandleImportCalls)
		r.Post("/{callID}/dial", h.HandleDial)
	})
}

// CallCountResponse reports how many raw records the panel now holds
type CallCountResponse struct {
	Count int `json:"count"`
}

// HandleRecentCalls handles GET /calls?q=
func (h *CallsHandler) HandleRecentCalls(w http.ResponseWriter, r *http.Request) {
	query := validation.ParseStringQueryParam(r, "q")

	view, err := h.callLogService.RecentCalls(r.Context(), sessionID(r), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// HandleSetCalls handles PUT /calls with the raw call log as a JSON array
func (h *CallsHandler) HandleSetCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := validation.DecodeAndValidate[[]domain.RawCallRecord](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	count, err := h.callLogService.SetCalls(r.Context(), sessionID(r), *calls)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, CallCountResponse{Count: count})
}

// HandleImportCalls handles POST /calls/import with a multipart spreadsheet upload
func (h *CallsHandler) HandleImportCalls(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Upload is too large"))
			return
		}
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Expected a multipart form upload"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(importFormField)
	if err != nil {
		v := validation.NewValidator()
		v.Custom(importFormField, false, "A spreadsheet file is required")
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}
	defer file.Close()

	count, err := h.callLogService.ImportCalls(r.Context(), sessionID(r), file)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("call log imported",
		"session_id", sessionID(r),
		"file_name", header.Filename,
		"records", count,
	)

	WriteJSON(w, http.StatusOK, CallCountResponse{Count: count})
}

// HandleDial handles POST /calls/{callID}/dial
func (h *CallsHandler) HandleDial(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")

	if err := h.callLogService.Dial(r.Context(), sessionID(r), callID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteAccepted(w)
}
