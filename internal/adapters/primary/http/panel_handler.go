package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/caller-panel/internal/adapters/primary/validation"
	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

const maxCallerFieldLength = 128

// PanelHandler handles HTTP requests for the caller panel of a session
type PanelHandler struct {
	panelService ports.PanelService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewPanelHandler creates a new panel handler
func NewPanelHandler(
	panelService ports.PanelService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *PanelHandler {
	return &PanelHandler{
		panelService: panelService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "panel"),
	}
}

// RegisterRoutes sets up the routing for the caller panel endpoints.
// The router is expected to be scoped to /sessions/{sessionID}.
func (h *PanelHandler) RegisterRoutes(r chi.Router) {
	r.Get("/panel", h.HandleGetPanel)

	r.Put("/call", h.HandleSetCall)
	r.Delete("/call", h.HandleEndCall)

	r.Post("/tickets/refresh", h.HandleRefreshTickets)
	r.Post("/tickets", h.HandleCreateTicket)
	r.Post("/tickets/{ticketID}/open", h.HandleOpenTicket)
	r.Post("/tickets/{ticketID}/notes", h.HandleSubmitNote)

	r.Put("/contact", h.HandleSetContact)
	r.Post("/contact/open", h.HandleOpenContact)

	r.Post("/draft", h.HandleOpenDraft)
	r.Patch("/draft", h.HandleUpdateDraft)
	r.Delete("/draft", h.HandleCancelDraft)
}

// --- Request DTOs ---

// SetCallRequest carries the call data reported by the telephony widget
type SetCallRequest struct {
	CallerNumber string `json:"callerNumber"`
	CallerName   string `json:"callerName"`
}

// Validate validates the set call request
func (r *SetCallRequest) Validate() error {
	v := validation.NewValidator()

	v.MaxLength("callerNumber", r.CallerNumber, maxCallerFieldLength)
	v.MaxLength("callerName", r.CallerName, maxCallerFieldLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CreateTicketRequest defines the expected JSON body for escalating a call
type CreateTicketRequest struct {
	Subject        string `json:"subject"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	RequesterPhone string `json:"requesterPhone"`
	RequesterName  string `json:"requesterName"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("subject", r.Subject).
		MaxLength("subject", r.Subject, domain.MaxSubjectLength)

	v.MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.OneOf("priority", strings.ToLower(r.Priority), []string{"low", "normal", "medium", "high"})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ContactRequest links the caller to a helpdesk user
type ContactRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate validates the contact request
func (r *ContactRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("id", r.ID)
	v.Email("email", r.Email)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// OpenDraftRequest selects the ticket a note is composed for
type OpenDraftRequest struct {
	TicketID int64 `json:"ticketId"`
}

// Validate validates the open draft request
func (r *OpenDraftRequest) Validate() error {
	v := validation.NewValidator()

	v.Custom("ticketId", r.TicketID > 0, "Must be a positive integer")

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// NoteTextRequest carries the text of a note draft or submission.
// Blank text is rejected by the composer, which also notifies the panel.
type NoteTextRequest struct {
	Text string `json:"text"`
}

// --- Handlers ---

// HandleGetPanel handles GET /panel
func (h *PanelHandler) HandleGetPanel(w http.ResponseWriter, r *http.Request) {
	view, err := h.panelService.CallerView(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// HandleSetCall handles PUT /call
func (h *PanelHandler) HandleSetCall(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[SetCallRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	view, err := h.panelService.SetCaller(r.Context(), sessionID(r), domain.CallerContext{
		CallerNumber: strings.TrimSpace(req.CallerNumber),
		CallerName:   strings.TrimSpace(req.CallerName),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// HandleEndCall handles DELETE /call
func (h *PanelHandler) HandleEndCall(w http.ResponseWriter, r *http.Request) {
	view, err := h.panelService.EndCall(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// HandleRefreshTickets handles POST /tickets/refresh
func (h *PanelHandler) HandleRefreshTickets(w http.ResponseWriter, r *http.Request) {
	view, err := h.panelService.RefreshTickets(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, view)
}

// HandleCreateTicket handles POST /tickets
func (h *PanelHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateTicketRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := domain.NewTicketParams{
		Subject:        strings.TrimSpace(req.Subject),
		Description:    req.Description,
		RequesterPhone: strings.TrimSpace(req.RequesterPhone),
		RequesterName:  strings.TrimSpace(req.RequesterName),
	}
	if req.Priority != "" {
		params.Priority = domain.ParseTicketPriority(req.Priority)
	}

	ticket, err := h.panelService.CreateTicket(r.Context(), sessionID(r), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created from call",
		"ticket_id", ticket.ID,
		"session_id", sessionID(r),
	)

	WriteCreated(w, ticket)
}

// HandleOpenTicket handles POST /tickets/{ticketID}/open
func (h *PanelHandler) HandleOpenTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := validation.ParseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.panelService.OpenTicket(r.Context(), sessionID(r), ticketID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteAccepted(w)
}

// HandleSubmitNote handles POST /tickets/{ticketID}/notes
func (h *PanelHandler) HandleSubmitNote(w http.ResponseWriter, r *http.Request) {
	ticketID, err := validation.ParseIDParam(r, "ticketID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[NoteTextRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.panelService.SubmitNote(r.Context(), sessionID(r), ticketID, req.Text); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	view, err := h.panelService.CallerView(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, view)
}

// HandleSetContact handles PUT /contact
func (h *PanelHandler) HandleSetContact(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[ContactRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	contact := domain.Contact{
		ID:    strings.TrimSpace(req.ID),
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}
	if err := h.panelService.SetContact(r.Context(), sessionID(r), contact); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// HandleOpenContact handles POST /contact/open
func (h *PanelHandler) HandleOpenContact(w http.ResponseWriter, r *http.Request) {
	if err := h.panelService.OpenContact(r.Context(), sessionID(r)); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteAccepted(w)
}

// HandleOpenDraft handles POST /draft
func (h *PanelHandler) HandleOpenDraft(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[OpenDraftRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	draft, err := h.panelService.OpenDraft(r.Context(), sessionID(r), req.TicketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, draft)
}

// HandleUpdateDraft handles PATCH /draft
func (h *PanelHandler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[NoteTextRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	draft, err := h.panelService.UpdateDraft(r.Context(), sessionID(r), req.Text)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, draft)
}

// HandleCancelDraft handles DELETE /draft
func (h *PanelHandler) HandleCancelDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.panelService.CancelDraft(r.Context(), sessionID(r)); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// sessionID returns the {sessionID} route parameter. The service validates it.
func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}
