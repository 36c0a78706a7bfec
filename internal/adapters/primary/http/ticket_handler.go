package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/opsdeck/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/opsdeck/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/opsdeck/helpdesk-backend/internal/auth"
	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

const maxTicketsPerPage = 100

var (
	ticketStatuses = []string{"open", "in_progress", "waiting", "resolved", "closed"}
	priorities     = []string{"critical", "high", "medium", "low"}
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService  ports.TicketService
	commentHandler *CommentHandler
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	commentHandler *CommentHandler,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService:  ticketService,
		commentHandler: commentHandler,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "ticket"),
	}
}

// Router sets up a new chi Router for all ticket-related routes.
func (h *TicketHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/", h.HandleUpdateTicket)
		r.Delete("/", h.HandleDeleteTicket)

		if h.commentHandler != nil {
			r.Mount("/comments", h.commentHandler.Router())
		}
	})
}

// --- Request DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	v.MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.Required("priority", r.Priority).
		OneOf("priority", r.Priority, priorities)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTicketRequest defines a partial ticket update; absent fields stay
// unchanged.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	AssigneeID  *string `json:"assigneeId"`
	Unassign    bool    `json:"unassign"`
}

// Validate validates the update ticket request
func (r *UpdateTicketRequest) Validate() error {
	v := validation.NewValidator()

	if r.Title != nil {
		v.Required("title", *r.Title).
			MaxLength("title", *r.Title, domain.MaxTitleLength)
	}
	if r.Description != nil {
		v.MaxLength("description", *r.Description, domain.MaxDescriptionLength)
	}
	if r.Status != nil {
		v.OneOf("status", *r.Status, ticketStatuses)
	}
	if r.Priority != nil {
		v.OneOf("priority", *r.Priority, priorities)
	}
	if r.AssigneeID != nil {
		v.UUID("assigneeId", *r.AssigneeID)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	pagination := validation.ParsePagination(r, maxTicketsPerPage)

	v := validation.NewValidator()
	params := ports.ListTicketsParams{
		Limit:  pagination.Limit + 1,
		Offset: pagination.Offset,
	}

	if status := validation.ParseStringQueryParam(r, "status"); status != nil {
		v.OneOf("status", *status, ticketStatuses)
		ticketStatus := domain.TicketStatus(*status)
		params.Status = &ticketStatus
	}
	if priority := validation.ParseStringQueryParam(r, "priority"); priority != nil {
		v.OneOf("priority", *priority, priorities)
		ticketPriority := domain.Priority(*priority)
		params.Priority = &ticketPriority
	}

	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	tickets, err := h.ticketService.ListTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginatedSimple(w, toTicketSnapshots(tickets), pagination.Limit, pagination.Offset)
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), ports.CreateTicketParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		RequesterID: claims.UserID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"ticket_number", ticket.TicketNumber,
		"user_id", claims.UserID,
	)

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleUpdateTicket handles PATCH /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateTicketParams{
		TicketID:    ticketID,
		Title:       req.Title,
		Description: req.Description,
		Unassign:    req.Unassign,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		params.Priority = &priority
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		params.AssigneeID = &assigneeID
	}

	ticket, err := h.ticketService.UpdateTicket(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket updated",
		"ticket_id", ticketID,
		"user_id", claims.UserID,
	)

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// HandleDeleteTicket handles DELETE /tickets/{ticketID}
func (h *TicketHandler) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.ticketService.DeleteTicket(r.Context(), ticketID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket deleted",
		"ticket_id", ticketID,
		"user_id", claims.UserID,
	)

	WriteNoContent(w)
}

// --- Helpers ---

func toTicketSnapshots(tickets []*domain.Ticket) []domain.TicketSnapshot {
	out := make([]domain.TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, domain.NewTicketSnapshot(ticket))
	}
	return out
}

func (h *TicketHandler) parseTicketID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "ticketID"))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, "Invalid ticket ID")
	}
	return id, nil
}

// getClaims extracts and validates user claims from the request context.
func (h *TicketHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}
