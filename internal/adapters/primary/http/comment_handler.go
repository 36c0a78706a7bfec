package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/opsdeck/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/opsdeck/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// CommentHandler handles HTTP requests for ticket comments. Its routes
// are mounted under /tickets/{ticketID}/comments.
type CommentHandler struct {
	commentService ports.CommentService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(
	commentService ports.CommentService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "comment"),
	}
}

// Router sets up a new chi Router for all comment routes.
func (h *CommentHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.HandleListComments)
	r.Post("/", h.HandleCreateComment)
	r.Patch("/{commentID}", h.HandleUpdateComment)
	r.Delete("/{commentID}", h.HandleDeleteComment)

	return r
}

// CreateCommentRequest defines the expected JSON body for creating a comment
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
}

// Validate validates the create comment request
func (r *CreateCommentRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("content", r.Content).
		MaxLength("content", r.Content, domain.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateCommentRequest defines the expected JSON body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// Validate validates the update comment request
func (r *UpdateCommentRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("content", r.Content).
		MaxLength("content", r.Content, domain.MaxCommentLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListComments handles GET /tickets/{ticketID}/comments
func (h *CommentHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]domain.CommentSnapshot, 0, len(comments))
	for _, comment := range comments {
		out = append(out, domain.NewCommentSnapshot(comment))
	}

	WriteList(w, out)
}

// HandleCreateComment handles POST /tickets/{ticketID}/comments
func (h *CommentHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateCommentRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), ports.CreateCommentParams{
		TicketID:   ticketID,
		AuthorID:   claims.UserID,
		Content:    req.Content,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("comment created",
		"comment_id", comment.ID,
		"ticket_id", ticketID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, domain.NewCommentSnapshot(comment))
}

// HandleUpdateComment handles PATCH /tickets/{ticketID}/comments/{commentID}
func (h *CommentHandler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := h.parseCommentID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateCommentRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	comment, err := h.commentService.UpdateComment(r.Context(), commentID, req.Content)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewCommentSnapshot(comment))
}

// HandleDeleteComment handles DELETE /tickets/{ticketID}/comments/{commentID}
func (h *CommentHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := h.parseCommentID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), commentID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

func (h *CommentHandler) parseTicketID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "ticketID"))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, "Invalid ticket ID")
	}
	return id, nil
}

func (h *CommentHandler) parseCommentID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, "Invalid comment ID")
	}
	return id, nil
}
