package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// CommentService implements business logic for ticket comments.
type CommentService struct {
	commentRepo ports.CommentRepository
	ticketRepo  ports.TicketRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.CommentService = (*CommentService)(nil)

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo ports.CommentRepository,
	ticketRepo ports.TicketRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		ticketRepo:  ticketRepo,
		broadcaster: broadcaster,
		logger:      logger.With("service", "comment"),
	}
}

// CreateComment attaches a comment to an existing ticket.
func (s *CommentService) CreateComment(ctx context.Context, params ports.CreateCommentParams) (*domain.Comment, error) {
	// The ticket must exist; a dangling comment is a client error.
	if _, err := s.ticketRepo.GetByID(ctx, params.TicketID); err != nil {
		return nil, err
	}

	comment, err := domain.NewComment(domain.CommentParams{
		TicketID:   params.TicketID,
		UserID:     params.AuthorID,
		Content:    params.Content,
		IsInternal: params.IsInternal,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.commentRepo.Create(ctx, comment)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewCommentCreated(created))
	return created, nil
}

// ListComments returns a ticket's comments in chronological order.
func (s *CommentService) ListComments(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error) {
	return s.commentRepo.ListByTicket(ctx, ticketID)
}

// UpdateComment replaces a comment's content.
func (s *CommentService) UpdateComment(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error) {
	if content == "" {
		return nil, apperrors.ErrCommentContentRequired
	}
	if len(content) > domain.MaxCommentLength {
		return nil, apperrors.ErrCommentContentTooLong
	}

	updated, err := s.commentRepo.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewCommentUpdated(updated))
	return updated, nil
}

// DeleteComment removes a comment and announces the removal.
func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.announce(domain.NewCommentDeleted(id))
	return nil
}

func (s *CommentService) announce(event domain.Event) {
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event",
			"event", event.Name,
			"error", err,
		)
	}
}
