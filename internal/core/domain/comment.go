package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

// MaxCommentLength bounds a single comment body.
const MaxCommentLength = 10000

// Comment is a message attached to a ticket. Internal comments are only
// shown to technicians and admins.
type Comment struct {
	ID         uuid.UUID
	TicketID   uuid.UUID
	UserID     uuid.UUID
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}

// CommentParams holds the validated inputs for creating a comment.
type CommentParams struct {
	TicketID   uuid.UUID
	UserID     uuid.UUID
	Content    string
	IsInternal bool
}

// NewComment creates a valid comment.
func NewComment(params CommentParams) (*Comment, error) {
	if params.Content == "" {
		return nil, apperrors.ErrCommentContentRequired
	}
	if len(params.Content) > MaxCommentLength {
		return nil, apperrors.ErrCommentContentTooLong
	}

	return &Comment{
		ID:         uuid.New(),
		TicketID:   params.TicketID,
		UserID:     params.UserID,
		Content:    params.Content,
		IsInternal: params.IsInternal,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
