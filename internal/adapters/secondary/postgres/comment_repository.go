package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

const commentColumns = `id, ticket_id, user_id, content, is_internal, created_at`

// CommentRepository is the secondary adapter for ticket comment persistence.
type CommentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(pool *pgxpool.Pool) ports.CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var (
		c         domain.Comment
		id        pgtype.UUID
		ticketID  pgtype.UUID
		userID    pgtype.UUID
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&id, &ticketID, &userID, &c.Content, &c.IsInternal, &createdAt); err != nil {
		return nil, err
	}

	c.ID = id.Bytes
	c.TicketID = ticketID.Bytes
	c.UserID = userID.Bytes
	c.CreatedAt = createdAt.Time

	return &c, nil
}

// Create persists a new comment entity.
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	const query = `
INSERT INTO ticket_comments (id, ticket_id, user_id, content, is_internal, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + commentColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(comment.ID),
		pgUUID(comment.TicketID),
		pgUUID(comment.UserID),
		comment.Content,
		comment.IsInternal,
		pgTime(comment.CreatedAt),
	)

	return scanComment(row)
}

// GetByID retrieves a single comment by its ID.
func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	const query = `SELECT ` + commentColumns + ` FROM ticket_comments WHERE id = $1`

	comment, err := scanComment(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// ListByTicket retrieves all comments for a ticket, oldest first.
func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error) {
	const query = `
SELECT ` + commentColumns + `
FROM ticket_comments
WHERE ticket_id = $1
ORDER BY created_at ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query, pgUUID(ticketID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// UpdateContent replaces a comment's content.
func (r *CommentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error) {
	const query = `
UPDATE ticket_comments
SET content = $2
WHERE id = $1
RETURNING ` + commentColumns

	comment, err := scanComment(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id), content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment permanently.
func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM ticket_comments WHERE id = $1`

	tag, err := querier(ctx, r.pool).Exec(ctx, query, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
