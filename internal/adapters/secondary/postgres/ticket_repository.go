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

const ticketColumns = `id, ticket_number, title, description, status, priority,
	requester_id, assignee_id, sla_template_id, sla_deadline, sla_breach,
	created_at, updated_at, resolved_at, closed_at`

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t           domain.Ticket
		id          pgtype.UUID
		description pgtype.Text
		requesterID pgtype.UUID
		assigneeID  pgtype.UUID
		templateID  pgtype.UUID
		slaDeadline pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		resolvedAt  pgtype.Timestamptz
		closedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &t.TicketNumber, &t.Title, &description, &t.Status, &t.Priority,
		&requesterID, &assigneeID, &templateID, &slaDeadline, &t.SLABreach,
		&createdAt, &updatedAt, &resolvedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ID = id.Bytes
	t.Description = fromText(description)
	t.RequesterID = uuid.UUID(requesterID.Bytes)
	t.AssigneeID = uuidPtr(assigneeID)
	t.SLATemplateID = uuidPtr(templateID)
	t.SLADeadline = timePtr(slaDeadline)
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time
	t.ResolvedAt = timePtr(resolvedAt)
	t.ClosedAt = timePtr(closedAt)

	return &t, nil
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
INSERT INTO tickets (id, ticket_number, title, description, status, priority,
	requester_id, assignee_id, sla_template_id, sla_deadline, sla_breach,
	created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + ticketColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(ticket.ID),
		ticket.TicketNumber,
		ticket.Title,
		pgText(ticket.Description),
		string(ticket.Status),
		string(ticket.Priority),
		pgUUID(ticket.RequesterID),
		pgUUIDPtr(ticket.AssigneeID),
		pgUUIDPtr(ticket.SLATemplateID),
		pgTimePtr(ticket.SLADeadline),
		ticket.SLABreach,
		pgTime(ticket.CreatedAt),
		pgTime(ticket.UpdatedAt),
	)

	return scanTicket(row)
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// List retrieves tickets matching the filter, newest first.
func (r *TicketRepository) List(ctx context.Context, filter ports.TicketFilter) ([]*domain.Ticket, error) {
	const query = `
SELECT ` + ticketColumns + `
FROM tickets
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR priority = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

	var status, priority pgtype.Text
	if filter.Status != nil {
		status = pgText(string(*filter.Status))
	}
	if filter.Priority != nil {
		priority = pgText(string(*filter.Priority))
	}

	rows, err := querier(ctx, r.pool).Query(ctx, query, status, priority, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Update persists changes to an existing ticket entity.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
UPDATE tickets
SET title = $2, description = $3, status = $4, priority = $5,
	assignee_id = $6, sla_deadline = $7, sla_breach = $8,
	updated_at = $9, resolved_at = $10, closed_at = $11
WHERE id = $1
RETURNING ` + ticketColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(ticket.ID),
		ticket.Title,
		pgText(ticket.Description),
		string(ticket.Status),
		string(ticket.Priority),
		pgUUIDPtr(ticket.AssigneeID),
		pgTimePtr(ticket.SLADeadline),
		ticket.SLABreach,
		pgTime(ticket.UpdatedAt),
		pgTimePtr(ticket.ResolvedAt),
		pgTimePtr(ticket.ClosedAt),
	)

	updated, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a ticket permanently.
func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM tickets WHERE id = $1`

	tag, err := querier(ctx, r.pool).Exec(ctx, query, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

// Count returns the total number of tickets, used to allocate the next
// human-facing ticket number.
func (r *TicketRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets`

	var count int64
	if err := querier(ctx, r.pool).QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
