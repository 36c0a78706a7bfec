package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// TicketService implements business logic for ticket management.
type TicketService struct {
	ticketRepo  ports.TicketRepository
	slaRepo     ports.SLARepository
	txManager   ports.TransactionManager
	broadcaster ports.EventBroadcaster
	notifier    ports.Notifier
	logger      *slog.Logger
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service.
func NewTicketService(
	ticketRepo ports.TicketRepository,
	slaRepo ports.SLARepository,
	txManager ports.TransactionManager,
	broadcaster ports.EventBroadcaster,
	notifier ports.Notifier,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:  ticketRepo,
		slaRepo:     slaRepo,
		txManager:   txManager,
		broadcaster: broadcaster,
		notifier:    notifier,
		logger:      logger.With("service", "ticket"),
	}
}

// CreateTicket handles the use case for submitting a new ticket: the ticket
// number is allocated, the SLA deadline is stamped from the active template
// matching the priority, and the creation is announced after the write
// commits. Number allocation and the insert share one transaction so
// concurrent submissions cannot race on the count.
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		RequesterID: params.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	templates, err := s.slaRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var created *domain.Ticket
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		count, err := s.ticketRepo.Count(ctx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		ticket.TicketNumber = domain.FormatTicketNumber(now.Year(), int(count)+1)

		if template := domain.MatchSLATemplate(templates, ticket.Priority); template != nil {
			ticket.ApplySLA(template, now)
		}

		created, err = s.ticketRepo.Create(ctx, ticket)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewTicketCreated(created))
	return created, nil
}

// GetTicket retrieves a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

// ListTickets retrieves tickets with optional status/priority filters.
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	filter := ports.TicketFilter{
		Status:   params.Status,
		Priority: params.Priority,
		Limit:    int32(params.Limit),
		Offset:   int32(params.Offset),
	}
	return s.ticketRepo.List(ctx, filter)
}

// UpdateTicket applies a partial update. Transitions into resolved/closed
// stamp the respective timestamps.
func (s *TicketService) UpdateTicket(ctx context.Context, params ports.UpdateTicketParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if params.Title != nil {
		ticket.Title = *params.Title
		ticket.UpdatedAt = now
	}
	if params.Description != nil {
		ticket.Description = *params.Description
		ticket.UpdatedAt = now
	}
	if params.Priority != nil {
		if !domain.IsValidPriority(*params.Priority) {
			return nil, apperrors.ErrInvalidPriority
		}
		ticket.Priority = *params.Priority
		ticket.UpdatedAt = now
	}
	if params.Status != nil {
		if err := ticket.SetStatus(*params.Status, now); err != nil {
			return nil, err
		}
	}
	if params.Unassign {
		ticket.Assign(nil, now)
	} else if params.AssigneeID != nil {
		ticket.Assign(params.AssigneeID, now)
	}

	updated, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	if !params.Unassign && params.AssigneeID != nil {
		go s.notifier.Notify(ctx, ports.NotificationParams{
			RecipientUserID: *params.AssigneeID,
			Subject:         "Ticket assigned to you",
			TicketNumber:    updated.TicketNumber,
		})
	}

	s.announce(domain.NewTicketUpdated(updated))
	return updated, nil
}

// DeleteTicket removes a ticket and announces the removal.
func (s *TicketService) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	if err := s.ticketRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.announce(domain.NewTicketDeleted(id))
	return nil
}

// announce pushes an event to connected clients. The mutation has already
// committed, so failures are logged and swallowed.
func (s *TicketService) announce(event domain.Event) {
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event",
			"event", event.Name,
			"error", err,
		)
	}
}
