package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// ticketSeq keeps ticket numbers unique across tests sharing one database.
var ticketSeq atomic.Int64

func nextTicketNumber() string {
	return domain.FormatTicketNumber(time.Now().Year(), int(ticketSeq.Add(1))+1000)
}

// Helper to create a user for ticket tests
func createTestUser(t *testing.T, ctx context.Context) *domain.User {
	t.Helper()

	userRepo := NewUserRepository(testPool)
	user, err := domain.NewUser(domain.UserRegistrationParams{
		Email:     uuid.NewString() + "@example.com", // Ensure unique email
		FirstName: "Ticket",
		LastName:  "Requester",
		Password:  "Sup3rSecret",
	})
	require.NoError(t, err)

	created, err := userRepo.Create(ctx, user)
	require.NoError(t, err)
	return created
}

func newTestTicket(t *testing.T, requesterID uuid.UUID) *domain.Ticket {
	t.Helper()

	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       "Printer on fire",
		Description: "Third floor, again",
		Priority:    domain.PriorityMedium,
		RequesterID: requesterID,
	})
	require.NoError(t, err)
	ticket.TicketNumber = nextTicketNumber()
	return ticket
}

func TestTicketRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)

	requester := createTestUser(t, ctx)
	ticket := newTestTicket(t, requester.ID)

	created, err := ticketRepo.Create(ctx, ticket)
	require.NoError(t, err, "Failed to create ticket")
	assert.Equal(t, ticket.ID, created.ID)

	found, err := ticketRepo.GetByID(ctx, created.ID)
	require.NoError(t, err, "Failed to get ticket by ID")

	assert.Equal(t, ticket.TicketNumber, found.TicketNumber)
	assert.Equal(t, "Printer on fire", found.Title)
	assert.Equal(t, "Third floor, again", found.Description)
	assert.Equal(t, domain.PriorityMedium, found.Priority)
	assert.Equal(t, domain.StatusOpen, found.Status)
	assert.Equal(t, requester.ID, found.RequesterID)
	assert.Nil(t, found.AssigneeID)
	assert.Nil(t, found.SLADeadline)
}

func TestTicketRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)

	_, err := ticketRepo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)

	requester := createTestUser(t, ctx)

	critical := newTestTicket(t, requester.ID)
	critical.Priority = domain.PriorityCritical
	_, err := ticketRepo.Create(ctx, critical)
	require.NoError(t, err)

	resolved := newTestTicket(t, requester.ID)
	require.NoError(t, resolved.SetStatus(domain.StatusResolved, time.Now().UTC()))
	_, err = ticketRepo.Create(ctx, resolved)
	require.NoError(t, err)

	status := domain.StatusResolved
	byStatus, err := ticketRepo.List(ctx, ports.TicketFilter{Status: &status, Limit: 50})
	require.NoError(t, err)
	require.NotEmpty(t, byStatus)
	for _, tk := range byStatus {
		assert.Equal(t, domain.StatusResolved, tk.Status)
	}

	priority := domain.PriorityCritical
	byPriority, err := ticketRepo.List(ctx, ports.TicketFilter{Priority: &priority, Limit: 50})
	require.NoError(t, err)
	require.NotEmpty(t, byPriority)
	for _, tk := range byPriority {
		assert.Equal(t, domain.PriorityCritical, tk.Priority)
	}
}

func TestTicketRepository_Update(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)

	requester := createTestUser(t, ctx)
	assignee := createTestUser(t, ctx)

	created, err := ticketRepo.Create(ctx, newTestTicket(t, requester.ID))
	require.NoError(t, err)

	now := time.Now().UTC()
	created.Assign(&assignee.ID, now)
	require.NoError(t, created.SetStatus(domain.StatusResolved, now))

	updated, err := ticketRepo.Update(ctx, created)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusResolved, updated.Status)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, assignee.ID, *updated.AssigneeID)
	assert.NotNil(t, updated.ResolvedAt)
}

func TestTicketRepository_Delete(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)

	requester := createTestUser(t, ctx)
	created, err := ticketRepo.Create(ctx, newTestTicket(t, requester.ID))
	require.NoError(t, err)

	require.NoError(t, ticketRepo.Delete(ctx, created.ID))

	_, err = ticketRepo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	assert.ErrorIs(t, ticketRepo.Delete(ctx, created.ID), apperrors.ErrTicketNotFound)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)
	tm := NewTransactionManager(testPool)

	requester := createTestUser(t, ctx)
	ticket := newTestTicket(t, requester.ID)

	boom := errors.New("boom")
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := ticketRepo.Create(txCtx, ticket); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = ticketRepo.GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}
