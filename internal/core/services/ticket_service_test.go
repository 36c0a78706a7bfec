package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/mocks"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ticketServiceFixture struct {
	ticketRepo  *mocks.MockTicketRepository
	slaRepo     *mocks.MockSLARepository
	txManager   *mocks.MockTransactionManager
	broadcaster *mocks.MockEventBroadcaster
	notifier    *mocks.MockNotifier
	svc         *TicketService
}

func newTicketServiceFixture() *ticketServiceFixture {
	f := &ticketServiceFixture{
		ticketRepo:  new(mocks.MockTicketRepository),
		slaRepo:     new(mocks.MockSLARepository),
		txManager:   new(mocks.MockTransactionManager),
		broadcaster: new(mocks.MockEventBroadcaster),
		notifier:    new(mocks.MockNotifier),
	}
	f.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("Notify", mock.Anything, mock.Anything).Maybe()
	f.svc = NewTicketService(f.ticketRepo, f.slaRepo, f.txManager, f.broadcaster, f.notifier, testLogger())
	return f
}

// passthroughCreate wires Create to hand back whatever ticket the service
// built, so assertions can run against the service's output.
func (f *ticketServiceFixture) passthroughCreate() *mocks.MockTicketRepository {
	call := f.ticketRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Ticket"))
	call.Run(func(args mock.Arguments) {
		call.ReturnArguments = mock.Arguments{args.Get(1), nil}
	})
	return f.ticketRepo
}

func (f *ticketServiceFixture) passthroughUpdate() *mocks.MockTicketRepository {
	call := f.ticketRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Ticket"))
	call.Run(func(args mock.Arguments) {
		call.ReturnArguments = mock.Arguments{args.Get(1), nil}
	})
	return f.ticketRepo
}

func TestTicketService_CreateTicket(t *testing.T) {
	ctx := context.Background()
	requester := uuid.New()

	t.Run("allocates ticket number and SLA deadline", func(t *testing.T) {
		f := newTicketServiceFixture()

		template, err := domain.NewSLATemplate(domain.SLATemplateParams{
			Name:           "Critical",
			Priority:       domain.PriorityCritical,
			ResponseTime:   15,
			ResolutionTime: 240,
		})
		require.NoError(t, err)

		f.ticketRepo.On("Count", ctx).Return(int64(41), nil)
		f.slaRepo.On("ListActive", ctx).Return([]*domain.SLATemplate{template}, nil)
		f.passthroughCreate()
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		created, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "VPN down",
			Description: "Cannot connect since this morning",
			Priority:    domain.PriorityCritical,
			RequesterID: requester,
		})
		require.NoError(t, err)

		year := time.Now().UTC().Year()
		assert.Equal(t, domain.FormatTicketNumber(year, 42), created.TicketNumber)
		require.NotNil(t, created.SLADeadline)
		require.NotNil(t, created.SLATemplateID)
		assert.Equal(t, template.ID, *created.SLATemplateID)
		assert.WithinDuration(t, time.Now().UTC().Add(240*time.Minute), *created.SLADeadline, 5*time.Second)

		f.broadcaster.AssertCalled(t, "Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Name == domain.EventTicketCreated
		}))
	})

	t.Run("no matching template leaves SLA unset", func(t *testing.T) {
		f := newTicketServiceFixture()

		f.ticketRepo.On("Count", ctx).Return(int64(0), nil)
		f.slaRepo.On("ListActive", ctx).Return([]*domain.SLATemplate{}, nil)
		f.passthroughCreate()
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		created, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "Printer jam",
			Priority:    domain.PriorityLow,
			RequesterID: requester,
		})
		require.NoError(t, err)
		assert.Nil(t, created.SLADeadline)
		assert.Nil(t, created.SLATemplateID)
	})

	t.Run("allocation and insert share one transaction", func(t *testing.T) {
		f := newTicketServiceFixture()

		f.ticketRepo.On("Count", ctx).Return(int64(7), nil)
		f.slaRepo.On("ListActive", ctx).Return([]*domain.SLATemplate{}, nil)
		f.passthroughCreate()
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "Badge reader offline",
			Priority:    domain.PriorityMedium,
			RequesterID: requester,
		})
		require.NoError(t, err)
		f.txManager.AssertNumberOfCalls(t, "WithTransaction", 1)
	})

	t.Run("transaction failure aborts the create", func(t *testing.T) {
		f := newTicketServiceFixture()

		f.slaRepo.On("ListActive", ctx).Return([]*domain.SLATemplate{}, nil)
		f.txManager.ExpectedCalls = nil
		f.txManager.On("WithTransaction", mock.Anything, mock.Anything).
			Return(errors.New("serialization conflict"))

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "Wifi drops",
			Priority:    domain.PriorityLow,
			RequesterID: requester,
		})
		assert.Error(t, err)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("invalid params never reach the repository", func(t *testing.T) {
		f := newTicketServiceFixture()

		_, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Priority:    domain.PriorityHigh,
			RequesterID: requester,
		})
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
		f.ticketRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.txManager.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
	})

	t.Run("broadcast failure does not fail the create", func(t *testing.T) {
		f := newTicketServiceFixture()

		f.ticketRepo.On("Count", ctx).Return(int64(0), nil)
		f.slaRepo.On("ListActive", ctx).Return([]*domain.SLATemplate{}, nil)
		f.passthroughCreate()
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).
			Return(errors.New("hub shut down"))

		created, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "Monitor flicker",
			Priority:    domain.PriorityMedium,
			RequesterID: requester,
		})
		require.NoError(t, err)
		assert.NotNil(t, created)
	})
}

func TestTicketService_UpdateTicket(t *testing.T) {
	ctx := context.Background()

	newStoredTicket := func(t *testing.T) *domain.Ticket {
		t.Helper()
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Laptop battery",
			Priority:    domain.PriorityMedium,
			RequesterID: uuid.New(),
		})
		require.NoError(t, err)
		return ticket
	}

	t.Run("resolving stamps resolvedAt and announces update", func(t *testing.T) {
		f := newTicketServiceFixture()

		stored := newStoredTicket(t)
		f.ticketRepo.On("GetByID", ctx, stored.ID).Return(stored, nil)
		f.passthroughUpdate()
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		status := domain.StatusResolved
		updated, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: stored.ID,
			Status:   &status,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusResolved, updated.Status)
		assert.NotNil(t, updated.ResolvedAt)

		f.broadcaster.AssertCalled(t, "Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Name == domain.EventTicketUpdated
		}))
	})

	t.Run("unassign clears the assignee", func(t *testing.T) {
		f := newTicketServiceFixture()

		stored := newStoredTicket(t)
		assignee := uuid.New()
		stored.Assign(&assignee, time.Now().UTC())

		f.ticketRepo.On("GetByID", ctx, stored.ID).Return(stored, nil)
		f.passthroughUpdate()
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		updated, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: stored.ID,
			Unassign: true,
		})
		require.NoError(t, err)
		assert.Nil(t, updated.AssigneeID)
	})

	t.Run("invalid status is rejected before the write", func(t *testing.T) {
		f := newTicketServiceFixture()

		stored := newStoredTicket(t)
		f.ticketRepo.On("GetByID", ctx, stored.ID).Return(stored, nil)

		status := domain.TicketStatus("archived")
		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{
			TicketID: stored.ID,
			Status:   &status,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		f.ticketRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown ticket propagates not found", func(t *testing.T) {
		f := newTicketServiceFixture()

		id := uuid.New()
		f.ticketRepo.On("GetByID", ctx, id).Return(nil, apperrors.ErrTicketNotFound)

		_, err := f.svc.UpdateTicket(ctx, ports.UpdateTicketParams{TicketID: id})
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})
}

func TestTicketService_DeleteTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("announces deletion with the removed id", func(t *testing.T) {
		f := newTicketServiceFixture()

		id := uuid.New()
		f.ticketRepo.On("Delete", ctx, id).Return(nil)
		f.broadcaster.On("Broadcast", mock.AnythingOfType("domain.Event")).Return(nil)

		require.NoError(t, f.svc.DeleteTicket(ctx, id))

		f.broadcaster.AssertCalled(t, "Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			payload, ok := e.Data.(domain.DeletedPayload)
			return ok && e.Name == domain.EventTicketDeleted && payload.ID == id.String()
		}))
	})

	t.Run("repository failure skips the announcement", func(t *testing.T) {
		f := newTicketServiceFixture()

		id := uuid.New()
		f.ticketRepo.On("Delete", ctx, id).Return(apperrors.ErrTicketNotFound)

		assert.ErrorIs(t, f.svc.DeleteTicket(ctx, id), apperrors.ErrTicketNotFound)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})
}
