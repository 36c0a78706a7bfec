package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

func TestNewTicket(t *testing.T) {
	requesterID := uuid.New()

	t.Run("creates an open ticket with defaults", func(t *testing.T) {
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Printer on fire",
			Description: "Third floor, again",
			Priority:    domain.PriorityHigh,
			RequesterID: requesterID,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
		assert.Equal(t, domain.PriorityHigh, ticket.Priority)
		assert.Equal(t, requesterID, ticket.RequesterID)
		assert.NotEqual(t, uuid.Nil, ticket.ID)
		assert.Nil(t, ticket.AssigneeID)
		assert.Nil(t, ticket.SLADeadline)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		_, err := domain.NewTicket(domain.TicketParams{
			Priority:    domain.PriorityLow,
			RequesterID: requesterID,
		})
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
	})

	t.Run("rejects overlong title", func(t *testing.T) {
		_, err := domain.NewTicket(domain.TicketParams{
			Title:       strings.Repeat("x", domain.MaxTitleLength+1),
			Priority:    domain.PriorityLow,
			RequesterID: requesterID,
		})
		assert.ErrorIs(t, err, apperrors.ErrTitleTooLong)
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		_, err := domain.NewTicket(domain.TicketParams{
			Title:       "Broken keyboard",
			Priority:    domain.Priority("urgent"),
			RequesterID: requesterID,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidPriority)
	})

	t.Run("rejects missing requester", func(t *testing.T) {
		_, err := domain.NewTicket(domain.TicketParams{
			Title:    "Broken keyboard",
			Priority: domain.PriorityLow,
		})
		assert.ErrorIs(t, err, apperrors.ErrRequesterRequired)
	})
}

func TestTicketSetStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	newTicket := func(t *testing.T) *domain.Ticket {
		t.Helper()
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "VPN down",
			Priority:    domain.PriorityCritical,
			RequesterID: uuid.New(),
		})
		require.NoError(t, err)
		return ticket
	}

	t.Run("stamps resolvedAt on resolution", func(t *testing.T) {
		ticket := newTicket(t)
		require.NoError(t, ticket.SetStatus(domain.StatusResolved, now))

		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, now, *ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("stamps closedAt on close", func(t *testing.T) {
		ticket := newTicket(t)
		require.NoError(t, ticket.SetStatus(domain.StatusClosed, now))

		require.NotNil(t, ticket.ClosedAt)
		assert.Equal(t, now, *ticket.ClosedAt)
	})

	t.Run("does not restamp resolvedAt", func(t *testing.T) {
		ticket := newTicket(t)
		require.NoError(t, ticket.SetStatus(domain.StatusResolved, now))
		later := now.Add(time.Hour)
		require.NoError(t, ticket.SetStatus(domain.StatusOpen, later))
		require.NoError(t, ticket.SetStatus(domain.StatusResolved, later))

		assert.Equal(t, now, *ticket.ResolvedAt)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		ticket := newTicket(t)
		err := ticket.SetStatus(domain.TicketStatus("archived"), now)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	})
}

func TestTicketApplySLA(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	template, err := domain.NewSLATemplate(domain.SLATemplateParams{
		Name:           "Critical response",
		Priority:       domain.PriorityCritical,
		ResponseTime:   30,
		ResolutionTime: 240,
	})
	require.NoError(t, err)

	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       "Mail server unreachable",
		Priority:    domain.PriorityCritical,
		RequesterID: uuid.New(),
	})
	require.NoError(t, err)

	ticket.ApplySLA(template, now)

	require.NotNil(t, ticket.SLADeadline)
	assert.Equal(t, now.Add(4*time.Hour), *ticket.SLADeadline)
	require.NotNil(t, ticket.SLATemplateID)
	assert.Equal(t, template.ID, *ticket.SLATemplateID)

	t.Run("overdue only after deadline and before resolution", func(t *testing.T) {
		assert.False(t, ticket.IsOverdue(now.Add(3*time.Hour)))
		assert.True(t, ticket.IsOverdue(now.Add(5*time.Hour)))

		require.NoError(t, ticket.SetStatus(domain.StatusResolved, now.Add(6*time.Hour)))
		assert.False(t, ticket.IsOverdue(now.Add(7*time.Hour)))
	})
}

func TestMatchSLATemplate(t *testing.T) {
	critical, err := domain.NewSLATemplate(domain.SLATemplateParams{
		Name: "Critical", Priority: domain.PriorityCritical, ResponseTime: 15, ResolutionTime: 120,
	})
	require.NoError(t, err)

	low, err := domain.NewSLATemplate(domain.SLATemplateParams{
		Name: "Low", Priority: domain.PriorityLow, ResponseTime: 480, ResolutionTime: 2880,
	})
	require.NoError(t, err)
	low.Active = false

	templates := []*domain.SLATemplate{critical, low}

	assert.Equal(t, critical, domain.MatchSLATemplate(templates, domain.PriorityCritical))
	assert.Nil(t, domain.MatchSLATemplate(templates, domain.PriorityLow), "inactive templates never match")
	assert.Nil(t, domain.MatchSLATemplate(templates, domain.PriorityMedium))
}

func TestFormatTicketNumber(t *testing.T) {
	assert.Equal(t, "2026-0001", domain.FormatTicketNumber(2026, 1))
	assert.Equal(t, "2026-0042", domain.FormatTicketNumber(2026, 42))
	assert.Equal(t, "2026-12345", domain.FormatTicketNumber(2026, 12345))
}
