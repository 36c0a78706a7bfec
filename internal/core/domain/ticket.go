package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

// Field length limits for tickets.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusWaiting    TicketStatus = "waiting"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// ValidTicketStatuses lists every accepted ticket status.
var ValidTicketStatuses = []TicketStatus{
	StatusOpen, StatusInProgress, StatusWaiting, StatusResolved, StatusClosed,
}

// IsValidTicketStatus reports whether s is a known ticket status.
func IsValidTicketStatus(s TicketStatus) bool {
	for _, valid := range ValidTicketStatuses {
		if s == valid {
			return true
		}
	}
	return false
}

// Priority represents the urgency of a ticket or SLA template.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ValidPriorities lists every accepted priority.
var ValidPriorities = []Priority{
	PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow,
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p Priority) bool {
	for _, valid := range ValidPriorities {
		if p == valid {
			return true
		}
	}
	return false
}

// Ticket is the core helpdesk entity.
type Ticket struct {
	ID            uuid.UUID
	TicketNumber  string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      Priority
	RequesterID   uuid.UUID
	AssigneeID    *uuid.UUID
	SLATemplateID *uuid.UUID
	SLADeadline   *time.Time
	SLABreach     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
	ClosedAt      *time.Time
}

// TicketParams holds the validated inputs for creating a ticket.
type TicketParams struct {
	Title       string
	Description string
	Priority    Priority
	RequesterID uuid.UUID
}

// NewTicket is a factory function to create a valid new ticket.
func NewTicket(params TicketParams) (*Ticket, error) {
	if params.Title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if len(params.Title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}
	if len(params.Description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}
	if !IsValidPriority(params.Priority) {
		return nil, apperrors.ErrInvalidPriority
	}
	if params.RequesterID == uuid.Nil {
		return nil, apperrors.ErrRequesterRequired
	}

	now := time.Now().UTC()
	return &Ticket{
		ID:          uuid.New(),
		Title:       params.Title,
		Description: params.Description,
		Status:      StatusOpen,
		Priority:    params.Priority,
		RequesterID: params.RequesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// FormatTicketNumber renders the human-facing ticket number for a given
// year and sequence, e.g. "2026-0042".
func FormatTicketNumber(year, sequence int) string {
	return fmt.Sprintf("%d-%04d", year, sequence)
}

// ApplySLA stamps the ticket with the deadline derived from the template's
// resolution time, measured from now.
func (t *Ticket) ApplySLA(template *SLATemplate, now time.Time) {
	deadline := now.Add(time.Duration(template.ResolutionTime) * time.Minute)
	t.SLATemplateID = &template.ID
	t.SLADeadline = &deadline
}

// SetStatus changes the ticket's status, stamping resolution and close
// timestamps on the transitions that establish them.
func (t *Ticket) SetStatus(status TicketStatus, now time.Time) error {
	if !IsValidTicketStatus(status) {
		return apperrors.ErrInvalidStatus
	}

	t.Status = status
	t.UpdatedAt = now

	switch status {
	case StatusResolved:
		if t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
	case StatusClosed:
		if t.ClosedAt == nil {
			t.ClosedAt = &now
		}
	}
	return nil
}

// Assign sets or clears the assignee of the ticket.
func (t *Ticket) Assign(assigneeID *uuid.UUID, now time.Time) {
	t.AssigneeID = assigneeID
	t.UpdatedAt = now
}

// IsOverdue reports whether the SLA deadline has passed without resolution.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.SLADeadline == nil || t.ResolvedAt != nil {
		return false
	}
	return now.After(*t.SLADeadline)
}
