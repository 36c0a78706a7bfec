package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
)

// TicketFilter narrows ticket listings. Nil fields mean "no filter".
type TicketFilter struct {
	Status   *domain.TicketStatus
	Priority *domain.Priority
	Limit    int32
	Offset   int32
}

// TicketRepository is the persistence port for tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Count returns the total number of tickets ever created, used to
	// allocate the next human-facing ticket number.
	Count(ctx context.Context) (int64, error)
}

// CommentRepository is the persistence port for ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SLARepository is the persistence port for SLA templates.
type SLARepository interface {
	Create(ctx context.Context, template *domain.SLATemplate) (*domain.SLATemplate, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SLATemplate, error)
	ListActive(ctx context.Context) ([]*domain.SLATemplate, error)
	Update(ctx context.Context, template *domain.SLATemplate) (*domain.SLATemplate, error)
	// Deactivate soft-deletes a template so historical tickets keep
	// their reference.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ProjectRepository is the persistence port for projects, their Kanban
// tasks, and their memberships.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) (*domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, member *domain.Member) (*domain.Member, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error)
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
}

// UserRepository is the persistence port for helpdesk accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListActive(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
}

// AnalyticsRepository aggregates ticket counters for the dashboard.
type AnalyticsRepository interface {
	GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
