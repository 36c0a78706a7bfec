package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
)

// EventBroadcaster is the port through which the rest of the system pushes
// change notifications to connected browsers. Both methods serialize the
// event once and deliver it best-effort, at most once per connection; a
// failed send is never retried and never surfaces to other connections.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
	SendToUser(userID string, event domain.Event) error
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
}

// CreateTicketParams defines the input for creating a new ticket.
type CreateTicketParams struct {
	Title       string
	Description string
	Priority    domain.Priority
	RequesterID uuid.UUID
}

// UpdateTicketParams defines a partial update; nil fields are unchanged.
type UpdateTicketParams struct {
	TicketID    uuid.UUID
	Title       *string
	Description *string
	Status      *domain.TicketStatus
	Priority    *domain.Priority
	AssigneeID  *uuid.UUID
	Unassign    bool
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	Status   *domain.TicketStatus
	Priority *domain.Priority
	Limit    int
	Offset   int
}

// TicketService defines the core business operations for tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, error)
	UpdateTicket(ctx context.Context, params UpdateTicketParams) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id uuid.UUID) error
}

// CreateCommentParams defines the input for creating a comment.
type CreateCommentParams struct {
	TicketID   uuid.UUID
	AuthorID   uuid.UUID
	Content    string
	IsInternal bool
}

// CommentService defines the port for ticket comment operations.
type CommentService interface {
	CreateComment(ctx context.Context, params CreateCommentParams) (*domain.Comment, error)
	ListComments(ctx context.Context, ticketID uuid.UUID) ([]*domain.Comment, error)
	UpdateComment(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// CreateProjectParams defines the input for creating a project.
type CreateProjectParams struct {
	Name        string
	Description string
	OwnerID     uuid.UUID
	DueDate     *time.Time
}

// UpdateProjectParams defines a partial project update.
type UpdateProjectParams struct {
	ProjectID   uuid.UUID
	Name        *string
	Description *string
	Status      *domain.ProjectStatus
	DueDate     *time.Time
}

// CreateTaskParams defines the input for creating a Kanban task.
type CreateTaskParams struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
	AssigneeID  *uuid.UUID
	Position    int
}

// UpdateTaskParams defines a partial task update.
type UpdateTaskParams struct {
	TaskID      uuid.UUID
	Title       *string
	Description *string
	Status      *string
	AssigneeID  *uuid.UUID
	Position    *int
	Completed   *bool
}

// ProjectService defines project, task, and membership operations.
type ProjectService interface {
	CreateProject(ctx context.Context, params CreateProjectParams) (*domain.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	UpdateProject(ctx context.Context, params UpdateProjectParams) (*domain.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*domain.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) (*domain.Member, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error)
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
}

// CreateSLATemplateParams defines the input for creating an SLA template.
type CreateSLATemplateParams struct {
	Name           string
	Priority       domain.Priority
	ResponseTime   int
	ResolutionTime int
}

// UpdateSLATemplateParams defines a partial template update.
type UpdateSLATemplateParams struct {
	TemplateID     uuid.UUID
	Name           *string
	Priority       *domain.Priority
	ResponseTime   *int
	ResolutionTime *int
}

// SLAService defines SLA template operations.
type SLAService interface {
	CreateTemplate(ctx context.Context, params CreateSLATemplateParams) (*domain.SLATemplate, error)
	ListTemplates(ctx context.Context) ([]*domain.SLATemplate, error)
	UpdateTemplate(ctx context.Context, params UpdateSLATemplateParams) (*domain.SLATemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

// UpdateUserParams defines a partial user profile update.
type UpdateUserParams struct {
	UserID          uuid.UUID
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
	Phone           *string
	Role            *domain.UserRole
	Department      *string
	Active          *bool
}

// UserService defines account listing and profile updates.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, params UpdateUserParams) (*domain.User, error)
}

// StatsService computes the dashboard aggregates.
type StatsService interface {
	GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}
