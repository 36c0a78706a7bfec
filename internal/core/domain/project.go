package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
)

// ProjectStatus represents the lifecycle phase of a project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectReview     ProjectStatus = "review"
	ProjectCompleted  ProjectStatus = "completed"
)

// ValidProjectStatuses lists every accepted project status.
var ValidProjectStatuses = []ProjectStatus{
	ProjectPlanning, ProjectInProgress, ProjectReview, ProjectCompleted,
}

// IsValidProjectStatus reports whether s is a known project status.
func IsValidProjectStatus(s ProjectStatus) bool {
	for _, valid := range ValidProjectStatuses {
		if s == valid {
			return true
		}
	}
	return false
}

// Task board columns.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// Project groups Kanban tasks and members under an owner.
type Project struct {
	ID          uuid.UUID
	Name        string
	Description string
	Status      ProjectStatus
	OwnerID     uuid.UUID
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectParams holds the validated inputs for creating a project.
type ProjectParams struct {
	Name        string
	Description string
	OwnerID     uuid.UUID
	DueDate     *time.Time
}

// NewProject creates a valid project in the planning phase.
func NewProject(params ProjectParams) (*Project, error) {
	if params.Name == "" {
		return nil, apperrors.ErrProjectNameRequired
	}

	now := time.Now().UTC()
	return &Project{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Status:      ProjectPlanning,
		OwnerID:     params.OwnerID,
		DueDate:     params.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Task is a Kanban card nested under a project.
type Task struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Title       string
	Description string
	Status      string
	AssigneeID  *uuid.UUID
	Position    int
	Completed   bool
	CreatedAt   time.Time
}

// TaskParams holds the validated inputs for creating a task.
type TaskParams struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
	AssigneeID  *uuid.UUID
	Position    int
}

// NewTask creates a valid task in the todo column.
func NewTask(params TaskParams) (*Task, error) {
	if params.Title == "" {
		return nil, apperrors.ErrTaskTitleRequired
	}

	return &Task{
		ID:          uuid.New(),
		ProjectID:   params.ProjectID,
		Title:       params.Title,
		Description: params.Description,
		Status:      TaskTodo,
		AssigneeID:  params.AssigneeID,
		Position:    params.Position,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Member links a user to a project with a role string ("owner", "member").
type Member struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      string
	AddedAt   time.Time
}

// NewMember creates a project membership; an empty role defaults to "member".
func NewMember(projectID, userID uuid.UUID, role string) *Member {
	if role == "" {
		role = "member"
	}
	return &Member{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		AddedAt:   time.Now().UTC(),
	}
}
