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

// ProjectService implements business logic for projects, their Kanban
// tasks, and their memberships.
type ProjectService struct {
	projectRepo ports.ProjectRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.ProjectService = (*ProjectService)(nil)

// NewProjectService creates a new project service.
func NewProjectService(
	projectRepo ports.ProjectRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		broadcaster: broadcaster,
		logger:      logger.With("service", "project"),
	}
}

// CreateProject creates a project owned by the acting user.
func (s *ProjectService) CreateProject(ctx context.Context, params ports.CreateProjectParams) (*domain.Project, error) {
	project, err := domain.NewProject(domain.ProjectParams{
		Name:        params.Name,
		Description: params.Description,
		OwnerID:     params.OwnerID,
		DueDate:     params.DueDate,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.projectRepo.Create(ctx, project)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewProjectCreated(created))
	return created, nil
}

// GetProject retrieves a single project.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects returns every project, newest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.projectRepo.List(ctx)
}

// UpdateProject applies a partial update.
func (s *ProjectService) UpdateProject(ctx context.Context, params ports.UpdateProjectParams) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, params.ProjectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.ErrProjectNameRequired
		}
		project.Name = *params.Name
	}
	if params.Description != nil {
		project.Description = *params.Description
	}
	if params.Status != nil {
		if !domain.IsValidProjectStatus(*params.Status) {
			return nil, apperrors.ErrInvalidProjectStatus
		}
		project.Status = *params.Status
	}
	if params.DueDate != nil {
		project.DueDate = params.DueDate
	}
	project.UpdatedAt = now

	updated, err := s.projectRepo.Update(ctx, project)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewProjectUpdated(updated))
	return updated, nil
}

// DeleteProject removes a project along with its tasks and members.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.announce(domain.NewProjectDeleted(id))
	return nil
}

// CreateTask adds a Kanban card to a project's board.
func (s *ProjectService) CreateTask(ctx context.Context, params ports.CreateTaskParams) (*domain.Task, error) {
	if _, err := s.projectRepo.GetByID(ctx, params.ProjectID); err != nil {
		return nil, err
	}

	task, err := domain.NewTask(domain.TaskParams{
		ProjectID:   params.ProjectID,
		Title:       params.Title,
		Description: params.Description,
		AssigneeID:  params.AssigneeID,
		Position:    params.Position,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.projectRepo.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewTaskCreated(created))
	return created, nil
}

// ListTasks returns a project's tasks in board order.
func (s *ProjectService) ListTasks(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return s.projectRepo.ListTasks(ctx, projectID)
}

// UpdateTask applies a partial update to a Kanban card.
func (s *ProjectService) UpdateTask(ctx context.Context, params ports.UpdateTaskParams) (*domain.Task, error) {
	task, err := s.projectRepo.GetTaskByID(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		if *params.Title == "" {
			return nil, apperrors.ErrTaskTitleRequired
		}
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.Status != nil {
		task.Status = *params.Status
	}
	if params.AssigneeID != nil {
		task.AssigneeID = params.AssigneeID
	}
	if params.Position != nil {
		task.Position = *params.Position
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}

	updated, err := s.projectRepo.UpdateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewTaskUpdated(updated))
	return updated, nil
}

// DeleteTask removes a Kanban card.
func (s *ProjectService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.announce(domain.NewTaskDeleted(id))
	return nil
}

// AddMember links a user to a project.
func (s *ProjectService) AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) (*domain.Member, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	member, err := s.projectRepo.AddMember(ctx, domain.NewMember(projectID, userID, role))
	if err != nil {
		return nil, err
	}

	s.announce(domain.NewMemberAdded(member))
	return member, nil
}

// ListMembers returns a project's membership roster.
func (s *ProjectService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error) {
	return s.projectRepo.ListMembers(ctx, projectID)
}

// RemoveMember unlinks a user from a project.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if err := s.projectRepo.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}

	s.announce(domain.NewMemberRemoved(projectID, userID))
	return nil
}

func (s *ProjectService) announce(event domain.Event) {
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event",
			"event", event.Name,
			"error", err,
		)
	}
}
