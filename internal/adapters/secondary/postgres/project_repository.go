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

const (
	projectColumns = `id, name, description, status, owner_id, due_date, created_at, updated_at`
	taskColumns    = `id, project_id, title, description, status, assignee_id, position, completed, created_at`
	memberColumns  = `id, project_id, user_id, role, added_at`
)

// ProjectRepository is the secondary adapter for project, task, and
// membership persistence.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new project repository.
func NewProjectRepository(pool *pgxpool.Pool) ports.ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p           domain.Project
		id          pgtype.UUID
		description pgtype.Text
		ownerID     pgtype.UUID
		dueDate     pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)

	err := row.Scan(&id, &p.Name, &description, &p.Status, &ownerID, &dueDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.ID = id.Bytes
	p.Description = fromText(description)
	p.OwnerID = ownerID.Bytes
	p.DueDate = timePtr(dueDate)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		t           domain.Task
		id          pgtype.UUID
		projectID   pgtype.UUID
		description pgtype.Text
		assigneeID  pgtype.UUID
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(&id, &projectID, &t.Title, &description, &t.Status, &assigneeID,
		&t.Position, &t.Completed, &createdAt)
	if err != nil {
		return nil, err
	}

	t.ID = id.Bytes
	t.ProjectID = projectID.Bytes
	t.Description = fromText(description)
	t.AssigneeID = uuidPtr(assigneeID)
	t.CreatedAt = createdAt.Time

	return &t, nil
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var (
		m         domain.Member
		id        pgtype.UUID
		projectID pgtype.UUID
		userID    pgtype.UUID
		addedAt   pgtype.Timestamptz
	)

	if err := row.Scan(&id, &projectID, &userID, &m.Role, &addedAt); err != nil {
		return nil, err
	}

	m.ID = id.Bytes
	m.ProjectID = projectID.Bytes
	m.UserID = userID.Bytes
	m.AddedAt = addedAt.Time

	return &m, nil
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	const query = `
INSERT INTO projects (id, name, description, status, owner_id, due_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + projectColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(project.ID),
		project.Name,
		pgText(project.Description),
		string(project.Status),
		pgUUID(project.OwnerID),
		pgTimePtr(project.DueDate),
		pgTime(project.CreatedAt),
		pgTime(project.UpdatedAt),
	)

	return scanProject(row)
}

// GetByID retrieves a single project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// List retrieves all projects, newest first.
func (r *ProjectRepository) List(ctx context.Context) ([]*domain.Project, error) {
	const query = `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`

	rows, err := querier(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update persists changes to an existing project.
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	const query = `
UPDATE projects
SET name = $2, description = $3, status = $4, due_date = $5, updated_at = $6
WHERE id = $1
RETURNING ` + projectColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(project.ID),
		project.Name,
		pgText(project.Description),
		string(project.Status),
		pgTimePtr(project.DueDate),
		pgTime(project.UpdatedAt),
	)

	updated, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a project. Tasks and memberships cascade.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM projects WHERE id = $1`

	tag, err := querier(ctx, r.pool).Exec(ctx, query, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// CreateTask persists a new board task.
func (r *ProjectRepository) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	const query = `
INSERT INTO project_tasks (id, project_id, title, description, status, assignee_id, position, completed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + taskColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(task.ID),
		pgUUID(task.ProjectID),
		task.Title,
		pgText(task.Description),
		task.Status,
		pgUUIDPtr(task.AssigneeID),
		task.Position,
		task.Completed,
		pgTime(task.CreatedAt),
	)

	return scanTask(row)
}

// GetTaskByID retrieves a single task by its ID.
func (r *ProjectRepository) GetTaskByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM project_tasks WHERE id = $1`

	task, err := scanTask(querier(ctx, r.pool).QueryRow(ctx, query, pgUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// ListTasks retrieves a project's tasks in board order.
func (r *ProjectRepository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	const query = `
SELECT ` + taskColumns + `
FROM project_tasks
WHERE project_id = $1
ORDER BY position ASC, created_at ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query, pgUUID(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask persists changes to an existing task.
func (r *ProjectRepository) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	const query = `
UPDATE project_tasks
SET title = $2, description = $3, status = $4, assignee_id = $5, position = $6, completed = $7
WHERE id = $1
RETURNING ` + taskColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(task.ID),
		task.Title,
		pgText(task.Description),
		task.Status,
		pgUUIDPtr(task.AssigneeID),
		task.Position,
		task.Completed,
	)

	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task permanently.
func (r *ProjectRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM project_tasks WHERE id = $1`

	tag, err := querier(ctx, r.pool).Exec(ctx, query, pgUUID(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// AddMember persists a new project membership.
func (r *ProjectRepository) AddMember(ctx context.Context, member *domain.Member) (*domain.Member, error) {
	const query = `
INSERT INTO project_members (id, project_id, user_id, role, added_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (project_id, user_id) DO NOTHING
RETURNING ` + memberColumns

	row := querier(ctx, r.pool).QueryRow(ctx, query,
		pgUUID(member.ID),
		pgUUID(member.ProjectID),
		pgUUID(member.UserID),
		member.Role,
		pgTime(member.AddedAt),
	)

	added, err := scanMember(row)
	if err != nil {
		// DO NOTHING on a conflict yields no row.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMemberExists
		}
		return nil, err
	}
	return added, nil
}

// ListMembers retrieves a project's memberships, oldest first.
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*domain.Member, error) {
	const query = `
SELECT ` + memberColumns + `
FROM project_members
WHERE project_id = $1
ORDER BY added_at ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query, pgUUID(projectID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// RemoveMember deletes a membership by project and user.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	const query = `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`

	tag, err := querier(ctx, r.pool).Exec(ctx, query, pgUUID(projectID), pgUUID(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMemberNotFound
	}
	return nil
}
