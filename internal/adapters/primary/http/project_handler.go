package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/opsdeck/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/opsdeck/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/opsdeck/helpdesk-backend/internal/auth"
	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	apperrors "github.com/opsdeck/helpdesk-backend/internal/core/errors"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

var (
	projectStatuses = []string{"planning", "in_progress", "review", "completed"}
	taskStatuses    = []string{"todo", "in_progress", "done"}
)

// ProjectHandler handles HTTP requests for projects, their Kanban tasks,
// and their memberships.
type ProjectHandler struct {
	projectService ports.ProjectService
	errorHandler   *ErrorHandler
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	projectService ports.ProjectService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		errorHandler:   errorHandler,
		logger:         logger.With("handler", "project"),
	}
}

// Router sets up a new chi Router for all project routes.
func (h *ProjectHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.HandleListProjects)
	r.Post("/", h.HandleCreateProject)

	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.HandleGetProject)
		r.Patch("/", h.HandleUpdateProject)
		r.Delete("/", h.HandleDeleteProject)

		r.Get("/tasks", h.HandleListTasks)
		r.Post("/tasks", h.HandleCreateTask)
		r.Patch("/tasks/{taskID}", h.HandleUpdateTask)
		r.Delete("/tasks/{taskID}", h.HandleDeleteTask)

		r.Get("/members", h.HandleListMembers)
		r.Post("/members", h.HandleAddMember)
		r.Delete("/members/{userID}", h.HandleRemoveMember)
	})

	return r
}

// --- Request DTOs ---

// CreateProjectRequest defines the expected JSON body for creating a project
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
}

// Validate validates the create project request
func (r *CreateProjectRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxTitleLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateProjectRequest defines a partial project update
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
}

// Validate validates the update project request
func (r *UpdateProjectRequest) Validate() error {
	v := validation.NewValidator()

	if r.Name != nil {
		v.Required("name", *r.Name).
			MaxLength("name", *r.Name, domain.MaxTitleLength)
	}
	if r.Status != nil {
		v.OneOf("status", *r.Status, projectStatuses)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// CreateTaskRequest defines the expected JSON body for creating a task
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssigneeID  *string `json:"assigneeId"`
	Position    int     `json:"position"`
}

// Validate validates the create task request
func (r *CreateTaskRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("title", r.Title).
		MaxLength("title", r.Title, domain.MaxTitleLength)

	if r.AssigneeID != nil {
		v.UUID("assigneeId", *r.AssigneeID)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTaskRequest defines a partial task update
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	AssigneeID  *string `json:"assigneeId"`
	Position    *int    `json:"position"`
	Completed   *bool   `json:"completed"`
}

// Validate validates the update task request
func (r *UpdateTaskRequest) Validate() error {
	v := validation.NewValidator()

	if r.Title != nil {
		v.Required("title", *r.Title).
			MaxLength("title", *r.Title, domain.MaxTitleLength)
	}
	if r.Status != nil {
		v.OneOf("status", *r.Status, taskStatuses)
	}
	if r.AssigneeID != nil {
		v.UUID("assigneeId", *r.AssigneeID)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// AddMemberRequest defines the expected JSON body for adding a member
type AddMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Validate validates the add member request
func (r *AddMemberRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("userId", r.UserID).
		UUID("userId", r.UserID)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Project handlers ---

// HandleListProjects handles GET /projects
func (h *ProjectHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListProjects(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]domain.ProjectSnapshot, 0, len(projects))
	for _, project := range projects {
		out = append(out, domain.NewProjectSnapshot(project))
	}
	WriteList(w, out)
}

// HandleCreateProject handles POST /projects
func (h *ProjectHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.getClaims(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[CreateProjectRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid due date"))
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), ports.CreateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     claims.UserID,
		DueDate:     dueDate,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("project created",
		"project_id", project.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, domain.NewProjectSnapshot(project))
}

// HandleGetProject handles GET /projects/{projectID}
func (h *ProjectHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	project, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewProjectSnapshot(project))
}

// HandleUpdateProject handles PATCH /projects/{projectID}
func (h *ProjectHandler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateProjectRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateProjectParams{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.ProjectStatus(*req.Status)
		params.Status = &status
	}
	if req.DueDate != nil {
		dueDate, err := parseOptionalDate(req.DueDate)
		if err != nil {
			h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid due date"))
			return
		}
		params.DueDate = dueDate
	}

	project, err := h.projectService.UpdateProject(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewProjectSnapshot(project))
}

// HandleDeleteProject handles DELETE /projects/{projectID}
func (h *ProjectHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.projectService.DeleteProject(r.Context(), projectID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// --- Task handlers ---

// HandleListTasks handles GET /projects/{projectID}/tasks
func (h *ProjectHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	tasks, err := h.projectService.ListTasks(r.Context(), projectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]domain.TaskSnapshot, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, domain.NewTaskSnapshot(task))
	}
	WriteList(w, out)
}

// HandleCreateTask handles POST /projects/{projectID}/tasks
func (h *ProjectHandler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[CreateTaskRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.CreateTaskParams{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		params.AssigneeID = &assigneeID
	}

	task, err := h.projectService.CreateTask(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, domain.NewTaskSnapshot(task))
}

// HandleUpdateTask handles PATCH /projects/{projectID}/tasks/{taskID}
func (h *ProjectHandler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	if _, err := parseUUIDParam(r, "projectID", "Invalid project ID"); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	taskID, err := parseUUIDParam(r, "taskID", "Invalid task ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTaskRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateTaskParams{
		TaskID:      taskID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Position:    req.Position,
		Completed:   req.Completed,
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		params.AssigneeID = &assigneeID
	}

	task, err := h.projectService.UpdateTask(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTaskSnapshot(task))
}

// HandleDeleteTask handles DELETE /projects/{projectID}/tasks/{taskID}
func (h *ProjectHandler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := parseUUIDParam(r, "projectID", "Invalid project ID"); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	taskID, err := parseUUIDParam(r, "taskID", "Invalid task ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.projectService.DeleteTask(r.Context(), taskID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// --- Member handlers ---

// HandleListMembers handles GET /projects/{projectID}/members
func (h *ProjectHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	members, err := h.projectService.ListMembers(r.Context(), projectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]domain.MemberSnapshot, 0, len(members))
	for _, member := range members {
		out = append(out, domain.NewMemberSnapshot(member))
	}
	WriteList(w, out)
}

// HandleAddMember handles POST /projects/{projectID}/members
func (h *ProjectHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[AddMemberRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	member, err := h.projectService.AddMember(r.Context(), projectID, userID, req.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, domain.NewMemberSnapshot(member))
}

// HandleRemoveMember handles DELETE /projects/{projectID}/members/{userID}
func (h *ProjectHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseUUIDParam(r, "projectID", "Invalid project ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	userID, err := parseUUIDParam(r, "userID", "Invalid user ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), projectID, userID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// --- Helpers ---

func (h *ProjectHandler) getClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := mw.GetClaims(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return nil, false
	}
	return claims, true
}

func parseUUIDParam(r *http.Request, name, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, message)
	}
	return id, nil
}

// parseOptionalDate accepts RFC 3339 timestamps and plain dates.
func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
