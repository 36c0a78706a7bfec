package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshots match the API response shape for each entity, so a browser can
// merge a broadcast payload with data it fetched over REST.

// TicketSnapshot matches the API response shape for tickets.
type TicketSnapshot struct {
	ID            string  `json:"id"`
	TicketNumber  string  `json:"ticketNumber"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	RequesterID   string  `json:"requesterId"`
	AssigneeID    *string `json:"assigneeId"`
	SLATemplateID *string `json:"slaTemplateId"`
	SLADeadline   *string `json:"slaDeadline"`
	SLABreach     bool    `json:"slaBreach"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
	ResolvedAt    *string `json:"resolvedAt"`
	ClosedAt      *string `json:"closedAt"`
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	return TicketSnapshot{
		ID:            ticket.ID.String(),
		TicketNumber:  ticket.TicketNumber,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Status:        string(ticket.Status),
		Priority:      string(ticket.Priority),
		RequesterID:   ticket.RequesterID.String(),
		AssigneeID:    uuidString(ticket.AssigneeID),
		SLATemplateID: uuidString(ticket.SLATemplateID),
		SLADeadline:   timeString(ticket.SLADeadline),
		SLABreach:     ticket.SLABreach,
		CreatedAt:     ticket.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     ticket.UpdatedAt.UTC().Format(time.RFC3339),
		ResolvedAt:    timeString(ticket.ResolvedAt),
		ClosedAt:      timeString(ticket.ClosedAt),
	}
}

// CommentSnapshot matches the API response shape for ticket comments.
type CommentSnapshot struct {
	ID         string `json:"id"`
	TicketID   string `json:"ticketId"`
	UserID     string `json:"userId"`
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
	CreatedAt  string `json:"createdAt"`
}

// NewCommentSnapshot builds a comment snapshot from a domain comment.
func NewCommentSnapshot(comment *Comment) CommentSnapshot {
	return CommentSnapshot{
		ID:         comment.ID.String(),
		TicketID:   comment.TicketID.String(),
		UserID:     comment.UserID.String(),
		Content:    comment.Content,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ProjectSnapshot matches the API response shape for projects.
type ProjectSnapshot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	OwnerID     string  `json:"ownerId"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// NewProjectSnapshot builds a project snapshot from a domain project.
func NewProjectSnapshot(project *Project) ProjectSnapshot {
	return ProjectSnapshot{
		ID:          project.ID.String(),
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		OwnerID:     project.OwnerID.String(),
		DueDate:     timeString(project.DueDate),
		CreatedAt:   project.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   project.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// TaskSnapshot matches the API response shape for project tasks.
type TaskSnapshot struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	AssigneeID  *string `json:"assigneeId"`
	Position    int     `json:"position"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"createdAt"`
}

// NewTaskSnapshot builds a task snapshot from a domain task.
func NewTaskSnapshot(task *Task) TaskSnapshot {
	return TaskSnapshot{
		ID:          task.ID.String(),
		ProjectID:   task.ProjectID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssigneeID:  uuidString(task.AssigneeID),
		Position:    task.Position,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MemberSnapshot matches the API response shape for project members.
type MemberSnapshot struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	AddedAt   string `json:"addedAt"`
}

// NewMemberSnapshot builds a member snapshot from a domain member.
func NewMemberSnapshot(member *Member) MemberSnapshot {
	return MemberSnapshot{
		ID:        member.ID.String(),
		ProjectID: member.ProjectID.String(),
		UserID:    member.UserID.String(),
		Role:      member.Role,
		AddedAt:   member.AddedAt.UTC().Format(time.RFC3339),
	}
}

// SLATemplateSnapshot matches the API response shape for SLA templates.
type SLATemplateSnapshot struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Priority       string `json:"priority"`
	ResponseTime   int    `json:"responseTime"`
	ResolutionTime int    `json:"resolutionTime"`
	Active         bool   `json:"active"`
	CreatedAt      string `json:"createdAt"`
}

// NewSLATemplateSnapshot builds a template snapshot from a domain template.
func NewSLATemplateSnapshot(template *SLATemplate) SLATemplateSnapshot {
	return SLATemplateSnapshot{
		ID:             template.ID.String(),
		Name:           template.Name,
		Priority:       string(template.Priority),
		ResponseTime:   template.ResponseTime,
		ResolutionTime: template.ResolutionTime,
		Active:         template.Active,
		CreatedAt:      template.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// UserSnapshot matches the API response shape for users. The password hash
// is never part of it.
type UserSnapshot struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
	Phone           string `json:"phone"`
	Role            string `json:"role"`
	Department      string `json:"department"`
	Active          bool   `json:"active"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// NewUserSnapshot builds a user snapshot from a domain user.
func NewUserSnapshot(user *User) UserSnapshot {
	return UserSnapshot{
		ID:              user.ID.String(),
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
		Phone:           user.Phone,
		Role:            string(user.Role),
		Department:      user.Department,
		Active:          user.Active,
		CreatedAt:       user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := t.UTC().Format(time.RFC3339)
	return &value
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	value := id.String()
	return &value
}
