package domain

import "github.com/google/uuid"

// EventName identifies what changed and how, as an "<entity>:<action>"
// token. These are the exact strings that travel on the wire.
type EventName string

const (
	EventTicketCreated EventName = "ticket:created"
	EventTicketUpdated EventName = "ticket:updated"
	EventTicketDeleted EventName = "ticket:deleted"

	EventProjectCreated EventName = "project:created"
	EventProjectUpdated EventName = "project:updated"
	EventProjectDeleted EventName = "project:deleted"

	EventTaskCreated EventName = "task:created"
	EventTaskUpdated EventName = "task:updated"
	EventTaskDeleted EventName = "task:deleted"

	EventCommentCreated EventName = "comment:created"
	EventCommentUpdated EventName = "comment:updated"
	EventCommentDeleted EventName = "comment:deleted"

	EventMemberAdded   EventName = "member:added"
	EventMemberRemoved EventName = "member:removed"

	EventSLACreated EventName = "sla:created"
	EventSLAUpdated EventName = "sla:updated"
	EventSLADeleted EventName = "sla:deleted"

	EventUserUpdated EventName = "user:updated"
)

// Event is the payload sent over WebSocket after a mutation commits.
type Event struct {
	Name EventName `json:"event"`
	Data any       `json:"data"`
}

// DeletedPayload announces the removal of an entity by ID.
type DeletedPayload struct {
	ID string `json:"id"`
}

// MemberRemovedPayload announces a membership removal, which is keyed by
// project and user rather than by a row ID.
type MemberRemovedPayload struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

// Constructors below pair each event name with the precise payload shape it
// announces, so the broadcast call sites cannot mismatch them.

func NewTicketCreated(t *Ticket) Event {
	return Event{Name: EventTicketCreated, Data: NewTicketSnapshot(t)}
}

func NewTicketUpdated(t *Ticket) Event {
	return Event{Name: EventTicketUpdated, Data: NewTicketSnapshot(t)}
}

func NewTicketDeleted(id uuid.UUID) Event {
	return Event{Name: EventTicketDeleted, Data: DeletedPayload{ID: id.String()}}
}

func NewProjectCreated(p *Project) Event {
	return Event{Name: EventProjectCreated, Data: NewProjectSnapshot(p)}
}

func NewProjectUpdated(p *Project) Event {
	return Event{Name: EventProjectUpdated, Data: NewProjectSnapshot(p)}
}

func NewProjectDeleted(id uuid.UUID) Event {
	return Event{Name: EventProjectDeleted, Data: DeletedPayload{ID: id.String()}}
}

func NewTaskCreated(t *Task) Event {
	return Event{Name: EventTaskCreated, Data: NewTaskSnapshot(t)}
}

func NewTaskUpdated(t *Task) Event {
	return Event{Name: EventTaskUpdated, Data: NewTaskSnapshot(t)}
}

func NewTaskDeleted(id uuid.UUID) Event {
	return Event{Name: EventTaskDeleted, Data: DeletedPayload{ID: id.String()}}
}

func NewCommentCreated(c *Comment) Event {
	return Event{Name: EventCommentCreated, Data: NewCommentSnapshot(c)}
}

func NewCommentUpdated(c *Comment) Event {
	return Event{Name: EventCommentUpdated, Data: NewCommentSnapshot(c)}
}

func NewCommentDeleted(id uuid.UUID) Event {
	return Event{Name: EventCommentDeleted, Data: DeletedPayload{ID: id.String()}}
}

func NewMemberAdded(m *Member) Event {
	return Event{Name: EventMemberAdded, Data: NewMemberSnapshot(m)}
}

func NewMemberRemoved(projectID, userID uuid.UUID) Event {
	return Event{Name: EventMemberRemoved, Data: MemberRemovedPayload{
		ProjectID: projectID.String(),
		UserID:    userID.String(),
	}}
}

func NewSLACreated(t *SLATemplate) Event {
	return Event{Name: EventSLACreated, Data: NewSLATemplateSnapshot(t)}
}

func NewSLAUpdated(t *SLATemplate) Event {
	return Event{Name: EventSLAUpdated, Data: NewSLATemplateSnapshot(t)}
}

func NewSLADeleted(id uuid.UUID) Event {
	return Event{Name: EventSLADeleted, Data: DeletedPayload{ID: id.String()}}
}

func NewUserUpdated(u *User) Event {
	return Event{Name: EventUserUpdated, Data: NewUserSnapshot(u)}
}
