package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
)

func TestEventWireShape(t *testing.T) {
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       "Monitor flickering",
		Priority:    domain.PriorityMedium,
		RequesterID: uuid.New(),
	})
	require.NoError(t, err)
	ticket.TicketNumber = "2026-0007"

	raw, err := json.Marshal(domain.NewTicketCreated(ticket))
	require.NoError(t, err)

	var decoded struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "ticket:created", decoded.Event)

	var data map[string]any
	require.NoError(t, json.Unmarshal(decoded.Data, &data))
	assert.Equal(t, ticket.ID.String(), data["id"])
	assert.Equal(t, "2026-0007", data["ticketNumber"])
	assert.Equal(t, "open", data["status"])
	assert.Nil(t, data["assigneeId"])
}

func TestDeletionEvents(t *testing.T) {
	id := uuid.New()

	for _, tc := range []struct {
		event domain.Event
		name  domain.EventName
	}{
		{domain.NewTicketDeleted(id), domain.EventTicketDeleted},
		{domain.NewProjectDeleted(id), domain.EventProjectDeleted},
		{domain.NewTaskDeleted(id), domain.EventTaskDeleted},
		{domain.NewCommentDeleted(id), domain.EventCommentDeleted},
		{domain.NewSLADeleted(id), domain.EventSLADeleted},
	} {
		assert.Equal(t, tc.name, tc.event.Name)
		payload, ok := tc.event.Data.(domain.DeletedPayload)
		require.True(t, ok, "deletion event %q must carry a DeletedPayload", tc.name)
		assert.Equal(t, id.String(), payload.ID)
	}
}

func TestMemberRemovedEvent(t *testing.T) {
	projectID := uuid.New()
	userID := uuid.New()

	event := domain.NewMemberRemoved(projectID, userID)

	assert.Equal(t, domain.EventMemberRemoved, event.Name)
	payload, ok := event.Data.(domain.MemberRemovedPayload)
	require.True(t, ok)
	assert.Equal(t, projectID.String(), payload.ProjectID)
	assert.Equal(t, userID.String(), payload.UserID)
}

func TestUserSnapshotOmitsPassword(t *testing.T) {
	user, err := domain.NewUser(domain.UserRegistrationParams{
		Email:    "tech@example.com",
		Password: "Password1",
		Role:     domain.RoleTechnician,
	})
	require.NoError(t, err)

	raw, err := json.Marshal(domain.NewUserUpdated(user))
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), user.HashedPassword)
}
